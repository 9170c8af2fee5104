// Package catalog serves the static restaurant and menu data.
package catalog

import (
	"strings"

	"github.com/angelmondragon/foodorder-backend/pkg/money"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

// MenuItem is one orderable dish. Price is parsed once when the catalog loads.
type MenuItem struct {
	Name     string       `json:"name"`
	Price    money.Amount `json:"price"`
	ImageRef string       `json:"image"`
}

// Restaurant describes a restaurant and its ordered menu.
type Restaurant struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Logo        string           `json:"logo"`
	Description string           `json:"description"`
	Location    types.Coordinate `json:"location"`
	Menu        []MenuItem       `json:"menu"`
}

// Item returns the menu entry with the given name.
func (r Restaurant) Item(name string) (MenuItem, bool) {
	for _, item := range r.Menu {
		if item.Name == name {
			return item, true
		}
	}
	return MenuItem{}, false
}

// FilterMenu returns the menu items whose name contains q, ignoring case.
func (r Restaurant) FilterMenu(q string) []MenuItem {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]MenuItem, 0, len(r.Menu))
	for _, item := range r.Menu {
		if q == "" || strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	return out
}

type rawItem struct {
	name  string
	price string
	image string
}

type rawRestaurant struct {
	slug        string
	name        string
	dir         string
	description string
	location    types.Coordinate
	menu        []rawItem
}

var seed = []rawRestaurant{
	{
		slug:        "jollibee",
		name:        "Jollibee",
		dir:         "Jollibee",
		description: "Jollibee is a Filipino multinational chain of fast food restaurants.",
		location:    types.Coordinate{Lat: 14.5869, Lon: 120.9822},
		menu: []rawItem{
			{name: "Chickenjoy with Coke Float", price: "₱124.00", image: "item-1-chickenjoy-cokefloat.png"},
			{name: "Yum Burger with drinks", price: "₱99.00", image: "item-2-yumburger-cokefloat.png"},
			{name: "Peach Mango Pie", price: "₱35.00", image: "item-3-peachmangopie.png"},
		},
	},
	{
		slug:        "mcdo",
		name:        "McDonald's",
		dir:         "Mcdo",
		description: "McDonald's is an American multinational fast food chain.",
		location:    types.Coordinate{Lat: 14.6042, Lon: 120.9822},
		menu: []rawItem{
			{name: "Chicken Mcdo ala carte", price: "₱89.00", image: "item-1-chickenMcdo-alacarte.png"},
			{name: "Chicken Mcdo with fries and drinks", price: "₱149.00", image: "item-2-Chicken-McDo-Drink-Fries.png"},
			{name: "Chicken Mcdo with spaghetti", price: "₱129.00", image: "item-3-chicken-spaghetti.png"},
		},
	},
	{
		slug:        "potato-corner",
		name:        "Potato Corner",
		dir:         "PotatoCorner",
		description: "Potato Corner is a Filipino fast food chain specializing in flavored french fries.",
		location:    types.Coordinate{Lat: 14.5547, Lon: 121.0244},
		menu: []rawItem{
			{name: "Jumbo Fries", price: "₱45.00", image: "item-1-jumbo.png"},
			{name: "Mega Fries", price: "₱75.00", image: "item-2-mega.png"},
			{name: "Giga Pack", price: "₱120.00", image: "item-3-giga.png"},
		},
	},
	{
		slug:        "gong-cha",
		name:        "Gong Cha",
		dir:         "GongCha",
		description: "Gong Cha is a Taiwanese bubble tea chain.",
		location:    types.Coordinate{Lat: 14.5764, Lon: 121.0851},
		menu: []rawItem{
			{name: "Milk Tea with pearl", price: "₱120.00", image: "item-1-Milk-Tea-with-Pearl.png"},
			{name: "Wintermelon Milk Tea", price: "₱110.00", image: "item-2-Milk-Tea.png"},
			{name: "Brown Sugar Milk Tea", price: "₱130.00", image: "item-3-brownsugar.png"},
		},
	},
}

func build(raw []rawRestaurant) []Restaurant {
	out := make([]Restaurant, 0, len(raw))
	for _, r := range raw {
		assets := "/assets/" + r.dir + "/"
		menu := make([]MenuItem, 0, len(r.menu))
		for _, item := range r.menu {
			menu = append(menu, MenuItem{
				Name:     item.name,
				Price:    money.MustParse(item.price),
				ImageRef: assets + item.image,
			})
		}
		out = append(out, Restaurant{
			Slug:        r.slug,
			Name:        r.name,
			Logo:        assets + "logo.png",
			Description: r.description,
			Location:    r.location,
			Menu:        menu,
		})
	}
	return out
}
