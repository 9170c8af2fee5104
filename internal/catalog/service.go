package catalog

import (
	"strings"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
)

const notFoundMessage = "Restaurant not found"

// Provider is the read-only catalog lookup.
type Provider interface {
	List() []Restaurant
	Search(q string) []Restaurant
	FindBySlug(slug string) (*Restaurant, error)
	FindByName(name string) (*Restaurant, error)
}

type provider struct {
	restaurants []Restaurant
	bySlug      map[string]int
	byName      map[string]int
}

// NewProvider returns the built-in catalog.
func NewProvider() Provider {
	return newProvider(build(seed))
}

func newProvider(restaurants []Restaurant) *provider {
	p := &provider{
		restaurants: restaurants,
		bySlug:      make(map[string]int, len(restaurants)),
		byName:      make(map[string]int, len(restaurants)),
	}
	for i, r := range restaurants {
		p.bySlug[r.Slug] = i
		p.byName[r.Name] = i
	}
	return p
}

func (p *provider) List() []Restaurant {
	out := make([]Restaurant, len(p.restaurants))
	copy(out, p.restaurants)
	return out
}

// Search matches q against restaurant names and descriptions without regard to case.
func (p *provider) Search(q string) []Restaurant {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return p.List()
	}
	out := []Restaurant{}
	for _, r := range p.restaurants {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Description), q) {
			out = append(out, r)
		}
	}
	return out
}

func (p *provider) FindBySlug(slug string) (*Restaurant, error) {
	idx, ok := p.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	r := p.restaurants[idx]
	return &r, nil
}

// FindByName resolves the display name stored on cart items and orders.
func (p *provider) FindByName(name string) (*Restaurant, error) {
	idx, ok := p.byName[name]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	r := p.restaurants[idx]
	return &r, nil
}
