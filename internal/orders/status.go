package orders

import "github.com/angelmondragon/foodorder-backend/pkg/enums"

const (
	ColorAmber   = "amber"
	ColorBlue    = "blue"
	ColorGreen   = "green"
	ColorNeutral = "neutral"
)

// StatusDisplay is how a status is rendered.
type StatusDisplay struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

var statusDisplays = map[enums.OrderStatus]StatusDisplay{
	enums.OrderStatusPreparing: {Label: "Preparing", Color: ColorAmber},
	enums.OrderStatusOnRoute:   {Label: "On the way", Color: ColorBlue},
	enums.OrderStatusDelivered: {Label: "Delivered", Color: ColorGreen},
}

// DisplayFor maps a status to its label and color. Unknown statuses show
// their raw value in the neutral color.
func DisplayFor(status enums.OrderStatus) StatusDisplay {
	display, ok := statusDisplays[status]
	if !ok {
		return StatusDisplay{Status: status.String(), Label: status.String(), Color: ColorNeutral}
	}
	display.Status = status.String()
	return display
}
