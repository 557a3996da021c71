package messaging

import "time"

type ChangeTopic string

const (
	ProductsChanged ChangeTopic = "products_changed"
	TrackingEvents  ChangeTopic = "tracking"
)

type RabbitConfig struct {
	Url    string
	Prefix string
}

// ProductChange announces that products were written by the admin side. An empty
// Ids list means the whole collection changed.
type ProductChange struct {
	Ids     []string  `json:"ids,omitempty"`
	Deleted bool      `json:"deleted,omitempty"`
	At      time.Time `json:"at"`
}
