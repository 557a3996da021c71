package tracking

import (
	"net/http"

	"github.com/motoshop/catalog/pkg/types"
)

// Tracking receives storefront events. Implementations must not block the request.
type Tracking interface {
	TrackSession(sessionId string, r *http.Request)
	TrackCatalogView(sessionId string, view CatalogView, r *http.Request)
	TrackAction(sessionId string, action Action)
}

// CatalogView is one computed category page.
type CatalogView struct {
	Category string            `json:"category"`
	State    types.FilterState `json:"state"`
	Sort     types.SortKey     `json:"sort"`
	Page     int               `json:"page"`
	Total    int               `json:"total"`
}

type Action struct {
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	ProductId string `json:"productId,omitempty"`
}

type NopTracking struct{}

func (NopTracking) TrackSession(string, *http.Request)                  {}
func (NopTracking) TrackCatalogView(string, CatalogView, *http.Request) {}
func (NopTracking) TrackAction(string, Action)                          {}
