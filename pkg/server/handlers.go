package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/motoshop/catalog/pkg/catalog"
	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"github.com/motoshop/catalog/pkg/tracking"
	"github.com/motoshop/catalog/pkg/types"
	"go.uber.org/zap"
)

type categoryInfo struct {
	Key      string          `json:"key"`
	Title    string          `json:"title"`
	SortKeys []types.SortKey `json:"sortKeys"`
}

func (ws *WebServer) Categories(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	pages := ws.Pages.List()
	ret := make([]categoryInfo, 0, len(pages))
	for _, p := range pages {
		ret = append(ret, categoryInfo{Key: p.Key, Title: p.Title, SortKeys: p.Sorting().Keys()})
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	return ret, nil
}

// pageView marks favorites among the items of a computed view.
type pageView struct {
	catalog.View
	Favorites []string `json:"favorites"`
}

func (ws *WebServer) withFavorites(r *http.Request, sessionId string, view catalog.View) pageView {
	ret := pageView{View: view, Favorites: []string{}}
	if ws.Favorites == nil {
		return ret
	}
	idx, err := ws.Favorites.Index(r.Context(), ws.owner(r, sessionId))
	if err != nil {
		common.OrNop(ws.Logger).Warn("failed to load favorites", zap.Error(err))
		return ret
	}
	for _, p := range view.Items {
		if id := p.GetId(); idx.Has(id) {
			ret.Favorites = append(ret.Favorites, id)
		}
	}
	return ret
}

func (ws *WebServer) trackView(r *http.Request, sessionId string, view catalog.View) {
	ws.tracker().TrackCatalogView(sessionId, tracking.CatalogView{
		Category: view.Category,
		State:    view.State,
		Sort:     view.Sort,
		Page:     view.Page,
		Total:    view.Total,
	}, r)
}

// Catalog computes a page from the request alone.
func (ws *WebServer) Catalog(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	cfg, err := ws.Pages.Get(chi.URLParam(r, "category"))
	if err != nil {
		return nil, err
	}
	req, err := types.GetCatalogRequest(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	view := catalog.ComputeRequest(r.Context(), ws.Indexes.Get(cfg), cfg.WithDefaultPageSize(ws.PageSize), req)
	ws.trackView(r, sessionId, view)
	return ws.withFavorites(r, sessionId, view), nil
}

func (ws *WebServer) SessionView(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	session, err := ws.Sessions.Get(sessionId, chi.URLParam(r, "category"))
	if err != nil {
		return nil, err
	}
	view := session.View(r.Context())
	return ws.withFavorites(r, sessionId, view), nil
}

func (ws *WebServer) SessionAction(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	session, err := ws.Sessions.Get(sessionId, chi.URLParam(r, "category"))
	if err != nil {
		return nil, err
	}
	var action catalog.Action
	if err := decodeBody(r, &action); err != nil {
		return nil, err
	}
	view, err := session.Apply(r.Context(), action)
	if err != nil {
		return nil, err
	}
	if action.Type != catalog.ActionTypeQuery {
		ws.trackView(r, sessionId, view)
	}
	return ws.withFavorites(r, sessionId, view), nil
}

func (ws *WebServer) Product(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	return ws.Products.GetProduct(r.Context(), chi.URLParam(r, "id"))
}

const maxBodySize = 1 << 20

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	if err := jsoncompat.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
