package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/motoshop/catalog/pkg/cart"
	"github.com/motoshop/catalog/pkg/catalog"
	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/favorites"
	"github.com/motoshop/catalog/pkg/identity"
	"github.com/motoshop/catalog/pkg/notify"
	"github.com/motoshop/catalog/pkg/storage"
	"github.com/motoshop/catalog/pkg/tracking"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Products is the resident product collection.
type Products interface {
	catalog.ProductProvider
	GetProduct(ctx context.Context, id string) (types.Product, error)
}

type WebServer struct {
	Products      Products
	Pages         *catalog.Pages
	Sessions      *catalog.Sessions
	Favorites     *favorites.Favorites
	Carts         cart.CartStorage
	Notifications *notify.Hub
	Identity      identity.Verifier
	MockSessions  *identity.MockSessions
	Tracking      tracking.Tracking
	Indexes       *catalog.IndexCache
	Logger        *zap.Logger

	PageSize int
}

func (ws *WebServer) tracker() tracking.Tracking {
	if ws.Tracking == nil {
		return tracking.NopTracking{}
	}
	return ws.Tracking
}

func (ws *WebServer) handle(fn common.HandlerFunc) http.HandlerFunc {
	return common.JsonHandler(ws.Logger, ws.tracker(), func(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
		result, err := fn(w, r, sessionId)
		return result, withStatus(err)
	})
}

// withStatus maps domain errors to response codes.
func withStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, cart.ErrOrderNotFound):
		return common.WithStatus(http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrUnknownAction),
		errors.Is(err, catalog.ErrInvalidAction),
		errors.Is(err, favorites.ErrEmptyId),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, errBadRequest):
		return common.WithStatus(http.StatusBadRequest, err)
	case errors.Is(err, identity.ErrUnauthenticated):
		return common.WithStatus(http.StatusUnauthorized, err)
	}
	return err
}

var errBadRequest = errors.New("bad request")

func (ws *WebServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", ws.handle(ws.Categories))
		r.Get("/catalog/{category}", ws.handle(ws.Catalog))
		r.Post("/catalog/{category}", ws.handle(ws.Catalog))

		r.Get("/session/{category}", ws.handle(ws.SessionView))
		r.Post("/session/{category}/actions", ws.handle(ws.SessionAction))

		r.Get("/products/{id}", ws.handle(ws.Product))

		r.Get("/favorites", ws.handle(ws.ListFavorites))
		r.Post("/favorites/{id}", ws.handle(ws.AddFavorite))
		r.Delete("/favorites/{id}", ws.handle(ws.RemoveFavorite))

		r.Get("/cart", ws.handle(ws.GetCart))
		r.Post("/cart/{id}", ws.handle(ws.AddToCart))
		r.Delete("/cart/{orderId}", ws.handle(ws.DeleteFromCart))

		r.Get("/notifications", ws.handle(ws.ListNotifications))
		r.Delete("/notifications/{id}", ws.handle(ws.DismissNotification))

		r.Post("/session-token", ws.handle(ws.IssueSessionToken))
	})
	return r
}

// DebugRouter serves health and metrics on the internal listener.
func DebugRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
