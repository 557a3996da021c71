package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/motoshop/catalog/pkg/identity"
	"github.com/motoshop/catalog/pkg/notify"
	"github.com/motoshop/catalog/pkg/tracking"
)

func (ws *WebServer) owner(r *http.Request, sessionId string) string {
	return identity.Owner(r.Context(), ws.Identity, r, sessionId)
}

func (ws *WebServer) notify(sessionId, message string, kind notify.Kind) {
	if ws.Notifications != nil {
		ws.Notifications.Push(sessionId, message, kind)
	}
}

func (ws *WebServer) ListFavorites(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	return ws.Favorites.List(r.Context(), ws.owner(r, sessionId))
}

type favoriteResult struct {
	Id       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

func (ws *WebServer) AddFavorite(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	product, err := ws.Products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if err := ws.Favorites.Add(r.Context(), ws.owner(r, sessionId), product); err != nil {
		ws.notify(sessionId, "Не удалось добавить в избранное", notify.KindError)
		return nil, err
	}
	ws.notify(sessionId, fmt.Sprintf("«%s» добавлен в избранное", product.GetTitle()), notify.KindSuccess)
	ws.tracker().TrackAction(sessionId, tracking.Action{Action: "favorite", ProductId: product.GetId()})
	return favoriteResult{Id: product.GetId(), Favorite: true}, nil
}

func (ws *WebServer) RemoveFavorite(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	id := chi.URLParam(r, "id")
	if err := ws.Favorites.Remove(r.Context(), ws.owner(r, sessionId), id); err != nil {
		ws.notify(sessionId, "Не удалось удалить из избранного", notify.KindError)
		return nil, err
	}
	ws.notify(sessionId, "Удалено из избранного", notify.KindInfo)
	ws.tracker().TrackAction(sessionId, tracking.Action{Action: "unfavorite", ProductId: id})
	return favoriteResult{Id: id, Favorite: false}, nil
}

func (ws *WebServer) GetCart(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	return ws.Carts.GetCart(r.Context(), ws.owner(r, sessionId))
}

type addToCartRequest struct {
	Quantity int `json:"quantity"`
}

func (ws *WebServer) AddToCart(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	product, err := ws.Products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	req := addToCartRequest{Quantity: 1}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
	}
	cart, _, err := ws.Carts.AddOrder(r.Context(), ws.owner(r, sessionId), product, req.Quantity)
	if err != nil {
		ws.notify(sessionId, "Не удалось добавить в корзину", notify.KindError)
		return nil, err
	}
	ws.notify(sessionId, fmt.Sprintf("«%s» добавлен в корзину", product.GetTitle()), notify.KindSuccess)
	ws.tracker().TrackAction(sessionId, tracking.Action{Action: "add-to-cart", ProductId: product.GetId()})
	return cart, nil
}

func (ws *WebServer) DeleteFromCart(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	cart, err := ws.Carts.DeleteOrder(r.Context(), ws.owner(r, sessionId), chi.URLParam(r, "orderId"))
	if err != nil {
		ws.notify(sessionId, "Не удалось удалить товар из корзины", notify.KindError)
		return nil, err
	}
	ws.notify(sessionId, "Товар удалён из корзины", notify.KindInfo)
	return cart, nil
}

func (ws *WebServer) ListNotifications(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	list := ws.Notifications.List(sessionId)
	if list == nil {
		list = []notify.Notification{}
	}
	return list, nil
}

func (ws *WebServer) DismissNotification(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	ws.Notifications.Dismiss(sessionId, chi.URLParam(r, "id"))
	return nil, nil
}

type sessionTokenRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionTokenResponse struct {
	Token    string             `json:"token"`
	Identity *identity.Identity `json:"identity"`
}

// IssueSessionToken signs a mock identity for the visitor and sets it as cookie.
func (ws *WebServer) IssueSessionToken(w http.ResponseWriter, r *http.Request, sessionId string) (any, error) {
	if ws.MockSessions == nil {
		return nil, fmt.Errorf("%w: mock sessions disabled", identity.ErrUnauthenticated)
	}
	var req sessionTokenRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
	}
	token, id, err := ws.MockSessions.Issue("session-"+sessionId, req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     identity.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionTokenResponse{Token: token, Identity: id}, nil
}
