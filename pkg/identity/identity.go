package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthenticated = errors.New("identity: unauthenticated")

const TokenCookieName = "token"

type Identity struct {
	Uid      string `json:"uid"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Chain tries each verifier in turn and returns the first identity.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	var errs []error
	for _, v := range c {
		if v == nil {
			continue
		}
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrUnauthenticated}, errs...)...)
}

// TokenFromRequest reads a bearer token, falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Owner resolves who a request acts for: the verified identity when a valid token is
// present, else the anonymous session.
func Owner(ctx context.Context, v Verifier, r *http.Request, sessionId string) string {
	if v != nil {
		if token := TokenFromRequest(r); token != "" {
			if id, err := v.Verify(ctx, token); err == nil {
				return id.Uid
			}
		}
	}
	return "session-" + sessionId
}
