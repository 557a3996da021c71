package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// MockSessions issues and verifies HS256 tokens for the mock login used when
// Firebase is not configured.
type MockSessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type mockClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func NewMockSessions(secret string, ttl time.Duration) *MockSessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MockSessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token. An empty uid gets a new random one.
func (m *MockSessions) Issue(uid, name, email string) (string, *Identity, error) {
	if len(m.secret) == 0 {
		return "", nil, errors.New("mock sessions: secret is required")
	}
	if uid == "" {
		uid = "mock-" + uuid.NewString()
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mockClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &Identity{Uid: uid, Name: name, Email: email, Provider: "mock"}, nil
}

func (m *MockSessions) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if len(m.secret) == 0 || tokenString == "" {
		return nil, ErrUnauthenticated
	}
	claims := &mockClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token without subject", ErrUnauthenticated)
	}
	return &Identity{Uid: claims.Subject, Name: claims.Name, Email: claims.Email, Provider: "mock"}, nil
}
