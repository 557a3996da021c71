package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const defaultVerifyTimeout = 5 * time.Second

// TokenVerifier is the part of the Admin SDK auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

type FirebaseVerifier struct {
	client  TokenVerifier
	timeout time.Duration
}

func NewFirebaseVerifier(ctx context.Context, projectId, credentialsFile string) (*FirebaseVerifier, error) {
	if projectId == "" {
		return nil, errors.New("firebase project id is required")
	}
	var clientOpts []option.ClientOption
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectId}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}
	return NewFirebaseVerifierWithClient(authClient), nil
}

func NewFirebaseVerifierWithClient(client TokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, timeout: defaultVerifyTimeout}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	verified, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if firebaseauth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &Identity{
		Uid:      verified.UID,
		Email:    claimString(verified.Claims["email"]),
		Name:     claimString(verified.Claims["name"]),
		Provider: "firebase",
	}, nil
}

func claimString(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
