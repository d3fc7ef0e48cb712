package firebase

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/entities"
	"dispatch/internal/pkg/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// RoleClaim custom claim, который выставляет сервис регистрации.
const RoleClaim = "role"

var ErrMissingRole = errors.New("token has no valid role claim")

type Verifier struct {
	client *auth.Client
}

// NewVerifier без файла ключей используются application default credentials.
func NewVerifier(ctx context.Context, cfg *config.Auth) (*Verifier, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	return &Verifier{client: client}, nil
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (*entities.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	return IdentityFromClaims(token.UID, token.Claims)
}

func IdentityFromClaims(uid string, claims map[string]any) (*entities.Identity, error) {
	raw, ok := claims[RoleClaim].(string)
	if !ok {
		return nil, ErrMissingRole
	}

	role := entities.UserRoleType(raw)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrMissingRole, raw)
	}

	return &entities.Identity{UID: uid, Role: role}, nil
}
