package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"dispatch/internal/entities"
	"dispatch/pkg/logger"
)

type ctxKey struct{}

// Authenticator проверяет Firebase ID token из заголовка Authorization
// или параметра token (браузерный websocket не умеет заголовки).
type Authenticator struct {
	log      handlerLogger
	verifier TokenVerifier
}

func New(log handlerLogger, verifier TokenVerifier) *Authenticator {
	return &Authenticator{
		log:      log,
		verifier: verifier,
	}
}

// Require пропускает только указанные роли; без ролей достаточно валидного токена.
// Чужая роль, как и плохой токен, отвечает 401.
func (a *Authenticator) Require(roles ...entities.UserRoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			identity, err := a.verifier.Verify(r.Context(), token)
			if err != nil {
				a.log.With(
					logger.NewField("path", r.URL.Path),
					logger.NewField("error", err),
				).Warn("token rejected")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, identity.Role) {
				a.log.With(
					logger.NewField("path", r.URL.Path),
					logger.NewField("uid", identity.UID),
					logger.NewField("role", identity.Role.String()),
				).Warn("role not allowed")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity entities.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (entities.Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(entities.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}
