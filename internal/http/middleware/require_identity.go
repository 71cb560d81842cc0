package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/pribylovaa/token-relay/internal/errors"
	"github.com/pribylovaa/token-relay/internal/models"
	logctx "github.com/pribylovaa/token-relay/internal/pkg/log"
)

// Authenticator проверяет токен и возвращает личность вызывающего.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// RequireIdentity пропускает дальше только запросы с проверенным токеном.
// Личность кладётся в контекст, логгер запроса дополняется user_id.
// Отказ — 401 (или 500, если проверить токен было нечем).
func RequireIdentity(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := auth.Authenticate(r.Context(), TokenFrom(r.Context()))
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentity, id)
			ctx = logctx.With(ctx, "user_id", id.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom возвращает личность, положенную RequireIdentity.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(models.Identity)
	return id, ok
}
