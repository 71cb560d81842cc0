package middleware

import (
	"context"
	"net/http"
	"strings"
)

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст. Схема сравнивается без учёта регистра. Проверку токена
// выполняет RequireIdentity.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r.Header.Get("Authorization")); token != "" {
				r = r.WithContext(context.WithValue(r.Context(), ctxAuthToken, token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFrom возвращает токен, извлечённый AuthBearer.
func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(ctxAuthToken).(string)
	return tok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
