package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pribylovaa/token-relay/internal/http/handlers"
	"github.com/pribylovaa/token-relay/internal/http/middleware"
)

// Service — сервисный слой целиком: проверка токена для RequireIdentity
// и операции хендлеров.
type Service interface {
	handlers.Service
	middleware.Authenticator
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// CORSOrigins — разрешённые origin; пусто или "*" — любой.
	CORSOrigins []string
	Metrics     middleware.HTTPObserver
	// Ready — флаг готовности для /healthz; nil — всегда готов.
	Ready *atomic.Bool
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics),
		corsHandler(opts.CORSOrigins),
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса; <=0 — без дедлайна
	)

	h := handlers.New(svc, opts.Ready)
	registerRoutes(root, h, svc)

	return root
}

// registerRoutes — единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Authenticator) {
	r.Get("/", h.Root)
	r.Get("/livez", h.Livez)
	r.Get("/healthz", h.Healthz)

	r.Post("/webhook", h.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.AuthBearer(),
			middleware.RequireIdentity(auth),
		)
		r.Post("/create-firebase-token", h.CreateFirebaseToken)
	})
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "X-Request-Id",
			"svix-id", "svix-timestamp", "svix-signature",
		},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
