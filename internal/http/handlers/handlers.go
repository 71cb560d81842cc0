package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/pribylovaa/token-relay/internal/models"
)

// Service — то, что хендлерам нужно от сервисного слоя.
type Service interface {
	IssueCredential(ctx context.Context, id models.Identity) (models.Credential, error)
	VerifyWebhook(ctx context.Context, payload []byte, header http.Header) error
	ParseEvent(ctx context.Context, payload []byte) (*models.WebhookEvent, error)
	HandleEvent(ctx context.Context, ev *models.WebhookEvent) error
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc   Service
	ready *atomic.Bool
}

// New создаёт Handlers. ready — флаг готовности для /healthz; nil — всегда готов.
func New(svc Service, ready *atomic.Bool) *Handlers {
	if ready == nil {
		ready = &atomic.Bool{}
		ready.Store(true)
	}

	return &Handlers{svc: svc, ready: ready}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeText — текстовый ответ; вебхук и liveness отвечают строкой.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
