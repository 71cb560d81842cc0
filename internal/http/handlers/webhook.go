package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	logctx "github.com/pribylovaa/token-relay/internal/pkg/log"
	"github.com/pribylovaa/token-relay/internal/service"
)

// MaxWebhookBody — предел тела вебхука.
const MaxWebhookBody = 1 << 20

const (
	webhookOK           = "Webhook handled"
	webhookFailed       = "Internal error"
	webhookBadSignature = "Invalid signature"
)

// Webhook принимает событие провайдера идентификации.
// Ответы текстовые: 200 "Webhook handled", 500 "Internal error",
// 400 "Invalid signature" (только при настроенном секрете).
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(logctx.With(r.Context(), "delivery_id", deliveryID(r)))

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		writeText(w, http.StatusInternalServerError, webhookFailed)
		return
	}

	if err := h.svc.VerifyWebhook(r.Context(), payload, r.Header); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			writeText(w, http.StatusBadRequest, webhookBadSignature)
			return
		}

		writeText(w, http.StatusInternalServerError, webhookFailed)
		return
	}

	ev, err := h.svc.ParseEvent(r.Context(), payload)
	if err != nil {
		writeText(w, http.StatusInternalServerError, webhookFailed)
		return
	}

	if err := h.svc.HandleEvent(r.Context(), ev); err != nil {
		writeText(w, http.StatusInternalServerError, webhookFailed)
		return
	}

	writeText(w, http.StatusOK, webhookOK)
}

// deliveryID — id доставки для склейки логов: svix-id, если Clerk его прислал,
// иначе случайный UUID.
func deliveryID(r *http.Request) string {
	if id := r.Header.Get("svix-id"); id != "" {
		return id
	}

	return uuid.NewString()
}
