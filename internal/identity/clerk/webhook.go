package clerk

import (
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// ErrBadSignature — подпись вебхука не прошла проверку.
var ErrBadSignature = errors.New("bad webhook signature")

// WebhookVerifier проверяет подписи Svix, которыми Clerk подписывает события.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier принимает секрет вида whsec_... из панели Clerk.
// Пустой секрет — проверка не настроена, возвращается nil без ошибки.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, nil
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("clerk: webhook secret: %w", err)
	}

	return &WebhookVerifier{wh: wh}, nil
}

// Verify проверяет тело и заголовки svix-id / svix-timestamp / svix-signature.
func (v *WebhookVerifier) Verify(payload []byte, header http.Header) error {
	if err := v.wh.Verify(payload, header); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	return nil
}
