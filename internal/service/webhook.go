package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/token-relay/internal/metrics"
	"github.com/pribylovaa/token-relay/internal/models"
	"github.com/pribylovaa/token-relay/internal/pkg/log"
	"github.com/pribylovaa/token-relay/internal/pkg/phone"
	"github.com/pribylovaa/token-relay/internal/pkg/redact"
	"github.com/pribylovaa/token-relay/internal/storage"
)

// VerifyWebhook проверяет подпись вебхука, если она настроена.
func (s *Service) VerifyWebhook(ctx context.Context, payload []byte, header http.Header) error {
	const op = "service.VerifyWebhook"

	if s.signatures == nil {
		return nil
	}

	if err := s.signatures.Verify(payload, header); err != nil {
		log.From(ctx).Warn("webhook_signature_rejected", "op", op, "err", err)

		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	return nil
}

// ParseEvent разбирает тело вебхука. Незнакомые поля игнорируются:
// Clerk присылает объект пользователя целиком.
func (s *Service) ParseEvent(ctx context.Context, payload []byte) (*models.WebhookEvent, error) {
	const op = "service.ParseEvent"

	var ev models.WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.From(ctx).Warn("webhook_bad_json", "op", op, "err", err)
		s.rec.WebhookEvent("", metrics.OutcomeError)

		return nil, fmt.Errorf("%s: %w", op, ErrMalformedEvent)
	}

	if strings.TrimSpace(ev.Type) == "" {
		log.From(ctx).Warn("webhook_missing_type", "op", op)
		s.rec.WebhookEvent("", metrics.OutcomeError)

		return nil, fmt.Errorf("%s: %w", op, ErrMalformedEvent)
	}

	return &ev, nil
}

// HandleEvent применяет событие вебхука.
//
// Поведение:
//   - user.created и user.updated: завести пользователя Auth (если его нет)
//     и перезаписать профиль; повторная доставка того же события даёт
//     тот же результат;
//   - прочие типы подтверждаются без действий;
//   - нет data.id или e-mail — ErrMalformedEvent;
//   - ошибка или таймаут бэкенда — ErrUpstreamFailure. Повторов внутри нет:
//     повторную доставку выполняет отправитель.
func (s *Service) HandleEvent(ctx context.Context, ev *models.WebhookEvent) error {
	const op = "service.HandleEvent"

	if ev == nil {
		return fmt.Errorf("%s: %w", op, ErrMalformedEvent)
	}

	lg := log.From(ctx).With("op", op, "event_type", ev.Type)

	switch ev.Type {
	case models.EventUserCreated, models.EventUserUpdated:
	default:
		lg.Debug("webhook_event_ignored")
		s.rec.WebhookEvent(ev.Type, metrics.OutcomeIgnored)

		return nil
	}

	prof, err := s.profileFromEvent(ev)
	if err != nil {
		lg.Warn("webhook_malformed_user", "err", err)
		s.rec.WebhookEvent(ev.Type, metrics.OutcomeError)

		return fmt.Errorf("%s: %w", op, err)
	}

	lg = lg.With("user_id", prof.UserID, "email", redact.Email(prof.Email))

	if err := s.ensureAuthUser(ctx, prof.UserID); err != nil {
		lg.Error("firebase_ensure_user_failed", "err", err)
		s.rec.WebhookEvent(ev.Type, metrics.OutcomeError)

		return fmt.Errorf("%s: %w", op, ErrUpstreamFailure)
	}

	err = s.call(ctx, "upsert_profile", func(ctx context.Context) error {
		return s.profiles.UpsertProfile(ctx, prof)
	})
	if err != nil {
		lg.Error("firestore_upsert_failed", "err", err)
		s.rec.WebhookEvent(ev.Type, metrics.OutcomeError)

		return fmt.Errorf("%s: %w", op, ErrUpstreamFailure)
	}

	lg.Info("webhook_user_synced")
	s.rec.WebhookEvent(ev.Type, metrics.OutcomeOK)

	return nil
}

// ensureAuthUser заводит пользователя Auth, если его ещё нет.
// Проигранная гонка с параллельной доставкой (ErrAlreadyExists) — успех.
func (s *Service) ensureAuthUser(ctx context.Context, uid string) error {
	var exists bool
	err := s.call(ctx, "get_user", func(ctx context.Context) error {
		var err error
		exists, err = s.users.UserExists(ctx, uid)
		return err
	})
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if exists {
		return nil
	}

	err = s.call(ctx, "create_user", func(ctx context.Context) error {
		return s.users.CreateUser(ctx, uid)
	})
	if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// profileFromEvent собирает профиль из объекта пользователя события.
func (s *Service) profileFromEvent(ev *models.WebhookEvent) (*models.Profile, error) {
	uid := strings.TrimSpace(ev.Data.ID)
	if uid == "" {
		return nil, fmt.Errorf("%w: empty data.id", ErrMalformedEvent)
	}

	email := ev.Data.PrimaryEmail()
	if email == "" {
		return nil, fmt.Errorf("%w: no email address", ErrMalformedEvent)
	}

	prof := &models.Profile{
		UserID:    uid,
		Email:     email,
		Name:      ev.Data.DisplayName(),
		CreatedAt: ev.Data.Created(),
	}

	if raw := ev.Data.PrimaryPhone(); raw != "" {
		if e164, ok := phone.Normalize(raw, s.phoneRegion); ok {
			prof.Phone = e164
		}
	}

	if prof.CreatedAt.IsZero() {
		prof.CreatedAt = s.now().UTC()
	}

	return prof, nil
}
