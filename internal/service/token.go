package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/token-relay/internal/identity/clerk"
	"github.com/pribylovaa/token-relay/internal/metrics"
	"github.com/pribylovaa/token-relay/internal/models"
	"github.com/pribylovaa/token-relay/internal/pkg/log"
	"github.com/pribylovaa/token-relay/internal/pkg/redact"
)

// Authenticate проверяет сессионный токен и возвращает личность.
//
// Поведение:
//   - пустой токен — ErrUnauthenticated, верификатор не вызывается;
//   - любая ошибка проверки токена — ErrUnauthenticated;
//   - недоступный набор ключей или таймаут — ErrUpstreamFailure
//     (это не вина клиента, запрос можно повторить).
func (s *Service) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	const op = "service.Authenticate"

	token = strings.TrimSpace(token)
	lg := log.From(ctx).With("op", op, "token", redact.Token(token))

	if token == "" {
		lg.Warn("auth_missing_token")

		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	var id models.Identity
	err := s.call(ctx, "verify_token", func(ctx context.Context) error {
		var err error
		id, err = s.verifier.Verify(ctx, token)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, clerk.ErrKeySetUnavailable), errors.Is(err, context.DeadlineExceeded):
			lg.Error("auth_key_set_unavailable", "err", err)

			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUpstreamFailure)
		default:
			lg.Warn("auth_token_rejected", "err", err)

			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
	}

	if strings.TrimSpace(id.Subject) == "" {
		lg.Warn("auth_token_without_subject")

		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg.Debug("auth_ok", "user_id", id.Subject)
	return id, nil
}

// IssueCredential выпускает custom token бэкенда для id.Subject.
// Токен не логируется и нигде не сохраняется.
func (s *Service) IssueCredential(ctx context.Context, id models.Identity) (models.Credential, error) {
	const op = "service.IssueCredential"

	lg := log.From(ctx).With("op", op, "user_id", id.Subject)

	if strings.TrimSpace(id.Subject) == "" {
		lg.Warn("credential_empty_subject")
		s.rec.CredentialIssued(metrics.OutcomeError)

		return models.Credential{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	var tok string
	err := s.call(ctx, "custom_token", func(ctx context.Context) error {
		var err error
		tok, err = s.minter.CustomToken(ctx, id.Subject)
		return err
	})
	if err != nil {
		lg.Error("firebase_custom_token_failed", "err", err)
		s.rec.CredentialIssued(metrics.OutcomeError)

		return models.Credential{}, fmt.Errorf("%s: %w", op, ErrUpstreamFailure)
	}

	if tok == "" {
		lg.Error("firebase_custom_token_empty")
		s.rec.CredentialIssued(metrics.OutcomeError)

		return models.Credential{}, fmt.Errorf("%s: %w", op, ErrUpstreamFailure)
	}

	lg.Info("token_issued")
	s.rec.CredentialIssued(metrics.OutcomeOK)

	return models.Credential{Token: tok}, nil
}
