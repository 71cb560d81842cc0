// service содержит бизнес-логику релея:
//   - проверку сессионного токена провайдера идентификации (Authenticate);
//   - выпуск custom token бэкенда хранения для проверенной личности (IssueCredential);
//   - синхронизацию пользователя по событиям вебхука (ParseEvent, HandleEvent).
//
// Service не хранит состояние запроса и безопасен для конкурентного
// использования, если таковы переданные зависимости. Каждое обращение к
// бэкенду ограничено таймаутом; истечение таймаута — ErrUpstreamFailure.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pribylovaa/token-relay/internal/config"
	"github.com/pribylovaa/token-relay/internal/models"
	"github.com/pribylovaa/token-relay/internal/pkg/phone"
	"github.com/pribylovaa/token-relay/internal/storage"
)

var (
	// ErrUnauthenticated — токен отсутствует или не прошёл проверку.
	// Транспорт: HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUpstreamFailure — провайдер идентификации или бэкенд хранения
	// ответил ошибкой либо не уложился в таймаут. Транспорт: HTTP 500.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrMalformedEvent — тело вебхука не разбирается или в нём нет
	// обязательных полей (data.id, e-mail). Транспорт: HTTP 500.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrInvalidSignature — подпись вебхука не совпала. Транспорт: HTTP 400.
	ErrInvalidSignature = errors.New("invalid signature")
)

const defaultUpstreamTimeout = 5 * time.Second

// TokenVerifier проверяет сессионный токен провайдера идентификации.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// SignatureVerifier проверяет подпись тела вебхука по заголовкам запроса.
type SignatureVerifier interface {
	Verify(payload []byte, header http.Header) error
}

// Recorder — метрики исходов операций. Реализуется metrics.Collector.
type Recorder interface {
	CredentialIssued(outcome string)
	WebhookEvent(eventType, outcome string)
	UpstreamCall(call string, err error, d time.Duration)
}

// Service описывает бизнес-логику релея.
type Service struct {
	verifier   TokenVerifier
	minter     storage.CustomTokenMinter
	users      storage.UserDirectory
	profiles   storage.ProfileStore
	signatures SignatureVerifier // nil — проверка подписи вебхука выключена
	rec        Recorder

	upstreamTimeout time.Duration
	phoneRegion     string
	now             func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithSignatureVerifier включает проверку подписи вебхуков.
func WithSignatureVerifier(v SignatureVerifier) Option {
	return func(s *Service) { s.signatures = v }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New создаёт новый экземпляр Service.
func New(
	verifier TokenVerifier,
	minter storage.CustomTokenMinter,
	users storage.UserDirectory,
	profiles storage.ProfileStore,
	cfg *config.Config,
	opts ...Option,
) *Service {
	s := &Service{
		verifier:        verifier,
		minter:          minter,
		users:           users,
		profiles:        profiles,
		rec:             nopRecorder{},
		upstreamTimeout: defaultUpstreamTimeout,
		phoneRegion:     phone.DefaultRegion,
		now:             time.Now,
	}

	if cfg != nil {
		if cfg.Timeouts.Upstream > 0 {
			s.upstreamTimeout = cfg.Timeouts.Upstream
		}

		if cfg.Profiles.PhoneRegion != "" {
			s.phoneRegion = cfg.Profiles.PhoneRegion
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// call выполняет одно обращение к внешней системе под таймаутом
// и учитывает его длительность.
func (s *Service) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	start := time.Now()
	err := fn(cctx)
	s.rec.UpstreamCall(name, err, time.Since(start))

	return err
}

type nopRecorder struct{}

func (nopRecorder) CredentialIssued(string)                   {}
func (nopRecorder) WebhookEvent(string, string)               {}
func (nopRecorder) UpstreamCall(string, error, time.Duration) {}
