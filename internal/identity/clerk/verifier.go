// clerk проверяет сессионные токены Clerk и подписи его вебхуков.
//
// Verifier валидирует JWT (RS256) по ключам из JWKS Clerk. Набор ключей
// загружается лениво при первом обращении и далее обновляется в фоне
// кэшем jwx/httprc; запрос JWKS подписывается секретным ключом Clerk.
// Verifier безопасен для конкурентного использования.
package clerk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/pribylovaa/token-relay/internal/models"
)

var (
	// ErrNoToken — токен не передан.
	ErrNoToken = errors.New("no token")

	// ErrInvalidToken — токен некорректен: формат, подпись, kid, issuer, azp или sub.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — истёк срок действия токена (или он ещё не действителен).
	ErrTokenExpired = errors.New("token expired")

	// ErrKeySetUnavailable — JWKS недоступен, проверить подпись нельзя.
	// Это проблема окружения, а не вызывающего.
	ErrKeySetUnavailable = errors.New("key set unavailable")
)

const (
	defaultRegisterTimeout = 5 * time.Second
	defaultHTTPTimeout     = 10 * time.Second
)

// Config — параметры проверки сессионных токенов.
type Config struct {
	SecretKey         string
	JWKSURL           string
	Issuer            string
	AuthorizedParties []string
	ClockSkew         time.Duration
}

// Option настраивает Verifier.
type Option func(*Verifier)

// WithHTTPClient задаёт базовый HTTP-клиент для загрузки JWKS.
// Заголовок Authorization добавляется поверх его транспорта.
func WithHTTPClient(hc *http.Client) Option {
	return func(v *Verifier) {
		if hc != nil {
			v.base = hc
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verifier проверяет сессионные токены Clerk.
type Verifier struct {
	jwksURL string
	issuer  string
	parties map[string]struct{}
	skew    time.Duration
	now     func() time.Time
	base    *http.Client

	cache *jwk.Cache

	mu         sync.Mutex
	registered bool
}

// NewVerifier создаёт Verifier и запускает фоновый кэш JWKS, живущий до отмены ctx.
// Сеть на этом шаге не используется.
func NewVerifier(ctx context.Context, cfg Config, opts ...Option) (*Verifier, error) {
	if strings.TrimSpace(cfg.JWKSURL) == "" {
		return nil, errors.New("clerk: jwks url is required")
	}

	v := &Verifier{
		jwksURL: cfg.JWKSURL,
		issuer:  strings.TrimSpace(cfg.Issuer),
		skew:    cfg.ClockSkew,
		now:     time.Now,
		base:    &http.Client{Timeout: defaultHTTPTimeout},
	}

	for _, opt := range opts {
		opt(v)
	}

	if len(cfg.AuthorizedParties) > 0 {
		v.parties = make(map[string]struct{}, len(cfg.AuthorizedParties))
		for _, p := range cfg.AuthorizedParties {
			if p = strings.TrimSpace(p); p != "" {
				v.parties[p] = struct{}{}
			}
		}
	}

	hc := &http.Client{
		Timeout:   v.base.Timeout,
		Transport: &bearerTransport{secret: cfg.SecretKey, next: v.base.Transport},
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient(httprc.WithHTTPClient(hc)))
	if err != nil {
		return nil, fmt.Errorf("clerk: create jwks cache: %w", err)
	}
	v.cache = cache

	return v, nil
}

// sessionClaims — claims сессионного токена Clerk, которые нам нужны.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
}

// Verify проверяет токен и возвращает личность его владельца.
func (v *Verifier) Verify(ctx context.Context, raw string) (models.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Identity{}, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.skew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.keyFor(ctx, t)
	}, opts...)
	if err != nil {
		return models.Identity{}, classify(err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return models.Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	if v.parties != nil && claims.AuthorizedParty != "" {
		if _, ok := v.parties[claims.AuthorizedParty]; !ok {
			return models.Identity{}, fmt.Errorf("%w: unexpected azp", ErrInvalidToken)
		}
	}

	return models.Identity{
		Subject:         claims.Subject,
		SessionID:       claims.SessionID,
		AuthorizedParty: claims.AuthorizedParty,
	}, nil
}

// keyFor находит открытый ключ по kid из заголовка токена.
func (v *Verifier) keyFor(ctx context.Context, t *jwt.Token) (any, error) {
	kid, ok := t.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrInvalidToken)
	}

	if err := v.ensureRegistered(ctx); err != nil {
		return nil, err
	}

	set, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		v.resetRegistration(ctx)
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: unknown kid %q", ErrInvalidToken, kid)
	}

	var rawKey any
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("%w: export key: %v", ErrInvalidToken, err)
	}

	return rawKey, nil
}

// ensureRegistered регистрирует JWKS URL в кэше и дожидается первой загрузки.
// Неудачная регистрация не запоминается: следующий запрос попробует снова.
func (v *Verifier) ensureRegistered(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.registered {
		return nil
	}

	regCtx, cancel := context.WithTimeout(ctx, defaultRegisterTimeout)
	defer cancel()

	if err := v.cache.Register(regCtx, v.jwksURL); err != nil {
		// ресурс мог остаться в контроллере без данных
		_ = v.cache.Unregister(context.WithoutCancel(ctx), v.jwksURL)
		return fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	v.registered = true
	return nil
}

// resetRegistration снимает URL с учёта, если первая загрузка так и не дала ключей.
func (v *Verifier) resetRegistration(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	_ = v.cache.Unregister(context.WithoutCancel(ctx), v.jwksURL)
	v.registered = false
}

// classify сводит ошибки golang-jwt к ошибкам пакета.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, ErrInvalidToken):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// bearerTransport добавляет секретный ключ Clerk к запросам JWKS.
type bearerTransport struct {
	secret string
	next   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	if t.secret == "" {
		return next.RoundTrip(r)
	}

	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.secret)
	return next.RoundTrip(r)
}
