package service

// Тесты сервисного слоя релея.
//
//  Проверяем:
//  - Authenticate: пустой/отвергнутый токен -> ErrUnauthenticated, недоступный JWKS -> ErrUpstreamFailure;
//  - IssueCredential: выпуск, ошибки и таймаут бэкенда -> ErrUpstreamFailure;
//  - ParseEvent/HandleEvent: синхронизация пользователя, идемпотентность, игнор прочих типов;
//  - VerifyWebhook: выключена без секрета, ErrInvalidSignature при несовпадении.
//
// Моки лежат в /mocks (mockgen -source=./internal/storage/storage.go и ./internal/service/service.go).

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/token-relay/internal/config"
	"github.com/pribylovaa/token-relay/mocks"
)

type testDeps struct {
	verifier *mocks.MockTokenVerifier
	minter   *mocks.MockCustomTokenMinter
	users    *mocks.MockUserDirectory
	profiles *mocks.MockProfileStore
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testCfg() *config.Config {
	return &config.Config{
		Timeouts: config.TimeoutConfig{Upstream: time.Second},
		Profiles: config.ProfilesConfig{PhoneRegion: "US"},
	}
}

func newServiceWithMocks(t *testing.T, opts ...Option) (*Service, testDeps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := testDeps{
		verifier: mocks.NewMockTokenVerifier(ctrl),
		minter:   mocks.NewMockCustomTokenMinter(ctrl),
		users:    mocks.NewMockUserDirectory(ctrl),
		profiles: mocks.NewMockProfileStore(ctrl),
	}

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s := New(d.verifier, d.minter, d.users, d.profiles, testCfg(), opts...)

	return s, d
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil, nil, nil)
	require.Equal(t, defaultUpstreamTimeout, s.upstreamTimeout)
	require.Equal(t, "US", s.phoneRegion)
	require.Nil(t, s.signatures)
}
