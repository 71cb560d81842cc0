package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/token-relay/internal/config"
	"github.com/pribylovaa/token-relay/internal/identity/clerk"
	"github.com/pribylovaa/token-relay/internal/metrics"
	"github.com/pribylovaa/token-relay/internal/models"
	logctx "github.com/pribylovaa/token-relay/internal/pkg/log"
	"github.com/pribylovaa/token-relay/mocks"
)

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	s, d := newServiceWithMocks(t)

	d.verifier.EXPECT().Verify(gomock.Any(), "good").
		Return(models.Identity{Subject: "u1", SessionID: "sess_1"}, nil)

	id, err := s.Authenticate(context.Background(), "  good ")
	require.NoError(t, err)
	require.Equal(t, "u1", id.Subject)
}

// Пустой токен отсекается до обращения к верификатору.
func TestAuthenticate_EmptyToken(t *testing.T) {
	t.Parallel()

	s, _ := newServiceWithMocks(t)

	_, err := s.Authenticate(context.Background(), "   ")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_Rejected(t *testing.T) {
	t.Parallel()

	for _, verr := range []error{clerk.ErrInvalidToken, clerk.ErrTokenExpired, errors.New("whatever")} {
		s, d := newServiceWithMocks(t)
		d.verifier.EXPECT().Verify(gomock.Any(), "bad").Return(models.Identity{}, verr)

		_, err := s.Authenticate(context.Background(), "bad")
		require.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestAuthenticate_NoSubject(t *testing.T) {
	t.Parallel()

	s, d := newServiceWithMocks(t)
	d.verifier.EXPECT().Verify(gomock.Any(), "tok").Return(models.Identity{}, nil)

	_, err := s.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_KeySetUnavailable(t *testing.T) {
	t.Parallel()

	s, d := newServiceWithMocks(t)
	d.verifier.EXPECT().Verify(gomock.Any(), "tok").
		Return(models.Identity{}, clerk.ErrKeySetUnavailable)

	_, err := s.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUpstreamFailure)
	require.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueCredential_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	rec := mocks.NewMockRecorder(ctrl)
	rec.EXPECT().UpstreamCall("custom_token", nil, gomock.Any())
	rec.EXPECT().CredentialIssued(metrics.OutcomeOK)

	s, d := newServiceWithMocks(t, WithRecorder(rec))
	d.minter.EXPECT().CustomToken(gomock.Any(), "u1").Return("firebase-ct", nil)

	cred, err := s.IssueCredential(context.Background(), models.Identity{Subject: "u1"})
	require.NoError(t, err)
	require.Equal(t, "firebase-ct", cred.Token)
}

// Ни сессионный токен, ни выпущенный credential не попадают в логи.
func TestCredentialsNotLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logctx.Into(context.Background(),
		slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	s, d := newServiceWithMocks(t)
	d.verifier.EXPECT().Verify(gomock.Any(), "clerk-session-secret").
		Return(models.Identity{Subject: "u1"}, nil)
	d.minter.EXPECT().CustomToken(gomock.Any(), "u1").Return("firebase-ct-secret", nil)

	id, err := s.Authenticate(ctx, "clerk-session-secret")
	require.NoError(t, err)
	_, err = s.IssueCredential(ctx, id)
	require.NoError(t, err)

	require.Contains(t, buf.String(), "token_issued")
	require.NotContains(t, buf.String(), "clerk-session-secret")
	require.NotContains(t, buf.String(), "firebase-ct-secret")
}

func TestIssueCredential_EmptySubject(t *testing.T) {
	t.Parallel()

	s, _ := newServiceWithMocks(t)

	_, err := s.IssueCredential(context.Background(), models.Identity{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueCredential_MintFails(t *testing.T) {
	t.Parallel()

	s, d := newServiceWithMocks(t)
	d.minter.EXPECT().CustomToken(gomock.Any(), "u1").Return("", errors.New("signer down"))

	cred, err := s.IssueCredential(context.Background(), models.Identity{Subject: "u1"})
	require.ErrorIs(t, err, ErrUpstreamFailure)
	require.Empty(t, cred.Token)
}

func TestIssueCredential_EmptyMintedToken(t *testing.T) {
	t.Parallel()

	s, d := newServiceWithMocks(t)
	d.minter.EXPECT().CustomToken(gomock.Any(), "u1").Return("", nil)

	_, err := s.IssueCredential(context.Background(), models.Identity{Subject: "u1"})
	require.ErrorIs(t, err, ErrUpstreamFailure)
}

// Зависший бэкенд обрывается по UPSTREAM_TIMEOUT.
func TestIssueCredential_Timeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	minter := mocks.NewMockCustomTokenMinter(ctrl)

	cfg := &config.Config{Timeouts: config.TimeoutConfig{Upstream: 20 * time.Millisecond}}
	s := New(mocks.NewMockTokenVerifier(ctrl), minter, mocks.NewMockUserDirectory(ctrl), mocks.NewMockProfileStore(ctrl), cfg)

	minter.EXPECT().CustomToken(gomock.Any(), "u1").DoAndReturn(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	_, err := s.IssueCredential(context.Background(), models.Identity{Subject: "u1"})
	require.ErrorIs(t, err, ErrUpstreamFailure)
	require.Less(t, time.Since(start), time.Second)
}
