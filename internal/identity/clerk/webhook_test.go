package clerk

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

func testWebhookSecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func signedHeader(t *testing.T, secret string, payload []byte) http.Header {
	t.Helper()

	wh, err := svix.NewWebhook(secret)
	require.NoError(t, err)

	now := time.Now()
	sig, err := wh.Sign("msg_1", now, payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("svix-id", "msg_1")
	h.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}

func TestNewWebhookVerifier_EmptySecret(t *testing.T) {
	t.Parallel()

	v, err := NewWebhookVerifier("")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestWebhookVerifier_Verify(t *testing.T) {
	t.Parallel()

	secret := testWebhookSecret()
	v, err := NewWebhookVerifier(secret)
	require.NoError(t, err)

	payload := []byte(`{"type":"user.created","data":{"id":"u1"}}`)
	h := signedHeader(t, secret, payload)

	require.NoError(t, v.Verify(payload, h))

	err = v.Verify([]byte(`{"type":"user.created","data":{"id":"u2"}}`), h)
	require.ErrorIs(t, err, ErrBadSignature)

	err = v.Verify(payload, http.Header{})
	require.ErrorIs(t, err, ErrBadSignature)
}
