package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHTTP("POST", "/webhook", 200, 10*time.Millisecond)
	c.ObserveHTTP("POST", "/webhook", 200, 20*time.Millisecond)
	c.ObserveHTTP("GET", "", 404, time.Millisecond)
	c.CredentialIssued(OutcomeOK)
	c.WebhookEvent("user.created", OutcomeOK)
	c.WebhookEvent("", OutcomeIgnored)
	c.UpstreamCall("custom_token", nil, time.Millisecond)
	c.UpstreamCall("custom_token", errors.New("boom"), time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/webhook", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.credentials.WithLabelValues(OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.webhookEvents.WithLabelValues("unknown", OutcomeIgnored)))
	require.Equal(t, 2, testutil.CollectAndCount(c.upstreamCalls))
}

func TestCollector_NilSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", 200, time.Millisecond)
		c.CredentialIssued(OutcomeError)
		c.WebhookEvent("user.created", OutcomeError)
		c.UpstreamCall("create_user", nil, time.Millisecond)
	})
}
