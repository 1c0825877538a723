package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	outbox := NewOutboxMetrics(reg)
	outbox.IncPublish("gearhub-orders", "published")

	srv := NewServer("off", reg, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "gearhub_outbox_publish_total"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerDisabledAddressDoesNotListen(t *testing.T) {
	require.NoError(t, NewServer("", prometheus.NewRegistry(), nil).Start(context.Background()))
	require.NoError(t, NewServer("off", prometheus.NewRegistry(), nil).Start(context.Background()))
}

func TestServerStartsOnEphemeralPort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, NewServer("127.0.0.1:0", prometheus.NewRegistry(), nil).Start(ctx))
}
