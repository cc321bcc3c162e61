package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlms/pkg/platform/httputil"
	"dlms/pkg/platform/middleware/metadata"
	"dlms/pkg/requestcontext"
	"dlms/pkg/testutil"
)

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": requestcontext.RequestID(r.Context()),
			"agent":      requestcontext.Agent(r.Context()),
			"has_time":   !requestcontext.Now(r.Context()).IsZero(),
		})
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func TestRouter(t *testing.T) {
	router := NewRouter(Config{Handlers: []Registrar{echoModule{}}})

	t.Run("module routes see request metadata", func(t *testing.T) {
		req := testutil.WithAgent(testutil.NewRequest(t, http.MethodGet, "/echo"), "clerk-1")
		req.Header.Set(metadata.HeaderRequestID, "req-1")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "req-1", (*body)["request_id"])
		assert.Equal(t, "clerk-1", (*body)["agent"])
		assert.Equal(t, true, (*body)["has_time"])
		assert.Equal(t, "req-1", rr.Header().Get(metadata.HeaderRequestID))
	})

	t.Run("panics become 500", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/boom"))
		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	})

	t.Run("metrics endpoint is mounted", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router := NewRouter(Config{Health: []HealthCheck{{Name: "postgres", Check: func(context.Context) error { return nil }}}})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("failing check is 503", func(t *testing.T) {
		router := NewRouter(Config{Health: []HealthCheck{{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}}})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)

		body := testutil.UnmarshalResponse[map[string]any](t, rr)
		checks, ok := (*body)["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "connection refused", checks["redis"])
	})
}
