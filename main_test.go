package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIServer_WriteTimeoutOutlastsRequestTimeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		timeout     time.Duration
		wantRequest time.Duration
	}{
		{name: "configured", timeout: 30 * time.Second, wantRequest: 30 * time.Second},
		{name: "longer than the old fixed deadline", timeout: 90 * time.Second, wantRequest: 90 * time.Second},
		{name: "unset falls back to default", timeout: 0, wantRequest: defaultRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Server.HTTPPort = "8000"
			cfg.Server.Timeout = tt.timeout

			srv := newAPIServer(cfg, http.NotFoundHandler(), logger)

			assert.Equal(t, ":8000", srv.Addr)
			assert.Equal(t, tt.wantRequest, requestTimeout(cfg))
			assert.Greater(t, srv.WriteTimeout, requestTimeout(cfg))
		})
	}
}

func TestRequestTimeout_MiddlewareAnswersGatewayTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Timeout = 20 * time.Millisecond

	r := chi.NewMux()
	r.Use(middleware.Timeout(requestTimeout(cfg)))
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/slow")
	if assert.NoError(t, err) {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	}
}
