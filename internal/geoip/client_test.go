package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_Primary(t *testing.T) {
	primary := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Helsinki","country_name":"Finland"}`))
	})

	c := NewClient(WithEndpoints(primary.URL+"/%s/json", "http://unused/%s"))
	assert.Equal(t, "Helsinki (Finland)", c.Resolve(context.Background(), "203.0.113.5"))
}

func TestResolve_FallbackOnRateLimit(t *testing.T) {
	primary := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	fallback := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Falkenstein","country":"DE"}`))
	})

	c := NewClient(WithEndpoints(primary.URL+"/%s/json", fallback.URL+"/%s/json"))
	assert.Equal(t, "Falkenstein (DE)", c.Resolve(context.Background(), "203.0.113.5"))
}

func TestResolve_GhostOnFailure(t *testing.T) {
	primary := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := NewClient(WithEndpoints(primary.URL+"/%s/json", "http://unused/%s"))
	assert.Equal(t, Unknown, c.Resolve(context.Background(), "203.0.113.5"))
}

func TestResolve_GhostWhenBothFail(t *testing.T) {
	primary := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	fallback := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	c := NewClient(WithEndpoints(primary.URL+"/%s/json", fallback.URL+"/%s/json"))
	assert.Equal(t, Unknown, c.Resolve(context.Background(), "203.0.113.5"))
}
