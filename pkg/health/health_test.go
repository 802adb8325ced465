package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeStates(t *testing.T) {
	p := NewProbe()
	assert.Equal(t, "starting", p.State())
	assert.False(t, p.IsReady())

	p.Ready()
	assert.Equal(t, "ready", p.State())
	assert.True(t, p.IsReady())

	p.Draining()
	assert.Equal(t, "draining", p.State())
	assert.False(t, p.IsReady())
}

func TestHealthzAlwaysOK(t *testing.T) {
	p := NewProbe()
	mux := http.NewServeMux()
	p.Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyzFollowsState(t *testing.T) {
	p := NewProbe()
	mux := http.NewServeMux()
	p.Routes(mux)

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec
	}

	rec := get()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"starting"}`, rec.Body.String())

	p.Ready()
	rec = get()
	assert.Equal(t, http.StatusOK, rec.Code)

	p.Draining()
	rec = get()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"draining"}`, rec.Body.String())
}
