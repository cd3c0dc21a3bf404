package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	connected bool
	guilds    int
}

func (f fakeGateway) Connected() bool { return f.connected }
func (f fakeGateway) GuildCount() int { return f.guilds }

type fakeStore struct{ err error }

func (f fakeStore) Ping(context.Context) error { return f.err }

func serve(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealth(t *testing.T) {
	s := New(":0", fakeGateway{connected: true, guilds: 4}, fakeStore{})
	s.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	code, body := serve(t, s, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "online", body["bot"])
	assert.EqualValues(t, 4, body["guilds"])
	assert.Equal(t, "2026-03-14T10:00:00Z", body["timestamp"])
}

func TestHealthWhileConnecting(t *testing.T) {
	code, body := serve(t, New(":0", fakeGateway{}, fakeStore{}), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "connecting", body["bot"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		gateway fakeGateway
		store   fakeStore
		want    int
	}{
		{"ready", fakeGateway{connected: true}, fakeStore{}, http.StatusOK},
		{"storage down", fakeGateway{connected: true}, fakeStore{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable},
		{"gateway down", fakeGateway{}, fakeStore{}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, New(":0", tt.gateway, tt.store), "/ready")
			assert.Equal(t, tt.want, code)
			assert.NotContains(t, fmt.Sprint(body["error"]), "dial tcp")
		})
	}
}
