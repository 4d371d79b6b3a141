package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuttifrutti/internal/config"
	"tuttifrutti/internal/game"
	"tuttifrutti/internal/peer"
	"tuttifrutti/internal/prefs"
	"tuttifrutti/internal/store"
)

func testBridge(t *testing.T) (*Handler, http.Handler, store.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Game.SettleDelay = 20 * time.Millisecond

	st := store.NewMemoryStore()
	session := peer.NewSession(cfg, st, "u1", "Alice")
	t.Cleanup(session.Close)

	h := New(session, prefs.Open(""), cfg)
	router := SetupRouter(h, cfg, &RouterOptions{
		DisableRateLimiting:  true,
		DisableRequestLogger: true,
	})
	return h, router, st
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	_, router, _ := testBridge(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	_, router, _ := testBridge(t)

	rec := doJSON(t, router, http.MethodPost, "/api/profile", map[string]string{
		"name":     "Zoe",
		"language": "es",
		"theme":    "dark",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Zoe", got["name"])
	assert.Equal(t, "es", got["language"])
	assert.Equal(t, "dark", got["theme"])
	assert.Equal(t, "u1", got["uid"])
}

func TestCreateRoomAndPlay(t *testing.T) {
	_, router, st := testBridge(t)

	rec := doJSON(t, router, http.MethodPost, "/api/room", map[string]any{
		"name":            "Friday Night",
		"language":        "en",
		"durationSeconds": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var room game.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, "Friday Night", room.Name)
	assert.Equal(t, 60, room.GameDuration)
	assert.Equal(t, "u1", room.HostUID())

	// The engine needs a snapshot before host actions pass the local check.
	require.Eventually(t, func() bool {
		rec := doJSON(t, router, http.MethodGet, "/api/room", nil)
		return rec.Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/room/start", nil).Code)

	rec = doJSON(t, router, http.MethodPost, "/api/answer", map[string]string{
		"category": "Name",
		"text":     "Nina",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, stored.Status)
	assert.Equal(t, "Nina", stored.FindPlayer("u1").Answers["Name"])
}

func TestJoinUnknownRoom(t *testing.T) {
	_, router, _ := testBridge(t)
	rec := doJSON(t, router, http.MethodPost, "/api/room/ZZZZ/join", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetAnswerRequiresCategory(t *testing.T) {
	_, router, _ := testBridge(t)
	rec := doJSON(t, router, http.MethodPost, "/api/answer", map[string]string{"text": "Nina"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomQRWithoutRoom(t *testing.T) {
	_, router, _ := testBridge(t)
	rec := doJSON(t, router, http.MethodGet, "/api/room/qr", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream_SendsInitialSignals(t *testing.T) {
	h, _, _ := testBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/sse/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rec.Body.String(), "inRoom")
}

func TestValidateStreamRequest(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	cases := []struct {
		name  string
		query string
		code  int
	}{
		{"no params", "", http.StatusOK},
		{"valid datastar", `datastar=` + `{"theme":"dark"}`, http.StatusOK},
		{"unknown param", "evil=1", http.StatusBadRequest},
		{"unknown signal", `datastar={"dropTables":true}`, http.StatusBadRequest},
		{"broken json", `datastar={nope`, http.StatusBadRequest},
		{"oversized state", "datastar=" + strings.Repeat("x", 9000), http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/events?"+c.query, nil)
			rec := httptest.NewRecorder()
			ValidateStreamRequest(ok)(rec, req)
			assert.Equal(t, c.code, rec.Code)
		})
	}
}
