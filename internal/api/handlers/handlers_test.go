package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/middleware/validation"
	"github.com/campus-assistant/backend/internal/query"
	"github.com/campus-assistant/backend/internal/storage/sqlite"
	"github.com/campus-assistant/backend/internal/tts"
)

type zeroRand struct{}

func (zeroRand) Float64() float64 { return 0 }
func (zeroRand) Intn(int) int     { return 0 }

func newChatService(t *testing.T) *chat.Service {
	t.Helper()
	store, err := knowledge.NewStore("")
	require.NoError(t, err)

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "campus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	svc, err := chat.NewService(chat.Deps{
		Knowledge: store,
		Messages:  db,
		Options:   query.Options{Random: zeroRand{}},
	}, chat.Config{HistoryLimit: 50})
	require.NoError(t, err)
	return svc
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := newChatService(t)
	app := fiber.New()

	q := NewQueryHandler(svc)
	app.Post("/api/v1/chat", q.HandleChat)
	app.Post("/api/v1/resolve", q.HandleResolve)
	app.Post("/api/v1/language/detect", q.HandleDetectLanguage)

	campus := NewCampusHandler(svc)
	app.Get("/api/v1/directions", campus.GetDirections)
	app.Get("/api/v1/routes", campus.ListRoutes)
	app.Get("/api/v1/locations", campus.ListLocations)
	app.Get("/api/v1/locations/:id", campus.GetLocation)
	app.Get("/api/v1/categories", campus.ListCategories)

	history := NewHistoryHandler(svc)
	app.Get("/api/v1/history/:session", history.GetHistory)
	app.Get("/api/v1/history/:session/queries", history.GetQueryHistory)
	app.Delete("/api/v1/history/:session", history.ClearHistory)
	app.Post("/api/v1/feedback", history.SubmitFeedback)
	app.Get("/api/v1/feedback/stats", history.GetFeedbackStats)

	admin := NewAdminHandler(svc)
	app.Post("/api/v1/admin/reload", admin.ReloadKnowledge)
	app.Post("/api/v1/admin/evaluate", admin.Evaluate)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestChatEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "POST", "/api/v1/chat", `{"session_id":"s1","message":"where is the library"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "location", body["source"])
	assert.Equal(t, "en", body["language"])
	assert.Equal(t, "s1", body["session_id"])
	assert.NotEmpty(t, body["id"])

	status, body = do(t, app, "POST", "/api/v1/chat", `{"session_id":"s1","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Message is required", body["error"])
}

func TestResolveEndpointDoesNotStore(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "POST", "/api/v1/resolve", `{"query":"where is the library"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "location", body["source"])

	status, body = do(t, app, "POST", "/api/v1/resolve", `{"query":"asdkjasdkj","language":"ml"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fallback", body["source"])
	assert.Equal(t, "ml", body["language"])
}

func TestDetectLanguageEndpoint(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		text string
		want string
	}{
		{"where is the library", "en"},
		{"hostel evide aanu", "manglish"},
		{"ലൈബ്രറി എവിടെ", "ml"},
	}
	for _, tt := range tests {
		status, body := do(t, app, "POST", "/api/v1/language/detect", `{"text":"`+tt.text+`"}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, tt.want, body["language"], tt.text)
	}
}

func TestDirectionsEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "GET", "/api/v1/directions?from=Main%20Entrance&to=Administrative%20Block&lang=manglish", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "manglish", body["language"])
	steps := body["steps"].([]interface{})
	require.Len(t, steps, 3)
	assert.Equal(t, "Ningal ippol main entrance-il aanu", steps[0])
	assert.True(t, strings.HasSuffix(body["text"].(string), "."))

	status, _ = do(t, app, "GET", "/api/v1/directions?from=Moon&to=Mars", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/api/v1/directions?from=Main%20Entrance", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLocationEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "GET", "/api/v1/locations", "")
	require.Equal(t, http.StatusOK, status)
	categories := body["categories"].(map[string]interface{})
	assert.Contains(t, categories, "academic")
	assert.EqualValues(t, 19, body["count"])

	status, body = do(t, app, "GET", "/api/v1/locations/central-library", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "central-library", body["id"])

	status, _ = do(t, app, "GET", "/api/v1/locations/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, "GET", "/api/v1/routes", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 12, body["count"])
}

func TestHistoryAndFeedbackEndpoints(t *testing.T) {
	app := newTestApp(t)

	_, reply := do(t, app, "POST", "/api/v1/chat", `{"session_id":"h1","message":"where is the library"}`)
	messageID := reply["id"].(string)

	status, body := do(t, app, "GET", "/api/v1/history/h1", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])

	status, _ = do(t, app, "POST", "/api/v1/feedback", `{"message_id":"`+messageID+`","helpful":true}`)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = do(t, app, "POST", "/api/v1/feedback", `{"message_id":"missing","helpful":false}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, "POST", "/api/v1/feedback", `{"helpful":false}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, "GET", "/api/v1/feedback/stats", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["helpful"])

	status, _ = do(t, app, "DELETE", "/api/v1/history/h1", "")
	assert.Equal(t, http.StatusNoContent, status)

	_, body = do(t, app, "GET", "/api/v1/history/h1", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestAdminReload(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "POST", "/api/v1/admin/reload", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 19, body["locations"])
	assert.EqualValues(t, 12, body["routes"])
}

func TestAdminEvaluate(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "POST", "/api/v1/admin/evaluate", "")
	require.Equal(t, http.StatusOK, status)
	report := body["report"].(map[string]interface{})
	assert.EqualValues(t, 100, report["correct_percentage"])

	status, body = do(t, app, "POST", "/api/v1/admin/evaluate", `{"items":[{"query":"asdkjasdkj","language":"en","source":"faq"}]}`)
	require.Equal(t, http.StatusOK, status)
	report = body["report"].(map[string]interface{})
	assert.EqualValues(t, 1, report["wrong"])

	status, _ = do(t, app, "POST", "/api/v1/admin/evaluate", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminEvaluateYAMLThroughValidation(t *testing.T) {
	svc := newChatService(t)
	app := fiber.New()
	app.Use(validation.Middleware(validation.Config{}))
	app.Post("/api/v1/admin/evaluate", NewAdminHandler(svc).Evaluate)

	dataset := "items:\n  - query: Where is the library?\n    language: en\n    source: location\n"
	for _, ct := range []string{"application/x-yaml", "application/yaml", "text/yaml"} {
		req := httptest.NewRequest("POST", "/api/v1/admin/evaluate", strings.NewReader(dataset))
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, ct)
		report := body["report"].(map[string]interface{})
		assert.EqualValues(t, 1, report["correct"], ct)
	}
}

func TestChatRejectsOverlongMessage(t *testing.T) {
	app := newTestApp(t)

	long := strings.Repeat("a", 1001)
	status, body := do(t, app, "POST", "/api/v1/chat", `{"message":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Message exceeds maximum length", body["error"])

	status, body = do(t, app, "POST", "/api/v1/chat", `{"message":"<script>alert(1)</script>"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid message content", body["error"])
}

func TestRejectedMessage(t *testing.T) {
	msg, ok := rejectedMessage(chat.ErrEmptyMessage)
	assert.True(t, ok)
	assert.Equal(t, "Message is required", msg)

	msg, ok = rejectedMessage(chat.ErrMessageTooLong)
	assert.True(t, ok)
	assert.Equal(t, "Message exceeds maximum length", msg)

	_, ok = rejectedMessage(chat.ErrUnsafeMessage)
	assert.True(t, ok)

	_, ok = rejectedMessage(errors.New("boom"))
	assert.False(t, ok)
	_, ok = rejectedMessage(nil)
	assert.False(t, ok)
}

func TestQueryHistoryEndpoint(t *testing.T) {
	app := newTestApp(t)

	for _, msg := range []string{"where is the library", "asdkjasdkj"} {
		status, _ := do(t, app, "POST", "/api/v1/chat", `{"session_id":"q1","message":"`+msg+`"}`)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := do(t, app, "GET", "/api/v1/history/q1/queries", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])
	queries := body["queries"].([]interface{})
	newest := queries[0].(map[string]interface{})
	assert.Equal(t, "asdkjasdkj", newest["query_text"])
	assert.Equal(t, "fallback", newest["source"])

	status, body = do(t, app, "GET", "/api/v1/history/q1/queries?limit=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = do(t, app, "GET", "/api/v1/history/nobody/queries", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])
	assert.Empty(t, body["queries"])
}

func TestListCategories(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, "GET", "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 12, body["count"])
	names := body["categories"].([]interface{})
	assert.Equal(t, "admission", names[0])
	assert.Contains(t, names, "fees")
}

type fakeSynth struct {
	calls int
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, lang language.Language) (*tts.Audio, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Audio{Data: "UklGRg==", Format: "wav", Language: tts.LanguageCode(lang, text)}, nil
}

type memAudio map[string]string

func (m memAudio) GetAudio(_ context.Context, hash string) (string, bool, error) {
	v, ok := m[hash]
	return v, ok, nil
}

func (m memAudio) SetAudio(_ context.Context, hash, audio string, _ time.Duration) error {
	m[hash] = audio
	return nil
}

func TestTTSEndpointCachesAudio(t *testing.T) {
	synth := &fakeSynth{}
	app := fiber.New()
	app.Post("/api/v1/tts", NewTTSHandler(synth, memAudio{}, time.Hour).HandleSynthesize)

	for i := 0; i < 2; i++ {
		status, body := do(t, app, "POST", "/api/v1/tts", `{"text":"ലൈബ്രറി","language":"ml"}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "UklGRg==", body["audio"])
		assert.Equal(t, "ml-IN", body["language"])
	}
	assert.Equal(t, 1, synth.calls)
}

func TestTTSEndpointErrors(t *testing.T) {
	app := fiber.New()
	app.Post("/off", NewTTSHandler(nil, nil, 0).HandleSynthesize)
	app.Post("/empty", NewTTSHandler(&fakeSynth{err: tts.ErrEmptyText}, nil, 0).HandleSynthesize)
	app.Post("/down", NewTTSHandler(&fakeSynth{err: errors.New("503")}, nil, 0).HandleSynthesize)

	status, _ := do(t, app, "POST", "/off", `{"text":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = do(t, app, "POST", "/empty", `{"text":"🙂"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, app, "POST", "/down", `{"text":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHealthAndReady(t *testing.T) {
	app := fiber.New()
	healthy := NewHealthHandler("1.0.0", map[string]Check{
		"sqlite": func(context.Context) error { return nil },
	})
	broken := NewHealthHandler("1.0.0", map[string]Check{
		"sqlite": func(context.Context) error { return nil },
		"redis":  func(context.Context) error { return errors.New("connection refused") },
	})
	app.Get("/health", healthy.Health)
	app.Get("/ready", healthy.Ready)
	app.Get("/broken", broken.Ready)

	status, body := do(t, app, "GET", "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = do(t, app, "GET", "/ready", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = do(t, app, "GET", "/broken", "")
	require.Equal(t, http.StatusServiceUnavailable, status)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
	assert.Equal(t, "ok", checks["sqlite"])
}

func TestSplitIntoWords(t *testing.T) {
	assert.Equal(t, []string{"Go", "straight", "\n", "ലൈബ്രറി"}, splitIntoWords("Go  straight\nലൈബ്രറി"))
	assert.Empty(t, splitIntoWords("   "))
}
