package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrevent/internal/app"
	"hrevent/internal/config"
	"hrevent/internal/domain"
	"hrevent/internal/transport/errcode"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Host: "127.0.0.1", Env: "development", MaxUploadBytes: 1024},
		Event: config.EventConfig{
			SpinDuration:      20 * time.Millisecond,
			SpinInitialDelay:  2 * time.Millisecond,
			SpinSlowdownStep:  time.Millisecond,
			GroupingDelay:     5 * time.Millisecond,
			DefaultGroupSize:  3,
			MaxParticipants:   100,
			StaleEventTimeout: time.Hour,
			EventCodeLength:   6,
			DefaultLocale:     "zh-TW",
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := app.NewEventHub(app.HubOptions{
		CodeLength:      cfg.Event.EventCodeLength,
		MaxParticipants: cfg.Event.MaxParticipants,
		Timing: app.Timing{
			SpinDuration:     cfg.Event.SpinDuration,
			SpinInitialDelay: cfg.Event.SpinInitialDelay,
			SpinSlowdownStep: cfg.Event.SpinSlowdownStep,
			GroupingDelay:    cfg.Event.GroupingDelay,
		},
	}, logger)
	t.Cleanup(hub.Close)

	web := fstest.MapFS{
		"web/index.html":    {Data: []byte("<html>shell</html>")},
		"web/static/app.js": {Data: []byte("console.log('ok')")},
	}
	return NewServer(cfg, hub, logger, web).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func createEvent(t *testing.T, h http.Handler) string {
	t.Helper()

	rec, env := do(t, h, http.MethodPost, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var created CreateEventResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created.EventCode, 6)
	assert.Contains(t, created.Link, "/?event="+created.EventCode)
	return created.EventCode
}

func importNames(t *testing.T, h http.Handler, code string, names ...string) domain.Snapshot {
	t.Helper()

	rec, env := do(t, h, http.MethodPut, "/api/events/"+code+"/participants", map[string]string{
		"text": strings.Join(names, "\n"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	return snapshot
}

func TestServer_Participants(t *testing.T) {
	h := newTestServer(t)
	code := createEvent(t, h)
	base := "/api/events/" + code

	t.Run("import text", func(t *testing.T) {
		snapshot := importNames(t, h, code, "Alice, sales", "Bob", "", "Alice")

		names := lo.Map(snapshot.Participants, func(e domain.RosterEntry, _ int) string { return e.Name })
		assert.Equal(t, []string{"Alice", "Bob", "Alice"}, names)
		assert.Equal(t, []string{"Alice"}, snapshot.DuplicateNames)
		assert.Equal(t, 3, snapshot.Draw.Remaining)
	})

	t.Run("lower case code is accepted", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/api/events/"+strings.ToLower(code), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dedupe", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/participants/dedupe", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot domain.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snapshot))
		assert.Len(t, snapshot.Participants, 2)
		assert.Empty(t, snapshot.DuplicateNames)
	})

	t.Run("blank text", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPut, base+"/participants", map[string]string{"text": "  \n "})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, errcode.EmptyInput, env.Error.Code)
		assert.Equal(t, "請先輸入或上傳名單", env.Error.Message)
	})

	t.Run("missing text", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPut, base+"/participants", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errcode.InvalidRequest, env.Error.Code)
	})

	t.Run("sample", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/participants/sample", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot domain.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snapshot))
		assert.Len(t, snapshot.Participants, 20)
	})

	t.Run("clear requires confirmation", func(t *testing.T) {
		rec, env := do(t, h, http.MethodDelete, base+"/participants", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errcode.ConfirmationRequired, env.Error.Code)

		rec, env = do(t, h, http.MethodDelete, base+"/participants?confirm=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot domain.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snapshot))
		assert.Empty(t, snapshot.Participants)
	})
}

func upload(t *testing.T, h http.Handler, code, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/events/"+code+"/participants/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestServer_Upload(t *testing.T) {
	h := newTestServer(t)
	code := createEvent(t, h)

	t.Run("csv with bom", func(t *testing.T) {
		rec, env := upload(t, h, code, "names.csv", []byte("\uFEFF王小明,業務部\r\nJane,HR\r\n"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var snapshot domain.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snapshot))
		require.Len(t, snapshot.Participants, 2)
		assert.Equal(t, "王小明", snapshot.Participants[0].Name)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		rec, env := upload(t, h, code, "names.xlsx", []byte("Alice\n"))

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, errcode.UnsupportedFile, env.Error.Code)
	})

	t.Run("too large", func(t *testing.T) {
		rec, env := upload(t, h, code, "names.txt", bytes.Repeat([]byte("Alice\n"), 400))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, errcode.FileTooLarge, env.Error.Code)
	})
}

func TestServer_Draw(t *testing.T) {
	h := newTestServer(t)
	code := createEvent(t, h)
	base := "/api/events/" + code
	importNames(t, h, code, "A", "B", "C")

	seen := make(map[string]bool)
	for rank := 1; rank <= 3; rank++ {
		rec, env := do(t, h, http.MethodPost, base+"/draw", map[string]string{"prize": "Mug"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res DrawResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, rank, res.Winner.Rank)
		assert.Equal(t, 3-rank, res.Remaining)
		assert.False(t, seen[res.Winner.ID])
		seen[res.Winner.ID] = true
	}

	rec, env := do(t, h, http.MethodPost, base+"/draw", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errcode.EmptyPool, env.Error.Code)

	rec, _ = do(t, h, http.MethodGet, base+"/draw/summary", nil)
	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "3. "))
	assert.True(t, strings.HasPrefix(lines[2], "1. "))

	t.Run("reset requires confirmation", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/draw/reset?lang=zh-TW", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "確定要重設抽籤狀態與中獎名單嗎？", env.Error.Message)

		rec, env = do(t, h, http.MethodPost, base+"/draw/reset?confirm=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var state domain.DrawState
		require.NoError(t, json.Unmarshal(env.Data, &state))
		assert.Equal(t, 3, state.Remaining)
		assert.Empty(t, state.Winners)
	})

	t.Run("allow duplicates", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodPut, base+"/draw/settings", map[string]bool{"allowDuplicates": true})
		require.Equal(t, http.StatusOK, rec.Code)

		for i := 0; i < 5; i++ {
			rec, env := do(t, h, http.MethodPost, base+"/draw", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var res DrawResponse
			require.NoError(t, json.Unmarshal(env.Data, &res))
			assert.False(t, res.Limited)
		}
	})

	t.Run("prize too long", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/draw", map[string]string{"prize": strings.Repeat("x", 101)})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errcode.InvalidRequest, env.Error.Code)
	})
}

func TestServer_Groups(t *testing.T) {
	h := newTestServer(t)
	code := createEvent(t, h)
	base := "/api/events/" + code

	rec, env := do(t, h, http.MethodGet, base+"/groups/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errcode.NoGroups, env.Error.Code)

	rec, env = do(t, h, http.MethodPost, base+"/groups", map[string]int{"size": 3})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, errcode.EmptyRegistry, env.Error.Code)

	importNames(t, h, code, "A", "B", "C", "D", "E", "F", "G")

	t.Run("seven by three", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/groups", map[string]int{"size": 3})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res GroupsResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		sizes := lo.Map(res.Groups, func(g domain.Group, _ int) int { return len(g.Members) })
		assert.Equal(t, []int{3, 3, 1}, sizes)
		assert.Equal(t, "第 1 組", res.Groups[0].Name)
	})

	t.Run("english labels and default size", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, base+"/groups?lang=en", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res GroupsResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, 3, res.Size)
		assert.Equal(t, "Group 3", res.Groups[2].Name)
	})

	t.Run("invalid sizes", func(t *testing.T) {
		for _, body := range []string{`{"size":0}`, `{"size":-3}`, `{"size":1}`, `{"size":2.5}`, `{"size":"abc"}`} {
			rec, env := do(t, h, http.MethodPost, base+"/groups", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, errcode.InvalidGroupSize, env.Error.Code, body)
		}
	})

	t.Run("summary and export", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, base+"/groups/summary", nil)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "[Group 1]\n - "))

		rec, _ = do(t, h, http.MethodGet, base+"/groups/export?lang=en", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Regexp(t, `^attachment; filename="grouping_result_\d+\.csv"$`, rec.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\uFEFFgroup,name\n"))
		assert.Equal(t, 8, strings.Count(rec.Body.String(), "\n"))
	})
}

func TestServer_Misc(t *testing.T) {
	h := newTestServer(t)

	t.Run("unknown event", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/events/NOPE00?lang=en", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Event not found", env.Error.Message)
	})

	t.Run("health and stats", func(t *testing.T) {
		code := createEvent(t, h)
		importNames(t, h, code, "A", "B")

		rec, _ := do(t, h, http.MethodGet, "/api/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, env := do(t, h, http.MethodGet, "/api/stats", nil)
		var stats StatsResponse
		require.NoError(t, json.Unmarshal(env.Data, &stats))
		assert.Equal(t, 1, stats.ActiveEvents)
		assert.Equal(t, 2, stats.TotalParticipants)
	})

	t.Run("delete event", func(t *testing.T) {
		code := createEvent(t, h)

		rec, _ := do(t, h, http.MethodDelete, "/api/events/"+code, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec, _ = do(t, h, http.MethodGet, "/api/events/"+code, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("spa and static", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/?event=ABC123", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html>shell</html>", rec.Body.String())

		rec, _ = do(t, h, http.MethodGet, "/static/app.js", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = do(t, h, http.MethodGet, "/static/missing.js", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodOptions, "/api/events", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})
}
