package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/study-service/internal/core/repository"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
	"github.com/duynhne/study-service/middleware"
)

const testCookie = "session_id"

type testServer struct {
	store  *repository.MemoryStore
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := logicv1.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	repos := repository.NewMemory(store)
	auth := logicv1.NewAuthService(repos.Users, repos.Sessions, hasher, time.Hour)
	h := NewHandler(
		auth,
		logicv1.NewStudySessionService(repos.StudySessions, repos.PomodoroBlocks),
		logicv1.NewPomodoroBlockService(repos.StudySessions, repos.PomodoroBlocks),
		CookieConfig{Name: testCookie},
	)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.SessionAuth(testCookie, auth))
	h.RegisterRoutes(r)

	return &testServer{store: store, router: r}
}

// client carries the session cookie between requests like a browser would.
type client struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s}
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}

	w := httptest.NewRecorder()
	cl.srv.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name != testCookie {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			cl.cookie = nil
		} else {
			cl.cookie = c
		}
	}
	return w
}

func (cl *client) register(username string) map[string]any {
	cl.t.Helper()
	w := cl.do(http.MethodPost, "/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(cl.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](cl.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)

	user := cl.register("alice")
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	require.NotNil(t, cl.cookie)
	assert.True(t, cl.cookie.HttpOnly)

	w := cl.do(http.MethodGet, "/check_session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[map[string]any](t, w)["username"])
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)
	srv.client(t).register("alice")

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"duplicate username", gin.H{"username": "alice", "email": "other@example.com", "password": "x"}, "Username already taken."},
		{"duplicate email", gin.H{"username": "bob", "email": "alice@example.com", "password": "x"}, "Email already registered."},
		{"missing password", gin.H{"username": "bob", "email": "bob@example.com"}, "Username, email, and password are required."},
		{"malformed body", `{"username": 12}`, "Request body must be a JSON object with correctly typed fields."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.client(t).do(http.MethodPost, "/register", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, tt.message, errorMessage(t, w))
		})
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	srv.client(t).register("alice")

	t.Run("success", func(t *testing.T) {
		cl := srv.client(t)
		w := cl.do(http.MethodPost, "/login", gin.H{"username": "alice", "password": "secret123"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", decode[map[string]any](t, w)["username"])
		assert.NotNil(t, cl.cookie)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		wrong := srv.client(t).do(http.MethodPost, "/login", gin.H{"username": "alice", "password": "nope"})
		unknown := srv.client(t).do(http.MethodPost, "/login", gin.H{"username": "mallory", "password": "nope"})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, "Invalid username or password.", errorMessage(t, wrong))
		assert.Equal(t, errorMessage(t, wrong), errorMessage(t, unknown))
	})

	t.Run("missing fields", func(t *testing.T) {
		w := srv.client(t).do(http.MethodPost, "/login", gin.H{"username": "alice"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)
	cl.register("alice")
	stale := cl.cookie

	w := cl.do(http.MethodDelete, "/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully.", decode[map[string]string](t, w)["message"])
	assert.Nil(t, cl.cookie)

	// Logging out twice is fine.
	w = cl.do(http.MethodDelete, "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The old token no longer authenticates.
	cl.cookie = stale
	w = cl.do(http.MethodGet, "/check_session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/check_session"},
		{http.MethodGet, "/study_sessions"},
		{http.MethodPost, "/study_sessions"},
		{http.MethodGet, "/study_sessions/1"},
		{http.MethodPatch, "/study_sessions/1"},
		{http.MethodDelete, "/study_sessions/1"},
		{http.MethodGet, "/study_sessions/1/pomodoro_blocks"},
		{http.MethodPost, "/study_sessions/1/pomodoro_blocks"},
		{http.MethodPatch, "/pomodoro_blocks/1/complete"},
		{http.MethodDelete, "/pomodoro_blocks/1"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := cl.do(rt.method, rt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not logged in.", errorMessage(t, w))
		})
	}
}

func TestCheckSessionAfterUserDeleted(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)
	user := cl.register("alice")

	srv.store.DeleteUser(int(user["id"].(float64)))

	// The user's sessions went with it, so the cookie is no longer valid.
	w := cl.do(http.MethodGet, "/check_session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudySessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)
	cl.register("alice")

	w := cl.do(http.MethodPost, "/study_sessions", gin.H{"subject": "Math"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "Math", created["subject"])
	assert.Equal(t, "", created["goal"])
	assert.EqualValues(t, 0, created["total_minutes"])
	assert.Equal(t, false, created["completed"])
	id := int(created["id"].(float64))

	w = cl.do(http.MethodPost, "/study_sessions/"+strconv.Itoa(id)+"/pomodoro_blocks", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	block := decode[map[string]any](t, w)
	assert.Equal(t, "work", block["block_type"])
	assert.EqualValues(t, 25, block["duration_minutes"])
	assert.NotNil(t, block["started_at"])
	assert.NotContains(t, block, "ended_at")
	blockID := int(block["id"].(float64))

	w = cl.do(http.MethodPatch, "/pomodoro_blocks/"+strconv.Itoa(blockID)+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	completed := decode[map[string]any](t, w)
	assert.Equal(t, true, completed["completed"])
	assert.NotNil(t, completed["ended_at"])

	w = cl.do(http.MethodGet, "/study_sessions/"+strconv.Itoa(id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]any](t, w)
	assert.EqualValues(t, 25, detail["total_minutes"])
	blocks := detail["pomodoro_blocks"].([]any)
	require.Len(t, blocks, 1)
	assert.Equal(t, true, blocks[0].(map[string]any)["completed"])

	w = cl.do(http.MethodGet, "/study_sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0]["pomodoro_count"])

	w = cl.do(http.MethodPatch, "/study_sessions/"+strconv.Itoa(id), gin.H{"completed": true, "goal": "Chapter 3"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[map[string]any](t, w)
	assert.Equal(t, true, updated["completed"])
	assert.Equal(t, "Chapter 3", updated["goal"])
	assert.Equal(t, "Math", updated["subject"])
	assert.EqualValues(t, 25, updated["total_minutes"])

	w = cl.do(http.MethodDelete, "/study_sessions/"+strconv.Itoa(id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Session deleted successfully.", decode[map[string]string](t, w)["message"])

	// Blocks went with the session.
	w = cl.do(http.MethodPatch, "/pomodoro_blocks/"+strconv.Itoa(blockID)+"/complete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Block not found.", errorMessage(t, w))
}

func TestStudySessionValidation(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)
	cl.register("alice")

	w := cl.do(http.MethodPost, "/study_sessions", gin.H{"goal": "no subject"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Subject is required.", errorMessage(t, w))

	w = cl.do(http.MethodPost, "/study_sessions", gin.H{"subject": "Math"})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/study_sessions/" + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64)))

	tests := []struct {
		name string
		body any
	}{
		{"empty subject", gin.H{"subject": ""}},
		{"negative minutes", gin.H{"total_minutes": -5}},
		{"minutes beyond int32", gin.H{"total_minutes": 2147483648}},
		{"wrong type", `{"completed": "yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cl.do(http.MethodPatch, path, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}

	w = cl.do(http.MethodGet, "/study_sessions/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found.", errorMessage(t, w))

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		w = cl.do(method, "/study_sessions/2147483648", gin.H{})
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "Session not found.", errorMessage(t, w), method)
	}

	w = cl.do(http.MethodPatch, "/pomodoro_blocks/99999999999/complete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Block not found.", errorMessage(t, w))
}

func TestPomodoroBlockValidation(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.client(t)
	cl.register("alice")

	w := cl.do(http.MethodPost, "/study_sessions", gin.H{"subject": "Math"})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/study_sessions/" + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64))) + "/pomodoro_blocks"

	w = cl.do(http.MethodPost, path, gin.H{"block_type": "nap"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, `block_type must be "work" or "break".`, errorMessage(t, w))

	w = cl.do(http.MethodPost, path, gin.H{"duration_minutes": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = cl.do(http.MethodPost, path, gin.H{"duration_minutes": 2147483648})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "duration_minutes must be between 1 and 2147483647.", errorMessage(t, w))

	w = cl.do(http.MethodPost, path, gin.H{"block_type": "break"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 5, decode[map[string]any](t, w)["duration_minutes"])

	w = cl.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Nil(t, list[0]["ended_at"])

	w = cl.do(http.MethodPost, "/study_sessions/999/pomodoro_blocks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found.", errorMessage(t, w))
}

func TestOwnership(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.client(t)
	alice.register("alice")
	bob := srv.client(t)
	bob.register("bob")

	w := alice.do(http.MethodPost, "/study_sessions", gin.H{"subject": "Math"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionPath := "/study_sessions/" + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64)))

	w = alice.do(http.MethodPost, sessionPath+"/pomodoro_blocks", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	blockPath := "/pomodoro_blocks/" + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64)))

	t.Run("study sessions of other users are not found", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
			w := bob.do(method, sessionPath, gin.H{})
			assert.Equal(t, http.StatusNotFound, w.Code, method)
		}
		w := bob.do(http.MethodGet, sessionPath+"/pomodoro_blocks", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = bob.do(http.MethodGet, "/study_sessions", nil)
		assert.Empty(t, decode[[]map[string]any](t, w))
	})

	t.Run("blocks of other users are forbidden", func(t *testing.T) {
		w := bob.do(http.MethodPatch, blockPath+"/complete", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Unauthorized.", errorMessage(t, w))

		w = bob.do(http.MethodDelete, blockPath, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	w = alice.do(http.MethodDelete, blockPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Block deleted successfully.", decode[map[string]string](t, w)["message"])
}
