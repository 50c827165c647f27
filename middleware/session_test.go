package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	sessions map[string]int
	err      error
}

func (f fakeResolver) ResolveSession(_ context.Context, token string) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.sessions[token]
	return id, ok, nil
}

func newSessionRouter(resolver SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionAuth("session_id", resolver))
	r.GET("/open", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok, "token": SessionToken(c)})
	})
	r.GET("/closed", RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestSessionAuth(t *testing.T) {
	resolver := fakeResolver{sessions: map[string]int{"good": 7}}

	tests := []struct {
		name   string
		cookie string
		path   string
		status int
		body   string
	}{
		{name: "no cookie on open route", path: "/open", status: http.StatusOK, body: `{"authenticated":false,"token":"","user_id":0}`},
		{name: "valid cookie on open route", cookie: "good", path: "/open", status: http.StatusOK, body: `{"authenticated":true,"token":"good","user_id":7}`},
		{name: "unknown cookie keeps token", cookie: "stale", path: "/open", status: http.StatusOK, body: `{"authenticated":false,"token":"stale","user_id":0}`},
		{name: "no cookie on closed route", path: "/closed", status: http.StatusUnauthorized, body: `{"error":"Not logged in."}`},
		{name: "unknown cookie on closed route", cookie: "stale", path: "/closed", status: http.StatusUnauthorized, body: `{"error":"Not logged in."}`},
		{name: "valid cookie on closed route", cookie: "good", path: "/closed", status: http.StatusNoContent},
	}

	r := newSessionRouter(resolver)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session_id", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestSessionAuthResolverError(t *testing.T) {
	r := newSessionRouter(fakeResolver{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
