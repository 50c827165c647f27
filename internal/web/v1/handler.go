package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/study-service/internal/core/domain"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
	"github.com/duynhne/study-service/internal/logger"
	"github.com/duynhne/study-service/middleware"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler groups HTTP handlers for API v1.
// Dependencies are injected via the constructor; there is no global state.
type Handler struct {
	auth     *logicv1.AuthService
	sessions *logicv1.StudySessionService
	blocks   *logicv1.PomodoroBlockService
	cookie   CookieConfig
}

// NewHandler creates a new Handler with the given services.
func NewHandler(auth *logicv1.AuthService, sessions *logicv1.StudySessionService, blocks *logicv1.PomodoroBlockService, cookie CookieConfig) *Handler {
	return &Handler{auth: auth, sessions: sessions, blocks: blocks, cookie: cookie}
}

// RegisterRoutes registers all API v1 routes. SessionAuth must already be installed
// on r so that the authenticated user is known.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.DELETE("/logout", h.Logout)

	authed := r.Group("", middleware.RequireSession())
	authed.GET("/check_session", h.CheckSession)

	authed.GET("/study_sessions", h.ListStudySessions)
	authed.POST("/study_sessions", h.CreateStudySession)
	authed.GET("/study_sessions/:id", h.GetStudySession)
	authed.PATCH("/study_sessions/:id", h.UpdateStudySession)
	authed.DELETE("/study_sessions/:id", h.DeleteStudySession)

	authed.GET("/study_sessions/:id/pomodoro_blocks", h.ListPomodoroBlocks)
	authed.POST("/study_sessions/:id/pomodoro_blocks", h.CreatePomodoroBlock)
	authed.PATCH("/pomodoro_blocks/:id/complete", h.CompletePomodoroBlock)
	authed.DELETE("/pomodoro_blocks/:id", h.DeletePomodoroBlock)
}

// startSpan starts the web-layer span and makes it the parent of everything the
// handler calls.
func startSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("route", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// userID returns the authenticated user; RequireSession guarantees it on protected routes.
func userID(c *gin.Context) int {
	id, _ := middleware.CurrentUserID(c)
	return id
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, span, "Invalid request", err)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, span, "Registration failed", err)
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)
	logger.FromContext(c.Request.Context()).Info().Int("user_id", resp.User.ID).Msg("Registration successful")
	c.JSON(http.StatusCreated, resp.User)
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, span, "Invalid request", err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		// Don't reveal that the user doesn't exist.
		if errors.Is(err, logicv1.ErrUserNotFound) {
			err = errors.Join(logicv1.ErrInvalidCredentials, err)
		}
		writeError(c, span, "Login failed", err)
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)
	logger.FromContext(c.Request.Context()).Info().Int("user_id", resp.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, resp.User)
}

// Logout handles DELETE /logout. It succeeds whether or not a session existed.
func (h *Handler) Logout(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	if err := h.auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		writeError(c, span, "Logout failed", err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, domain.MessageResponse{Message: "Logged out successfully."})
}

// CheckSession handles GET /check_session.
func (h *Handler) CheckSession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	user, err := h.auth.CheckSession(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, span, "Session check failed", err)
		return
	}

	c.JSON(http.StatusOK, user)
}
