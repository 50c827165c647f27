package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/study-service/internal/core/domain"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
)

// ListStudySessions handles GET /study_sessions.
func (h *Handler) ListStudySessions(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	list, err := h.sessions.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, span, "List study sessions failed", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateStudySession handles POST /study_sessions.
func (h *Handler) CreateStudySession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.CreateStudySessionRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, span, "Invalid request", err)
		return
	}

	created, err := h.sessions.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, span, "Create study session failed", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetStudySession handles GET /study_sessions/:id.
func (h *Handler) GetStudySession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	id, err := pathID(c, "id", logicv1.ErrStudySessionNotFound)
	if err != nil {
		writeError(c, span, "Invalid study session id", err)
		return
	}

	detail, err := h.sessions.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		writeError(c, span, "Get study session failed", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateStudySession handles PATCH /study_sessions/:id.
func (h *Handler) UpdateStudySession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	id, err := pathID(c, "id", logicv1.ErrStudySessionNotFound)
	if err != nil {
		writeError(c, span, "Invalid study session id", err)
		return
	}

	var req domain.UpdateStudySessionRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, span, "Invalid request", err)
		return
	}

	updated, err := h.sessions.Update(c.Request.Context(), userID(c), id, req)
	if err != nil {
		writeError(c, span, "Update study session failed", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteStudySession handles DELETE /study_sessions/:id.
func (h *Handler) DeleteStudySession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	id, err := pathID(c, "id", logicv1.ErrStudySessionNotFound)
	if err != nil {
		writeError(c, span, "Invalid study session id", err)
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), userID(c), id); err != nil {
		writeError(c, span, "Delete study session failed", err)
		return
	}

	c.JSON(http.StatusOK, domain.MessageResponse{Message: "Session deleted successfully."})
}
