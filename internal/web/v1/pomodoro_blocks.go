package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/study-service/internal/core/domain"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
)

// ListPomodoroBlocks handles GET /study_sessions/:id/pomodoro_blocks.
func (h *Handler) ListPomodoroBlocks(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	sessionID, err := pathID(c, "id", logicv1.ErrStudySessionNotFound)
	if err != nil {
		writeError(c, span, "Invalid study session id", err)
		return
	}

	blocks, err := h.blocks.List(c.Request.Context(), userID(c), sessionID)
	if err != nil {
		writeError(c, span, "List pomodoro blocks failed", err)
		return
	}

	c.JSON(http.StatusOK, blocks)
}

// CreatePomodoroBlock handles POST /study_sessions/:id/pomodoro_blocks.
func (h *Handler) CreatePomodoroBlock(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	sessionID, err := pathID(c, "id", logicv1.ErrStudySessionNotFound)
	if err != nil {
		writeError(c, span, "Invalid study session id", err)
		return
	}

	var req domain.CreatePomodoroBlockRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, span, "Invalid request", err)
		return
	}

	block, err := h.blocks.Create(c.Request.Context(), userID(c), sessionID, req)
	if err != nil {
		writeError(c, span, "Create pomodoro block failed", err)
		return
	}

	c.JSON(http.StatusCreated, block)
}

// CompletePomodoroBlock handles PATCH /pomodoro_blocks/:id/complete.
func (h *Handler) CompletePomodoroBlock(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	id, err := pathID(c, "id", logicv1.ErrBlockNotFound)
	if err != nil {
		writeError(c, span, "Invalid pomodoro block id", err)
		return
	}

	block, err := h.blocks.Complete(c.Request.Context(), userID(c), id)
	if err != nil {
		writeError(c, span, "Complete pomodoro block failed", err)
		return
	}

	c.JSON(http.StatusOK, block)
}

// DeletePomodoroBlock handles DELETE /pomodoro_blocks/:id.
func (h *Handler) DeletePomodoroBlock(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	id, err := pathID(c, "id", logicv1.ErrBlockNotFound)
	if err != nil {
		writeError(c, span, "Invalid pomodoro block id", err)
		return
	}

	if err := h.blocks.Delete(c.Request.Context(), userID(c), id); err != nil {
		writeError(c, span, "Delete pomodoro block failed", err)
		return
	}

	c.JSON(http.StatusOK, domain.MessageResponse{Message: "Block deleted successfully."})
}
