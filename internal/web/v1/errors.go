package v1

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
	"github.com/duynhne/study-service/internal/logger"
)

// errorResponses maps logic errors to status codes and client-facing messages.
// The first entry matching errors.Is wins.
var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{logicv1.ErrMalformedBody, http.StatusUnprocessableEntity, "Request body must be a JSON object with correctly typed fields."},
	{logicv1.ErrMissingRegistrationFields, http.StatusUnprocessableEntity, "Username, email, and password are required."},
	{logicv1.ErrMissingLoginFields, http.StatusUnprocessableEntity, "Username and password are required."},
	{logicv1.ErrPasswordTooLong, http.StatusUnprocessableEntity, "Password must be at most 72 bytes."},
	{logicv1.ErrUsernameTaken, http.StatusUnprocessableEntity, "Username already taken."},
	{logicv1.ErrEmailTaken, http.StatusUnprocessableEntity, "Email already registered."},
	{logicv1.ErrSubjectRequired, http.StatusUnprocessableEntity, "Subject is required."},
	{logicv1.ErrInvalidTotalMinutes, http.StatusUnprocessableEntity, "total_minutes must be between 0 and 2147483647."},
	{logicv1.ErrInvalidBlockType, http.StatusUnprocessableEntity, `block_type must be "work" or "break".`},
	{logicv1.ErrInvalidDuration, http.StatusUnprocessableEntity, "duration_minutes must be between 1 and 2147483647."},
	{logicv1.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password."},
	{logicv1.ErrNotAuthenticated, http.StatusUnauthorized, "Not logged in."},
	{logicv1.ErrForbidden, http.StatusForbidden, "Unauthorized."},
	{logicv1.ErrUserNotFound, http.StatusNotFound, "User not found."},
	{logicv1.ErrStudySessionNotFound, http.StatusNotFound, "Session not found."},
	{logicv1.ErrBlockNotFound, http.StatusNotFound, "Block not found."},
}

// writeError logs err and writes the matching JSON error response. Unknown
// errors become a 500 without internal detail.
func writeError(c *gin.Context, span trace.Span, msg string, err error) {
	span.RecordError(err)

	status, message := http.StatusInternalServerError, "Internal server error"
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			status, message = r.status, r.message
			break
		}
	}

	log := logger.FromContext(c.Request.Context())
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Msg(msg)

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

// bindJSON decodes the request body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(logicv1.ErrMalformedBody, err)
	}
	return nil
}

// pathID parses a numeric path parameter. Ids that are not numeric or do not fit
// the INTEGER id columns are reported as not found.
func pathID(c *gin.Context, name string, notFound error) (int, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.Join(notFound, err)
	}
	return int(id), nil
}
