package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/readinglists"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondListError maps reading list controller errors to status codes.
// The user-facing message of the error is returned as is.
func respondListError(c *gin.Context, err error, context string) {
	var listErr *readinglists.Error
	if !errors.As(err, &listErr) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "reading list")
			return
		}
		respondInternalError(c, err, context)
		return
	}

	status := http.StatusInternalServerError
	switch listErr.Kind {
	case readinglists.KindListExistsWithTheSameName:
		status = http.StatusConflict
	case readinglists.KindEntryLimitReached, readinglists.KindListLimitReached, readinglists.KindListEntryLimitsReached:
		status = http.StatusUnprocessableEntity
	case readinglists.KindListWithProvidedNameNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError && listErr.Err != nil {
		log.Printf("Internal error (%s): %v", context, listErr.Err)
	}
	c.JSON(status, ErrorResponse{Error: listErr.Error(), Code: listErr.Kind.String()})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}
