package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/gin-gonic/gin"
)

const (
	errTypeInternal         = "internal_error"
	errTypeInvalidJSON      = "invalid_json"
	errTypeValidationFailed = "validation_failed"
	errTypeNotFound         = "not_found"
	errTypeConflict         = "version_conflict"
)

// ErrorResponse is the error response body shared by every endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// writeDomainError translates a command-pipeline error into the HTTP shape.
// Validation failures list every failed rule; a version conflict tells the
// caller to reload and retry.
func writeDomainError(c *gin.Context, err error) {
	if v, ok := eventsourcing.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorType: errTypeValidationFailed,
			Message:   "validation failed",
			Details:   v,
		})
		return
	}

	switch {
	case errors.Is(err, eventstore.ErrStreamNotFound), errors.Is(err, readmodel.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			ErrorType: errTypeNotFound,
			Message:   "resource not found",
		})
	case errors.Is(err, eventstore.ErrVersionConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			ErrorType: errTypeConflict,
			Message:   "concurrent modification, reload and retry",
		})
	default:
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorType: errTypeInternal,
			Message:   "internal error",
		})
	}
}

func writeInvalidJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		ErrorType: errTypeInvalidJSON,
		Message:   "invalid JSON body",
		Details:   err.Error(),
	})
}
