package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rulebook/internal/domain"
	"rulebook/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error
// codes.
func MapDomainError(err error) (status int, code, msg string) {
	var abortErr *service.PipelineAbortError
	switch {
	case errors.Is(err, domain.ErrNoStoredRulebook):
		return http.StatusNotFound, "NO_STORED_RULEBOOK", "no stored rulebook for this entry key"
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, "RUN_NOT_FOUND", "pipeline run not found"
	case errors.Is(err, domain.ErrEmptyRulebook):
		return http.StatusBadRequest, "EMPTY_RULEBOOK", "rulebook text is empty"
	case errors.Is(err, domain.ErrDuplicateArea):
		return http.StatusConflict, "DUPLICATE_AREA", "area already exists for this entry key"
	case errors.As(err, &abortErr):
		return http.StatusUnprocessableEntity, "PIPELINE_ABORTED", abortErr.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong, please retry"
	}
}

// HandleError maps an error and sends the corresponding response. Internal
// errors are logged with their cause; the client only sees the generic
// message.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status == http.StatusInternalServerError {
		log.Printf("handler: internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	RespondError(c, status, code, msg)
}
