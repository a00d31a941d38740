package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rulebook/internal/port"
	"rulebook/internal/service"
)

// RulebookHandler handles rulebook parsing and retrieval endpoints.
type RulebookHandler struct {
	pipeline  service.PipelineService
	store     port.RulebookStore
	alignment service.AlignmentService
}

// NewRulebookHandler creates a new RulebookHandler.
func NewRulebookHandler(pipeline service.PipelineService, store port.RulebookStore, alignment service.AlignmentService) *RulebookHandler {
	return &RulebookHandler{pipeline: pipeline, store: store, alignment: alignment}
}

// Parse handles POST /api/v1/rulebooks/:key/parse. The whole pipeline runs
// within the request; the terminal run record, final document, and review
// explanation come back in one response.
func (h *RulebookHandler) Parse(c *gin.Context) {
	entryKey := c.Param("key")

	var req struct {
		RulebookText string `json:"rulebook_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "rulebook_text is required")
		return
	}

	result, err := h.pipeline.ParseRulebook(c.Request.Context(), &service.ParseRulebookInput{
		EntryKey:     entryKey,
		RulebookText: req.RulebookText,
	})
	if err != nil {
		var abortErr *service.PipelineAbortError
		if errors.As(err, &abortErr) && result != nil {
			// The run record explains the abort; return it with the mapped
			// status so the caller can render a user-facing message.
			status, code, _ := MapDomainError(err)
			c.JSON(status, APIResponse{
				Success: false,
				Data:    result.Run,
				Error:   &APIError{Code: code, Message: abortErr.Error()},
			})
			return
		}
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"run":         result.Run,
		"document":    result.Document,
		"explanation": result.Explanation,
	})
}

// Get handles GET /api/v1/rulebooks/:key
func (h *RulebookHandler) Get(c *gin.Context) {
	doc, err := h.store.Read(c.Request.Context(), c.Param("key"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GetRun handles GET /api/v1/runs/:id
func (h *RulebookHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
		return
	}

	run, err := h.pipeline.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// ListRuns handles GET /api/v1/rulebooks/:key/runs
func (h *RulebookHandler) ListRuns(c *gin.Context) {
	offset, limit := pagination(c)
	runs, total, err := h.pipeline.ListRuns(c.Request.Context(), c.Param("key"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Alignment handles GET /api/v1/rulebooks/:key/alignment
func (h *RulebookHandler) Alignment(c *gin.Context) {
	report, err := h.alignment.Report(c.Request.Context(), c.Param("key"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// SyncAreas handles POST /api/v1/rulebooks/:key/areas/sync
func (h *RulebookHandler) SyncAreas(c *gin.Context) {
	created, err := h.alignment.SyncAreas(c.Request.Context(), c.Param("key"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"created": created})
}

// NotifyPeople handles POST /api/v1/rulebooks/:key/people/notify
func (h *RulebookHandler) NotifyPeople(c *gin.Context) {
	notified, err := h.alignment.NotifyMissingPeople(c.Request.Context(), c.Param("key"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"notified": notified})
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
