package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulebook/internal/domain"
	"rulebook/internal/handler"
	"rulebook/internal/router"
	"rulebook/internal/service"
	"rulebook/mocks"
)

func setupRouter(pipeline *mocks.MockPipelineService, store *mocks.MockRulebookStore, alignment *mocks.MockAlignmentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rulebookH := handler.NewRulebookHandler(pipeline, store, alignment)
	healthH := handler.NewHealthHandler(nil)
	return router.Setup(rulebookH, healthH, nil)
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseEndpoint_Success(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	store := new(mocks.MockRulebookStore)
	alignment := new(mocks.MockAlignmentService)

	sig := true
	pipeline.On("ParseRulebook", mock.Anything, mock.MatchedBy(func(in *service.ParseRulebookInput) bool {
		return in.EntryKey == "home-1" && in.RulebookText == "my rulebook"
	})).Return(&service.PipelineResult{
		Run: &domain.PipelineRun{
			ID: uuid.New(), EntryKey: "home-1",
			Stage: domain.StageDone, Status: domain.RunStatusSuccessPersisted,
			Significant: &sig,
		},
		Document:    &domain.ParsedHomeDetails{RawText: "my rulebook"},
		Explanation: "first version",
	}, nil)

	r := setupRouter(pipeline, store, alignment)
	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/parse",
		gin.H{"rulebook_text": "my rulebook"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Run         domain.PipelineRun       `json:"run"`
			Document    domain.ParsedHomeDetails `json:"document"`
			Explanation string                   `json:"explanation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, domain.RunStatusSuccessPersisted, resp.Data.Run.Status)
	assert.Equal(t, "first version", resp.Data.Explanation)
}

func TestParseEndpoint_MissingBody(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))

	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/parse", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	pipeline.AssertNotCalled(t, "ParseRulebook", mock.Anything, mock.Anything)
}

func TestParseEndpoint_EmptyRulebook(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))

	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/parse",
		gin.H{"rulebook_text": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseEndpoint_PipelineAborted(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))

	abort := &service.PipelineAbortError{
		Stage: domain.StageInitialParsing,
		Err:   errors.New("could not understand rulebook"),
	}
	pipeline.On("ParseRulebook", mock.Anything, mock.Anything).Return(&service.PipelineResult{
		Run: &domain.PipelineRun{Status: domain.RunStatusAbortedNoParse, Stage: domain.StageInitialParsing},
	}, abort)

	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/parse",
		gin.H{"rulebook_text": "gibberish"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "PIPELINE_ABORTED", resp.Error.Code)
}

func TestGetRulebook_NotFound(t *testing.T) {
	store := new(mocks.MockRulebookStore)
	store.On("Read", mock.Anything, "home-1").Return(nil, domain.ErrNoStoredRulebook)

	r := setupRouter(new(mocks.MockPipelineService), store, new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRulebook_Found(t *testing.T) {
	store := new(mocks.MockRulebookStore)
	store.On("Read", mock.Anything, "home-1").Return(&domain.ParsedHomeDetails{
		RawText: "text", ParsedStatus: domain.ParsedStatusCompleted,
	}, nil)

	r := setupRouter(new(mocks.MockPipelineService), store, new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"parsed_status":"completed"`)
}

func TestGetRun_InvalidUUID(t *testing.T) {
	r := setupRouter(new(mocks.MockPipelineService), new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	id := uuid.New()
	pipeline.On("GetRun", mock.Anything, id).Return(nil, domain.ErrRunNotFound)

	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/runs/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns_Paginates(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	pipeline.On("ListRuns", mock.Anything, "home-1", 0, 20).
		Return([]domain.PipelineRun{{EntryKey: "home-1"}}, 7, nil)

	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1/runs", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":7`)
}

func TestListRuns_ClampsBadPagination(t *testing.T) {
	pipeline := new(mocks.MockPipelineService)
	pipeline.On("ListRuns", mock.Anything, "home-1", 0, 20).
		Return([]domain.PipelineRun{}, 0, nil)

	r := setupRouter(pipeline, new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1/runs?offset=-5&limit=9999", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	pipeline.AssertCalled(t, "ListRuns", mock.Anything, "home-1", 0, 20)
}

func TestAlignmentEndpoint(t *testing.T) {
	alignment := new(mocks.MockAlignmentService)
	alignment.On("Report", mock.Anything, "home-1").Return(&domain.AlignmentReport{
		EntryKey:     "home-1",
		MissingAreas: []string{"garage"},
	}, nil)

	r := setupRouter(new(mocks.MockPipelineService), new(mocks.MockRulebookStore), alignment)
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1/alignment", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"missing_areas":["garage"]`)
}

func TestSyncAreasEndpoint_DuplicateConflict(t *testing.T) {
	alignment := new(mocks.MockAlignmentService)
	alignment.On("SyncAreas", mock.Anything, "home-1").Return(nil, domain.ErrDuplicateArea)

	r := setupRouter(new(mocks.MockPipelineService), new(mocks.MockRulebookStore), alignment)
	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/areas/sync", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNotifyPeopleEndpoint(t *testing.T) {
	alignment := new(mocks.MockAlignmentService)
	alignment.On("NotifyMissingPeople", mock.Anything, "home-1").Return([]string{"Rui"}, nil)

	r := setupRouter(new(mocks.MockPipelineService), new(mocks.MockRulebookStore), alignment)
	w := doRequest(r, http.MethodPost, "/api/v1/rulebooks/home-1/people/notify", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notified":["Rui"]`)
}

func TestHealthEndpoints(t *testing.T) {
	r := setupRouter(new(mocks.MockPipelineService), new(mocks.MockRulebookStore), new(mocks.MockAlignmentService))

	w := doRequest(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalErrorIsOpaque(t *testing.T) {
	store := new(mocks.MockRulebookStore)
	store.On("Read", mock.Anything, "home-1").Return(nil, errors.New("pq: ssl handshake failed"))

	r := setupRouter(new(mocks.MockPipelineService), store, new(mocks.MockAlignmentService))
	w := doRequest(r, http.MethodGet, "/api/v1/rulebooks/home-1", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "ssl handshake")
}
