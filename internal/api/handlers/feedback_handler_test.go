package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// mockFeedbackService mocks FeedbackService for handler tests.
type mockFeedbackService struct {
	createFunc func(ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	deleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockFeedbackService) ListFeedbackForSample(context.Context, uuid.UUID) ([]models.Feedback, error) {
	return []models.Feedback{}, nil
}

func (m *mockFeedbackService) CreateFeedback(ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, sampleID, req)
	}

	return &models.Feedback{SampleID: sampleID, FeedbackType: req.FeedbackType}, nil
}

func (m *mockFeedbackService) UpdateFeedback(context.Context, uuid.UUID, *models.UpdateFeedbackRequest) (*models.Feedback, error) {
	return &models.Feedback{}, nil
}

func (m *mockFeedbackService) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}

	return nil
}

func (m *mockFeedbackService) GetFeedbackStats(context.Context) (*models.FeedbackStats, error) {
	return &models.FeedbackStats{Total: 7, ByType: map[string]int64{"thumbs_up": 7}, ByRating: map[int]int64{}}, nil
}

func TestFeedbackHandler_Create(t *testing.T) {
	t.Run("success returns 201 with created feedback", func(t *testing.T) {
		h := NewFeedbackHandler(&mockFeedbackService{})

		sampleID := uuid.NewString()
		body := strings.NewReader(`{"feedback_type":"thumbs_up","rating":5}`)
		req := httptest.NewRequest(http.MethodPost, "http://test/api/feedback/sample/"+sampleID+"/feedback", body)
		req.SetPathValue("sampleId", sampleID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp models.Feedback

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "thumbs_up", resp.FeedbackType)
	})

	t.Run("invalid body returns bad request", func(t *testing.T) {
		h := NewFeedbackHandler(&mockFeedbackService{})

		sampleID := uuid.NewString()
		req := httptest.NewRequest(http.MethodPost, "http://test/api/feedback/sample/"+sampleID+"/feedback",
			strings.NewReader("{not json"))
		req.SetPathValue("sampleId", sampleID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid sample uuid returns bad request", func(t *testing.T) {
		h := NewFeedbackHandler(&mockFeedbackService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/api/feedback/sample/nope/feedback",
			strings.NewReader(`{"feedback_type":"x"}`))
		req.SetPathValue("sampleId", "nope")
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sample returns not found", func(t *testing.T) {
		mock := &mockFeedbackService{
			createFunc: func(context.Context, uuid.UUID, *models.CreateFeedbackRequest) (*models.Feedback, error) {
				return nil, apperrors.NewNotFoundError("sample", "sample not found")
			},
		}
		h := NewFeedbackHandler(mock)

		sampleID := uuid.NewString()
		req := httptest.NewRequest(http.MethodPost, "http://test/api/feedback/sample/"+sampleID+"/feedback",
			strings.NewReader(`{"feedback_type":"x"}`))
		req.SetPathValue("sampleId", sampleID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFeedbackHandler_Delete(t *testing.T) {
	t.Run("success returns 204", func(t *testing.T) {
		h := NewFeedbackHandler(&mockFeedbackService{})

		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodDelete, "http://test/api/feedback/"+id, http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing feedback returns 404", func(t *testing.T) {
		mock := &mockFeedbackService{
			deleteFunc: func(context.Context, uuid.UUID) error {
				return apperrors.NewNotFoundError("feedback", "feedback not found")
			},
		}
		h := NewFeedbackHandler(mock)

		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodDelete, "http://test/api/feedback/"+id, http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFeedbackHandler_Stats(t *testing.T) {
	h := NewFeedbackHandler(&mockFeedbackService{})

	req := httptest.NewRequest(http.MethodGet, "http://test/api/feedback/stats", http.NoBody)
	rec := httptest.NewRecorder()

	h.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats models.FeedbackStats

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.Total)
	assert.Equal(t, int64(7), stats.ByType["thumbs_up"])
}
