package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// mockEvalSamplesService mocks EvalSamplesService for handler tests.
type mockEvalSamplesService struct {
	compareFunc func(ctx context.Context, ids []uuid.UUID) (*models.CompareSamplesResponse, error)
	getFunc     func(ctx context.Context, id uuid.UUID) (*models.SampleDetail, error)
}

func (m *mockEvalSamplesService) ListSamples(context.Context, uuid.UUID, *models.ListEvalSamplesFilters) (*models.ListEvalSamplesResponse, error) {
	return &models.ListEvalSamplesResponse{Items: []models.EvalSample{}}, nil
}

func (m *mockEvalSamplesService) GetSample(ctx context.Context, id uuid.UUID) (*models.SampleDetail, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}

	return &models.SampleDetail{}, nil
}

func (m *mockEvalSamplesService) CompareSamples(ctx context.Context, ids []uuid.UUID) (*models.CompareSamplesResponse, error) {
	if m.compareFunc != nil {
		return m.compareFunc(ctx, ids)
	}

	return &models.CompareSamplesResponse{}, nil
}

func TestEvalSamplesHandler_Compare(t *testing.T) {
	t.Run("success returns samples in order", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		mock := &mockEvalSamplesService{
			compareFunc: func(_ context.Context, ids []uuid.UUID) (*models.CompareSamplesResponse, error) {
				assert.Equal(t, []uuid.UUID{a, b}, ids)

				return &models.CompareSamplesResponse{
					Samples: []models.EvalSample{{ID: a}, {ID: b}},
				}, nil
			},
		}
		h := NewEvalSamplesHandler(mock)

		url := fmt.Sprintf("http://test/api/samples/compare?ids=%s&ids=%s", a, b)
		req := httptest.NewRequest(http.MethodGet, url, http.NoBody)
		rec := httptest.NewRecorder()

		h.Compare(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.CompareSamplesResponse

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Samples, 2)
		assert.Equal(t, a, resp.Samples[0].ID)
	})

	t.Run("invalid uuid returns bad request", func(t *testing.T) {
		h := NewEvalSamplesHandler(&mockEvalSamplesService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/api/samples/compare?ids=nope&ids=alsono", http.NoBody)
		rec := httptest.NewRecorder()

		h.Compare(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error maps to bad request", func(t *testing.T) {
		mock := &mockEvalSamplesService{
			compareFunc: func(context.Context, []uuid.UUID) (*models.CompareSamplesResponse, error) {
				return nil, apperrors.NewValidationError("ids", "at least 2 sample IDs required for comparison")
			},
		}
		h := NewEvalSamplesHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/api/samples/compare?ids="+uuid.NewString(), http.NoBody)
		rec := httptest.NewRecorder()

		h.Compare(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing sample maps to not found", func(t *testing.T) {
		mock := &mockEvalSamplesService{
			compareFunc: func(context.Context, []uuid.UUID) (*models.CompareSamplesResponse, error) {
				return nil, apperrors.NewNotFoundError("sample", "one or more samples not found")
			},
		}
		h := NewEvalSamplesHandler(mock)

		url := fmt.Sprintf("http://test/api/samples/compare?ids=%s&ids=%s", uuid.New(), uuid.New())
		req := httptest.NewRequest(http.MethodGet, url, http.NoBody)
		rec := httptest.NewRecorder()

		h.Compare(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEvalSamplesHandler_Get(t *testing.T) {
	t.Run("invalid uuid returns bad request", func(t *testing.T) {
		h := NewEvalSamplesHandler(&mockEvalSamplesService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/api/samples/not-a-uuid", http.NoBody)
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mock := &mockEvalSamplesService{
			getFunc: func(context.Context, uuid.UUID) (*models.SampleDetail, error) {
				return nil, apperrors.NewNotFoundError("sample", "sample not found")
			},
		}
		h := NewEvalSamplesHandler(mock)

		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "http://test/api/samples/"+id, http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
