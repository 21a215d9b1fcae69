package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaltrace/viewer/internal/conversation"
	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

type mockEvalSamplesRepository struct {
	getByIDFunc  func(ctx context.Context, id uuid.UUID) (*models.EvalSample, error)
	getByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]models.EvalSample, error)
}

func (m *mockEvalSamplesRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EvalSample, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}

	return &models.EvalSample{ID: id}, nil
}

func (m *mockEvalSamplesRepository) ListByRun(context.Context, uuid.UUID, *models.ListEvalSamplesFilters) ([]models.EvalSample, error) {
	return []models.EvalSample{}, nil
}

func (m *mockEvalSamplesRepository) CountByRun(context.Context, uuid.UUID, *models.ListEvalSamplesFilters) (int64, error) {
	return 0, nil
}

func (m *mockEvalSamplesRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EvalSample, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}

	return nil, nil
}

func TestEvalSamplesService_GetSample(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies conversation into messages", func(t *testing.T) {
		id := uuid.New()
		repo := &mockEvalSamplesRepository{
			getByIDFunc: func(context.Context, uuid.UUID) (*models.EvalSample, error) {
				return &models.EvalSample{
					ID:           id,
					Conversation: json.RawMessage(`[{"role":"user","content":"hi"}]`),
				}, nil
			},
		}
		svc := NewEvalSamplesService(repo)

		detail, err := svc.GetSample(ctx, id)

		require.NoError(t, err)
		require.Len(t, detail.Messages, 1)
		assert.Equal(t, conversation.KindUser, detail.Messages[0].Kind)
		assert.Equal(t, id, detail.ID)
	})

	t.Run("unparseable conversation still returns the sample", func(t *testing.T) {
		repo := &mockEvalSamplesRepository{
			getByIDFunc: func(context.Context, uuid.UUID) (*models.EvalSample, error) {
				return &models.EvalSample{Conversation: json.RawMessage(`{"not":"array"}`)}, nil
			},
		}
		svc := NewEvalSamplesService(repo)

		detail, err := svc.GetSample(ctx, uuid.New())

		require.NoError(t, err)
		assert.Empty(t, detail.Messages)
	})

	t.Run("not found propagates", func(t *testing.T) {
		repo := &mockEvalSamplesRepository{
			getByIDFunc: func(context.Context, uuid.UUID) (*models.EvalSample, error) {
				return nil, apperrors.NewNotFoundError("sample", "sample not found")
			},
		}
		svc := NewEvalSamplesService(repo)

		_, err := svc.GetSample(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestEvalSamplesService_CompareSamples(t *testing.T) {
	ctx := context.Background()

	t.Run("fewer than two ids rejected", func(t *testing.T) {
		svc := NewEvalSamplesService(&mockEvalSamplesRepository{})

		_, err := svc.CompareSamples(ctx, []uuid.UUID{uuid.New()})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("more than four ids rejected", func(t *testing.T) {
		svc := NewEvalSamplesService(&mockEvalSamplesRepository{})

		ids := make([]uuid.UUID, 5)
		for i := range ids {
			ids[i] = uuid.New()
		}

		_, err := svc.CompareSamples(ctx, ids)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("missing sample yields not found", func(t *testing.T) {
		repo := &mockEvalSamplesRepository{
			getByIDsFunc: func(_ context.Context, ids []uuid.UUID) ([]models.EvalSample, error) {
				return []models.EvalSample{{ID: ids[0]}}, nil
			},
		}
		svc := NewEvalSamplesService(repo)

		_, err := svc.CompareSamples(ctx, []uuid.UUID{uuid.New(), uuid.New()})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("results follow request order", func(t *testing.T) {
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		repo := &mockEvalSamplesRepository{
			getByIDsFunc: func(context.Context, []uuid.UUID) ([]models.EvalSample, error) {
				// store returns rows in arbitrary order
				return []models.EvalSample{{ID: c}, {ID: a}, {ID: b}}, nil
			},
		}
		svc := NewEvalSamplesService(repo)

		result, err := svc.CompareSamples(ctx, []uuid.UUID{a, b, c})

		require.NoError(t, err)
		require.Len(t, result.Samples, 3)
		assert.Equal(t, a, result.Samples[0].ID)
		assert.Equal(t, b, result.Samples[1].ID)
		assert.Equal(t, c, result.Samples[2].ID)
	})
}
