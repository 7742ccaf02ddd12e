package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/repository"
)

type memoryActivityRepo struct {
	entries    []models.ActivityLog
	lastFilter repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.lastFilter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksContactDetails(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	ctx := middleware.ContextWithCorrelation(context.Background(), "req-42")
	entry, err := svc.Record(ctx, ActivityEntry{
		Action:     "Created",
		EntityType: "Student",
		EntityKey:  "S1",
		Metadata: map[string]interface{}{
			"email": "ada@example.com",
			"phone": "555-0101",
			"field": "first_name",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "created", entry.Action)
	require.Equal(t, "student", entry.EntityType)
	require.Equal(t, "req-42", entry.CorrelationID)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["phone"])
	require.Equal(t, "first_name", entry.Metadata["field"])

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "student"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestActivityServiceListPaginates(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{Action: ActionCreated, EntityType: "grade", EntityKey: "1"})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), dto.ActivityListRequest{PageSize: 500, EntityType: " Grade "})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Equal(t, 1, result.Pagination.Page)
	require.Equal(t, maxActivityPageSize, result.Pagination.PageSize)
	require.Equal(t, int64(3), result.Pagination.TotalItems)
	require.Equal(t, 1, result.Pagination.TotalPages)
	require.Equal(t, "grade", repo.lastFilter.EntityType)
}
