package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/student-records-api/internal/models"
)

func TestActivityLogRepositoryFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	entries := []models.ActivityLog{
		{Action: "created", EntityType: "student", EntityKey: "S1", CreatedAt: base},
		{Action: "updated", EntityType: "student", EntityKey: "S1", CreatedAt: base.Add(time.Hour), Metadata: datatypes.JSONMap{"fields": []string{"email"}}},
		{Action: "created", EntityType: "grade", EntityKey: "1", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	all, total, err := repo.List(ctx, ActivityLogFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, "grade", all[0].EntityType)
	require.Equal(t, "created", all[2].Action)

	students, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "student", EntityKey: "S1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "updated", students[0].Action)

	since := base.Add(30 * time.Minute)
	recent, total, err := repo.List(ctx, ActivityLogFilter{Since: &since})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, recent, 2)

	page, total, err := repo.List(ctx, ActivityLogFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, "S1", page[0].EntityKey)
}
