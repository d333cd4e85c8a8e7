package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

func TestSQLiteQueryLog(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteQueryLogRepository(filepath.Join(t.TempDir(), "history.db"), 2)
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"805015", "805017", "3222 3390 07"} {
		require.NoError(t, repo.SaveQuery(ctx, entity.QueryLogEntry{
			ID:        uuid.New().String(),
			UserID:    42,
			Username:  "ivan",
			Text:      text,
			Found:     1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.SaveQuery(ctx, entity.QueryLogEntry{
		ID: uuid.New().String(), UserID: 7, Text: "RC1206JR-076R8L", Missing: 1, Timestamp: base,
	}))

	history, err := repo.GetHistory(ctx, 42, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "805017", history[0].Text)
	assert.Equal(t, "3222 3390 07", history[1].Text)

	history, err = repo.GetHistory(ctx, 42, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "3222 3390 07", history[0].Text)

	require.NoError(t, repo.ClearHistory(ctx, 42))
	history, err = repo.GetHistory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	other, err := repo.GetHistory(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 1, other[0].Missing)
}

func TestNewSQLiteQueryLogRepository_Validation(t *testing.T) {
	_, err := NewSQLiteQueryLogRepository("", 10)
	assert.Error(t, err)

	_, err = NewSQLiteQueryLogRepository(filepath.Join(t.TempDir(), "h.db"), 0)
	assert.Error(t, err)
}
