package library

import (
	"context"
	"errors"
	"testing"

	"storytime/internal/repository/db"
	"storytime/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := testutil.NewMockConfig()
	mockDB := cfg.DB.(*testutil.MockDatabase)
	mockDB.ListStoriesByUserFunc = func(ctx context.Context, userID string) ([]db.Story, error) {
		assert.Equal(t, "user-1", userID)
		return []db.Story{{ID: "s1"}}, nil
	}
	mockDB.ListAdventuresByUserFunc = func(ctx context.Context, userID string) ([]db.Adventure, error) {
		return []db.Adventure{{ID: "a2"}, {ID: "a1"}}, nil
	}

	lib, err := NewLibraryService(cfg).Load(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, lib.Stories, 1)
	assert.Len(t, lib.Adventures, 2)
}

func TestLoad_Error(t *testing.T) {
	cfg := testutil.NewMockConfig()
	mockDB := cfg.DB.(*testutil.MockDatabase)
	mockDB.ListStoriesByUserFunc = func(ctx context.Context, userID string) ([]db.Story, error) {
		return []db.Story{}, nil
	}
	mockDB.ListAdventuresByUserFunc = func(ctx context.Context, userID string) ([]db.Adventure, error) {
		return nil, errors.New("db down")
	}

	_, err := NewLibraryService(cfg).Load(context.Background(), "user-1")

	assert.ErrorContains(t, err, "db down")
}
