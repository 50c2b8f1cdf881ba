package library

import (
	"context"
	"fmt"

	"storytime/internal/app"
	"storytime/internal/repository/db"

	"golang.org/x/sync/errgroup"
)

// Library is everything a user has created, newest first
type Library struct {
	Stories    []db.Story     `json:"stories"`
	Adventures []db.Adventure `json:"adventures"`
}

// LibraryService loads the sidebar and library listing
type LibraryService struct {
	db db.Database
}

// NewLibraryService creates a new LibraryService
func NewLibraryService(config *app.Config) *LibraryService {
	return &LibraryService{db: config.DB}
}

// Load fetches the user's stories and adventures concurrently
func (s *LibraryService) Load(ctx context.Context, userID string) (*Library, error) {
	var lib Library
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stories, err := s.db.ListStoriesByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list stories: %w", err)
		}
		lib.Stories = stories
		return nil
	})
	g.Go(func() error {
		adventures, err := s.db.ListAdventuresByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list adventures: %w", err)
		}
		lib.Adventures = adventures
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &lib, nil
}
