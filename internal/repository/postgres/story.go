package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storytime/internal/logger"
	"storytime/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const storyColumns = `id, user_id, prompt, title, text, image_prompt, image_url, video_url, created_at`

// CreateStory inserts a fully generated story
func (p *PostgresDB) CreateStory(ctx context.Context, userID, prompt, title, text, imagePrompt string) (*db.Story, error) {
	story := db.Story{
		ID:          uuid.New().String(),
		UserID:      userID,
		Prompt:      prompt,
		Title:       title,
		Text:        text,
		ImagePrompt: imagePrompt,
	}

	query := `
	INSERT INTO stories (id, user_id, prompt, title, text, image_prompt)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
	`

	err := p.conn.QueryRowContext(ctx, query, story.ID, userID, prompt, title, text, imagePrompt).Scan(&story.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating story: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"story_id": story.ID, "user_id": userID}).Info("Created new story")

	return &story, nil
}

// GetStory retrieves a story owned by userID
func (p *PostgresDB) GetStory(ctx context.Context, id, userID string) (*db.Story, error) {
	if !validID(id) {
		return nil, db.ErrNotFound
	}

	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1 AND user_id = $2`

	var story db.Story
	err := p.conn.QueryRowContext(ctx, query, id, userID).Scan(storyFields(&story)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving story: %w", err)
	}

	return &story, nil
}

// ListStoriesByUser retrieves all stories for a user, newest first
func (p *PostgresDB) ListStoriesByUser(ctx context.Context, userID string) ([]db.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := p.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying stories: %w", err)
	}
	defer rows.Close()

	stories := []db.Story{}
	for rows.Next() {
		var story db.Story
		if err := rows.Scan(storyFields(&story)...); err != nil {
			return nil, fmt.Errorf("error scanning story: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stories: %w", err)
	}

	return stories, nil
}

// DeleteStory removes a story owned by userID
func (p *PostgresDB) DeleteStory(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return db.ErrNotFound
	}

	res, err := p.conn.ExecContext(ctx, `DELETE FROM stories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting story: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"story_id": id, "user_id": userID}).Info("Deleted story")
	return nil
}

// UpdateStoryImage stores the illustration URL of a story
func (p *PostgresDB) UpdateStoryImage(ctx context.Context, id, imageURL string) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE stories SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("error updating story image: %w", err)
	}
	return checkAffected(res)
}

// UpdateStoryVideo stores the video URL of a story
func (p *PostgresDB) UpdateStoryVideo(ctx context.Context, id, videoURL string) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE stories SET video_url = $2 WHERE id = $1`, id, videoURL)
	if err != nil {
		return fmt.Errorf("error updating story video: %w", err)
	}
	return checkAffected(res)
}

func storyFields(s *db.Story) []any {
	return []any{&s.ID, &s.UserID, &s.Prompt, &s.Title, &s.Text, &s.ImagePrompt, &s.ImageURL, &s.VideoURL, &s.CreatedAt}
}
