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

const adventureColumns = `id, user_id, prompt, title, image_prompt, image_url, created_at`

// CreateAdventure inserts a new adventure without segments
func (p *PostgresDB) CreateAdventure(ctx context.Context, userID, prompt string) (*db.Adventure, error) {
	adventure := db.Adventure{
		ID:     uuid.New().String(),
		UserID: userID,
		Prompt: prompt,
	}

	query := `
	INSERT INTO adventures (id, user_id, prompt)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`

	if err := p.conn.QueryRowContext(ctx, query, adventure.ID, userID, prompt).Scan(&adventure.CreatedAt); err != nil {
		return nil, fmt.Errorf("error creating adventure: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"adventure_id": adventure.ID, "user_id": userID}).Info("Created new adventure")

	return &adventure, nil
}

// GetAdventure retrieves an adventure owned by userID. Segments are not loaded.
func (p *PostgresDB) GetAdventure(ctx context.Context, id, userID string) (*db.Adventure, error) {
	if !validID(id) {
		return nil, db.ErrNotFound
	}

	query := `SELECT ` + adventureColumns + ` FROM adventures WHERE id = $1 AND user_id = $2`

	var adventure db.Adventure
	err := p.conn.QueryRowContext(ctx, query, id, userID).Scan(adventureFields(&adventure)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving adventure: %w", err)
	}

	return &adventure, nil
}

// ListAdventuresByUser retrieves all adventures for a user, newest first
func (p *PostgresDB) ListAdventuresByUser(ctx context.Context, userID string) ([]db.Adventure, error) {
	query := `SELECT ` + adventureColumns + ` FROM adventures WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := p.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying adventures: %w", err)
	}
	defer rows.Close()

	adventures := []db.Adventure{}
	for rows.Next() {
		var adventure db.Adventure
		if err := rows.Scan(adventureFields(&adventure)...); err != nil {
			return nil, fmt.Errorf("error scanning adventure: %w", err)
		}
		adventures = append(adventures, adventure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adventures: %w", err)
	}

	return adventures, nil
}

// DeleteAdventure removes an adventure and its segments
func (p *PostgresDB) DeleteAdventure(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return db.ErrNotFound
	}

	res, err := p.conn.ExecContext(ctx, `DELETE FROM adventures WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting adventure: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"adventure_id": id, "user_id": userID}).Info("Deleted adventure")
	return nil
}

// UpdateAdventureTitle sets the title generated with the first segment
func (p *PostgresDB) UpdateAdventureTitle(ctx context.Context, id, title string) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE adventures SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return fmt.Errorf("error updating adventure title: %w", err)
	}
	return checkAffected(res)
}

// UpdateAdventureImage stores the chosen closing scene and its illustration
func (p *PostgresDB) UpdateAdventureImage(ctx context.Context, id, imagePrompt, imageURL string) error {
	res, err := p.conn.ExecContext(ctx,
		`UPDATE adventures SET image_prompt = $2, image_url = $3 WHERE id = $1`,
		id, imagePrompt, imageURL,
	)
	if err != nil {
		return fmt.Errorf("error updating adventure image: %w", err)
	}
	return checkAffected(res)
}

// AddSegment appends a segment at the next position of the adventure
func (p *PostgresDB) AddSegment(ctx context.Context, adventureID, text string, choice *string) (*db.Segment, error) {
	segment := db.Segment{
		ID:          uuid.New().String(),
		AdventureID: adventureID,
		Text:        text,
		Choice:      choice,
	}

	query := `
	INSERT INTO adventure_segments (id, adventure_id, position, text, choice)
	VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM adventure_segments WHERE adventure_id = $2), $3, $4)
	RETURNING position, created_at
	`

	err := p.conn.QueryRowContext(ctx, query, segment.ID, adventureID, text, choice).Scan(&segment.Position, &segment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding segment: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"adventure_id": adventureID, "position": segment.Position}).Debug("Added adventure segment")

	return &segment, nil
}

// GetSegments returns the segments of an adventure in insertion order
func (p *PostgresDB) GetSegments(ctx context.Context, adventureID string) ([]db.Segment, error) {
	if !validID(adventureID) {
		return []db.Segment{}, nil
	}

	query := `
	SELECT id, adventure_id, position, text, choice, created_at
	FROM adventure_segments
	WHERE adventure_id = $1
	ORDER BY position ASC
	`

	rows, err := p.conn.QueryContext(ctx, query, adventureID)
	if err != nil {
		return nil, fmt.Errorf("error querying segments: %w", err)
	}
	defer rows.Close()

	segments := []db.Segment{}
	for rows.Next() {
		var s db.Segment
		if err := rows.Scan(&s.ID, &s.AdventureID, &s.Position, &s.Text, &s.Choice, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning segment: %w", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}

	return segments, nil
}

func adventureFields(a *db.Adventure) []any {
	return []any{&a.ID, &a.UserID, &a.Prompt, &a.Title, &a.ImagePrompt, &a.ImageURL, &a.CreatedAt}
}
