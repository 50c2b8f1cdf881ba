package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storytime/internal/logger"
	"storytime/internal/repository/db"

	"github.com/google/uuid"
)

// GetInstruction returns the user's instruction or db.ErrNotFound
func (p *PostgresDB) GetInstruction(ctx context.Context, userID string) (*db.Instruction, error) {
	query := `
	SELECT id, user_id, text, image_text, created_at, updated_at
	FROM instructions
	WHERE user_id = $1
	`

	var in db.Instruction
	err := p.conn.QueryRowContext(ctx, query, userID).Scan(&in.ID, &in.UserID, &in.Text, &in.ImageText, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving instruction: %w", err)
	}

	return &in, nil
}

// UpsertInstruction creates or replaces the user's instruction
func (p *PostgresDB) UpsertInstruction(ctx context.Context, userID, text, imageText string) (*db.Instruction, error) {
	query := `
	INSERT INTO instructions (id, user_id, text, image_text)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id) DO UPDATE
	SET text = EXCLUDED.text, image_text = EXCLUDED.image_text, updated_at = NOW()
	RETURNING id, user_id, text, image_text, created_at, updated_at
	`

	var in db.Instruction
	err := p.conn.QueryRowContext(ctx, query, uuid.New().String(), userID, text, imageText).
		Scan(&in.ID, &in.UserID, &in.Text, &in.ImageText, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error upserting instruction: %w", err)
	}

	logger.Log.WithField("user_id", userID).Info("Saved instruction")

	return &in, nil
}

// DeleteInstruction removes the user's instruction. Deleting a missing instruction is not an error.
func (p *PostgresDB) DeleteInstruction(ctx context.Context, userID string) error {
	if _, err := p.conn.ExecContext(ctx, `DELETE FROM instructions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting instruction: %w", err)
	}
	return nil
}
