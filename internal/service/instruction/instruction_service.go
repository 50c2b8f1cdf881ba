package instruction

import (
	"context"
	"errors"
	"fmt"

	"storytime/internal/logger"
	"storytime/internal/repository/db"
)

// InstructionService manages the per-user guidance injected into prompts
type InstructionService struct {
	db db.Database
}

// NewInstructionService creates a new InstructionService
func NewInstructionService(database db.Database) *InstructionService {
	return &InstructionService{db: database}
}

// Get returns the user's instruction, or nil when none is saved
func (s *InstructionService) Get(ctx context.Context, userID string) (*db.Instruction, error) {
	in, err := s.db.GetInstruction(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get instruction: %w", err)
	}
	return in, nil
}

// Upsert saves the user's story and image guidance
func (s *InstructionService) Upsert(ctx context.Context, userID, text, imageText string) (*db.Instruction, error) {
	in, err := s.db.UpsertInstruction(ctx, userID, text, imageText)
	if err != nil {
		return nil, fmt.Errorf("failed to save instruction: %w", err)
	}
	return in, nil
}

// Delete removes the user's instruction
func (s *InstructionService) Delete(ctx context.Context, userID string) error {
	if err := s.db.DeleteInstruction(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete instruction: %w", err)
	}
	return nil
}

// Texts returns the story and image guidance for prompt building.
// A lookup failure is logged and treated as no guidance.
func (s *InstructionService) Texts(ctx context.Context, userID string) (text, imageText string) {
	in, err := s.Get(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Generating without instruction")
		return "", ""
	}
	if in == nil {
		return "", ""
	}
	return in.Text, in.ImageText
}
