package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when registering a username that already exists
	ErrUsernameTaken = errors.New("username already exists")
)

// Database defines the interface for all database operations.
// Every owned-content method filters on the caller's user id.
type Database interface {
	// Users
	CreateUser(ctx context.Context, username, email, name, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// Stories
	CreateStory(ctx context.Context, userID, prompt, title, text, imagePrompt string) (*Story, error)
	GetStory(ctx context.Context, id, userID string) (*Story, error)
	ListStoriesByUser(ctx context.Context, userID string) ([]Story, error)
	DeleteStory(ctx context.Context, id, userID string) error
	UpdateStoryImage(ctx context.Context, id, imageURL string) error
	UpdateStoryVideo(ctx context.Context, id, videoURL string) error

	// Adventures
	CreateAdventure(ctx context.Context, userID, prompt string) (*Adventure, error)
	GetAdventure(ctx context.Context, id, userID string) (*Adventure, error)
	ListAdventuresByUser(ctx context.Context, userID string) ([]Adventure, error)
	DeleteAdventure(ctx context.Context, id, userID string) error
	UpdateAdventureTitle(ctx context.Context, id, title string) error
	UpdateAdventureImage(ctx context.Context, id, imagePrompt, imageURL string) error

	// Segments
	AddSegment(ctx context.Context, adventureID, text string, choice *string) (*Segment, error)
	GetSegments(ctx context.Context, adventureID string) ([]Segment, error)

	// Instructions
	GetInstruction(ctx context.Context, userID string) (*Instruction, error)
	UpsertInstruction(ctx context.Context, userID, text, imageText string) (*Instruction, error)
	DeleteInstruction(ctx context.Context, userID string) error
}
