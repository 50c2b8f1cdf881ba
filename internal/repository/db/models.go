package db

import "time"

// User represents a user in the database
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Story represents a generated bedtime story
type Story struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Prompt      string    `json:"prompt"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	ImagePrompt string    `json:"imagePrompt"`
	ImageURL    *string   `json:"imageUrl"`
	VideoURL    *string   `json:"videoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Adventure represents an interactive choose-your-own-adventure story.
// Segments is only populated by single-adventure reads.
type Adventure struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Prompt      string    `json:"prompt"`
	Title       string    `json:"title"`
	ImagePrompt *string   `json:"imagePrompt"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Segments    []Segment `json:"segments,omitempty"`
}

// Segment is one appended piece of adventure narrative
type Segment struct {
	ID          string    `json:"id"`
	AdventureID string    `json:"adventureId"`
	Position    int       `json:"position"`
	Text        string    `json:"text"`
	Choice      *string   `json:"choice"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Instruction holds a user's custom guidance for story and image generation
type Instruction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	ImageText string    `json:"imageText"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
