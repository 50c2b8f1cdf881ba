package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length limits for free text sent to the generators
const (
	MaxPromptLength = 2000
	MaxChoiceLength = 1000
)

var choiceTypes = map[string]bool{
	"story": true,
	"image": true,
}

// StoryRequestValidator validates story, adventure and coloring requests
type StoryRequestValidator struct{}

// NewStoryRequestValidator creates a new StoryRequestValidator
func NewStoryRequestValidator() *StoryRequestValidator {
	return &StoryRequestValidator{}
}

// ValidatePrompt validates the inspiration for a story, adventure or picture
func (v *StoryRequestValidator) ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt cannot be empty")
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return fmt.Errorf("prompt must be at most %d characters long, got %d", MaxPromptLength, n)
	}
	return nil
}

// ValidateChoice validates the reader's adventure choice and its type.
// An empty choice type means "story".
func (v *StoryRequestValidator) ValidateChoice(choice, choiceType string) error {
	if strings.TrimSpace(choice) == "" {
		return errors.New("choice cannot be empty")
	}
	if n := utf8.RuneCountInString(choice); n > MaxChoiceLength {
		return fmt.Errorf("choice must be at most %d characters long, got %d", MaxChoiceLength, n)
	}
	if choiceType != "" && !choiceTypes[choiceType] {
		return fmt.Errorf("choiceType must be one of: story, image; got %s", choiceType)
	}
	return nil
}
