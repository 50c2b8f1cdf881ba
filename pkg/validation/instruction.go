package validation

import (
	"fmt"
	"unicode/utf8"
)

// MaxInstructionLength limits each instruction field
const MaxInstructionLength = 4000

// InstructionRequestValidator validates the user's saved guidance
type InstructionRequestValidator struct{}

// NewInstructionRequestValidator creates a new InstructionRequestValidator
func NewInstructionRequestValidator() *InstructionRequestValidator {
	return &InstructionRequestValidator{}
}

// ValidateInstructionRequest validates story and image guidance. Both may be empty.
func (v *InstructionRequestValidator) ValidateInstructionRequest(text, imageText string) error {
	if n := utf8.RuneCountInString(text); n > MaxInstructionLength {
		return fmt.Errorf("text must be at most %d characters long, got %d", MaxInstructionLength, n)
	}
	if n := utf8.RuneCountInString(imageText); n > MaxInstructionLength {
		return fmt.Errorf("imageText must be at most %d characters long, got %d", MaxInstructionLength, n)
	}
	return nil
}
