// Package service holds the errors shared by the domain services.
package service

import "errors"

var (
	// ErrAdventureComplete is returned when a story choice is made after the conclusion
	ErrAdventureComplete = errors.New("adventure is already complete")
	// ErrInvalidCredentials is returned for an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAudio is returned when uploaded audio cannot be decoded
	ErrInvalidAudio = errors.New("invalid audio")
	// ErrNoImagePrompt is returned when a story has nothing to animate
	ErrNoImagePrompt = errors.New("story has no image prompt")
	// ErrInvalidModel is returned when a request names a model that is not configured
	ErrInvalidModel = errors.New("model is not available")
)
