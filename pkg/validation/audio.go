package validation

import (
	"errors"
	"fmt"
)

// MaxAudioLength is the largest base64 payload accepted, about 25 MB of audio
const MaxAudioLength = 34 << 20

// ValidateAudio checks the size of a base64 recording before it is decoded
func ValidateAudio(audio string) error {
	if audio == "" {
		return errors.New("audio cannot be empty")
	}
	if len(audio) > MaxAudioLength {
		return fmt.Errorf("audio must be at most %d bytes of base64, got %d", MaxAudioLength, len(audio))
	}
	return nil
}
