package transcribe

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"storytime/internal/app"
	"storytime/internal/logger"
	"storytime/internal/metrics"
	"storytime/internal/service"
	"storytime/internal/service/ai"

	"github.com/sirupsen/logrus"
)

const defaultFilename = "recording.webm"

// file extensions the transcription API recognises, by MIME type
var extensions = map[string]string{
	"audio/webm":  "webm",
	"audio/ogg":   "ogg",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/mp4":   "m4a",
	"audio/m4a":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
}

// TranscribeService turns recorded prompts into text
type TranscribeService struct {
	transcriber ai.Transcriber
}

// NewTranscribeService creates a new TranscribeService
func NewTranscribeService(config *app.Config) *TranscribeService {
	return &TranscribeService{transcriber: config.Transcriber}
}

// Transcribe decodes base64 audio, optionally given as a data URL, and
// returns the spoken text
func (s *TranscribeService) Transcribe(ctx context.Context, encoded string) (string, error) {
	audio, filename, err := decodeAudio(encoded)
	if err != nil {
		return "", err
	}

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	metrics.IncGenerations("transcription")

	logger.Log.WithFields(logrus.Fields{"bytes": len(audio), "chars": len(text)}).Debug("Transcribed audio")

	return text, nil
}

// decodeAudio returns the audio bytes and a filename matching their type
func decodeAudio(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	filename := defaultFilename

	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: unsupported data URL", service.ErrInvalidAudio)
		}
		mime, _, _ := strings.Cut(header, ";")
		if ext, ok := extensions[mime]; ok {
			filename = "recording." + ext
		}
		encoded = payload
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", service.ErrInvalidAudio, err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("%w: empty recording", service.ErrInvalidAudio)
	}
	return audio, filename, nil
}
