package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"storytime/internal/service"
	"storytime/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	audio := []byte("fake audio bytes")
	encoded := base64.StdEncoding.EncodeToString(audio)

	tests := []struct {
		name         string
		input        string
		wantFilename string
	}{
		{name: "plain base64", input: encoded, wantFilename: "recording.webm"},
		{name: "data URL", input: "data:audio/mp4;base64," + encoded, wantFilename: "recording.m4a"},
		{name: "data URL with codecs", input: "data:audio/webm;codecs=opus;base64," + encoded, wantFilename: "recording.webm"},
		{name: "unknown type", input: "data:audio/flac;base64," + encoded, wantFilename: "recording.webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAudio []byte
			var gotFilename string
			mock := &testutil.MockTranscriber{
				TranscribeFunc: func(ctx context.Context, a []byte, filename string) (string, error) {
					gotAudio, gotFilename = a, filename
					return "a dragon who loves pancakes", nil
				},
			}
			svc := &TranscribeService{transcriber: mock}

			text, err := svc.Transcribe(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, "a dragon who loves pancakes", text)
			assert.Equal(t, audio, gotAudio)
			assert.Equal(t, tt.wantFilename, gotFilename)
		})
	}
}

func TestTranscribe_InvalidAudio(t *testing.T) {
	inputs := map[string]string{
		"empty":           "",
		"not base64":      "%%%not-base64%%%",
		"data URL no b64": "data:audio/webm,abcd",
		"empty data URL":  "data:audio/webm;base64,",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			called := false
			mock := &testutil.MockTranscriber{
				TranscribeFunc: func(ctx context.Context, a []byte, filename string) (string, error) {
					called = true
					return "", nil
				},
			}
			svc := &TranscribeService{transcriber: mock}

			_, err := svc.Transcribe(context.Background(), input)

			assert.ErrorIs(t, err, service.ErrInvalidAudio)
			assert.False(t, called)
		})
	}
}

func TestTranscribe_ProviderError(t *testing.T) {
	mock := &testutil.MockTranscriber{
		TranscribeFunc: func(ctx context.Context, a []byte, filename string) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	}
	svc := NewTranscribeService(testutil.NewMockConfig())
	svc.transcriber = mock

	_, err := svc.Transcribe(context.Background(), base64.StdEncoding.EncodeToString([]byte("x")))

	assert.ErrorContains(t, err, "upstream unavailable")
}
