package ai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrGenerationFailed wraps every failure reported by a generation provider
var ErrGenerationFailed = errors.New("generation failed")

// StructuredRequest asks the model for a JSON object matching Schema
type StructuredRequest struct {
	Model      string
	System     string
	Prompt     string
	SchemaName string
	Schema     *jsonschema.Definition
	UserID     string
}

// Usage holds token counts reported at the end of a stream
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamChunk is one piece of a streamed completion. Exactly one field is set.
type StreamChunk struct {
	Content string
	Usage   *Usage
	Err     error
}

// TextGenerator streams structured completions
type TextGenerator interface {
	// StreamJSON starts a streamed completion. The channel is closed when the
	// stream ends; a failure mid-stream arrives as a chunk with Err set.
	StreamJSON(ctx context.Context, req StructuredRequest) (<-chan StreamChunk, error)
}

// ImageGenerator produces PNG images from a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Transcriber converts recorded speech into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Video is the state of an asynchronous video job
type Video struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Video job states
const (
	VideoQueued     = "queued"
	VideoInProgress = "in_progress"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// Pending reports whether the job has not finished yet
func (v *Video) Pending() bool {
	return v.Status == VideoQueued || v.Status == VideoInProgress
}

// VideoGenerator drives asynchronous video jobs
type VideoGenerator interface {
	CreateVideo(ctx context.Context, prompt string) (*Video, error)
	GetVideo(ctx context.Context, id string) (*Video, error)
	DownloadVideo(ctx context.Context, id string) ([]byte, error)
}
