package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storytime/internal/config"
	"storytime/internal/logger"
	"storytime/internal/metrics"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Client talks to an OpenAI compatible API for text, images and transcription
type Client struct {
	client             *openai.Client
	imageModel         string
	imageSize          string
	transcriptionModel string
}

// Ensure Client implements the generation interfaces
var (
	_ TextGenerator  = (*Client)(nil)
	_ ImageGenerator = (*Client)(nil)
	_ Transcriber    = (*Client)(nil)
)

// NewClient creates a client from the AI configuration
func NewClient(cfg config.AIConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		client:             openai.NewClientWithConfig(clientConfig),
		imageModel:         cfg.ImageModel,
		imageSize:          cfg.ImageSize,
		transcriptionModel: cfg.TranscriptionModel,
	}
}

// StreamJSON streams a completion constrained by a strict JSON schema
func (c *Client) StreamJSON(ctx context.Context, req StructuredRequest) (<-chan StreamChunk, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	request := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   true,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		},
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         req.Model,
		"schema":        req.SchemaName,
		"prompt_length": len(req.Prompt),
		"user_id":       req.UserID,
	}).Info("Calling OpenAI API (streaming)")

	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		metrics.ObserveAIRequest(req.SchemaName, req.Model, "error_stream_init", time.Since(start))
		return nil, fmt.Errorf("%w: error creating stream: %v", ErrGenerationFailed, err)
	}

	chunks := make(chan StreamChunk)

	go func() {
		defer stream.Close()
		defer close(chunks)

		send := func(chunk StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var received int
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				metrics.ObserveAIRequest(req.SchemaName, req.Model, "error_stream_read", time.Since(start))
				logger.Log.WithError(err).WithField("user_id", req.UserID).Error("Error reading OpenAI stream")
				send(StreamChunk{Err: fmt.Errorf("%w: error reading stream: %v", ErrGenerationFailed, err)})
				return
			}

			if response.Usage != nil && response.Usage.TotalTokens > 0 {
				usage := &Usage{
					PromptTokens:     response.Usage.PromptTokens,
					CompletionTokens: response.Usage.CompletionTokens,
					TotalTokens:      response.Usage.TotalTokens,
				}
				metrics.AddTokens(req.Model, usage.PromptTokens, usage.CompletionTokens)
				if !send(StreamChunk{Usage: usage}) {
					return
				}
			}

			if len(response.Choices) > 0 && response.Choices[0].Delta.Content != "" {
				received += len(response.Choices[0].Delta.Content)
				if !send(StreamChunk{Content: response.Choices[0].Delta.Content}) {
					return
				}
			}
		}

		duration := time.Since(start)
		metrics.ObserveAIRequest(req.SchemaName, req.Model, "success", duration)
		logger.Log.WithFields(logrus.Fields{
			"model":       req.Model,
			"schema":      req.SchemaName,
			"bytes":       received,
			"duration_ms": duration.Milliseconds(),
		}).Info("OpenAI stream completed")
	}()

	return chunks, nil
}

// GenerateImage renders a single image and returns its decoded bytes
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	logger.Log.WithFields(logrus.Fields{"model": c.imageModel, "size": c.imageSize}).Info("Generating image")

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		Size:           c.imageSize,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		metrics.ObserveAIRequest("image", c.imageModel, "error", time.Since(start))
		return nil, fmt.Errorf("%w: image request: %v", ErrGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		metrics.ObserveAIRequest("image", c.imageModel, "error_empty_response", time.Since(start))
		return nil, fmt.Errorf("%w: empty image response", ErrGenerationFailed)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		metrics.ObserveAIRequest("image", c.imageModel, "error_decode", time.Since(start))
		return nil, fmt.Errorf("%w: decode image: %v", ErrGenerationFailed, err)
	}

	metrics.ObserveAIRequest("image", c.imageModel, "success", time.Since(start))
	return data, nil
}

// Transcribe sends recorded audio to the speech-to-text model
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		metrics.ObserveAIRequest("transcription", c.transcriptionModel, "error", time.Since(start))
		return "", fmt.Errorf("%w: transcription request: %v", ErrGenerationFailed, err)
	}

	metrics.ObserveAIRequest("transcription", c.transcriptionModel, "success", time.Since(start))
	logger.Log.WithField("text_length", len(resp.Text)).Debug("Transcribed audio")
	return resp.Text, nil
}
