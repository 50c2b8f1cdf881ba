package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"storytime/internal/config"
	"storytime/internal/logger"
	"storytime/internal/metrics"

	"github.com/sirupsen/logrus"
)

// VideoClient drives the OpenAI videos endpoints
type VideoClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ VideoGenerator = (*VideoClient)(nil)

// NewVideoClient creates a video client from the AI configuration
func NewVideoClient(cfg config.AIConfig) *VideoClient {
	return &VideoClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.VideoModel,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// CreateVideo starts a video job for prompt
func (v *VideoClient) CreateVideo(ctx context.Context, prompt string) (*Video, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model", v.model); err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if err := form.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/videos", &body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	start := time.Now()
	var video Video
	if err := v.doJSON(req, &video); err != nil {
		metrics.ObserveAIRequest("video_create", v.model, "error", time.Since(start))
		return nil, err
	}
	metrics.ObserveAIRequest("video_create", v.model, "success", time.Since(start))

	logger.Log.WithFields(logrus.Fields{"video_id": video.ID, "status": video.Status}).Info("Video generation started")
	return &video, nil
}

// GetVideo returns the current state of a video job
func (v *VideoClient) GetVideo(ctx context.Context, id string) (*Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/videos/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	var video Video
	if err := v.doJSON(req, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// DownloadVideo fetches the rendered mp4 of a completed job
func (v *VideoClient) DownloadVideo(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/videos/"+id+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	start := time.Now()
	resp, err := v.do(req)
	if err != nil {
		metrics.ObserveAIRequest("video_download", v.model, "error", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveAIRequest("video_download", v.model, "error", time.Since(start))
		return nil, fmt.Errorf("%w: error reading video content: %v", ErrGenerationFailed, err)
	}
	metrics.ObserveAIRequest("video_download", v.model, "success", time.Since(start))

	logger.Log.WithFields(logrus.Fields{"video_id": id, "bytes": len(data)}).Info("Downloaded video content")
	return data, nil
}

func (v *VideoClient) doJSON(req *http.Request, out any) error {
	resp, err := v.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: error decoding response: %v", ErrGenerationFailed, err)
	}
	return nil
}

// do sends req and returns the response when the status is 2xx
func (v *VideoClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error sending request: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrGenerationFailed, resp.StatusCode, string(body))
	}

	return resp, nil
}
