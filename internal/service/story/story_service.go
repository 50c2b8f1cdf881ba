package story

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storytime/internal/app"
	"storytime/internal/config"
	"storytime/internal/logger"
	"storytime/internal/metrics"
	"storytime/internal/repository/db"
	"storytime/internal/service"
	"storytime/internal/service/ai"
	"storytime/internal/service/image"
	"storytime/internal/service/instruction"
	"storytime/internal/service/prompts"
	"storytime/internal/service/stream"
	"storytime/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StoryService handles bedtime story generation and the user's story collection
type StoryService struct {
	db           db.Database
	text         ai.TextGenerator
	video        ai.VideoGenerator
	store        storage.ObjectStore
	images       *image.ImageService
	instructions *instruction.InstructionService
	models       *config.ModelsConfig
	pollInterval time.Duration
}

// NewStoryService creates a new StoryService
func NewStoryService(config *app.Config) *StoryService {
	return &StoryService{
		db:           config.DB,
		text:         config.Text,
		video:        config.Video,
		store:        config.Store,
		images:       image.NewImageService(config),
		instructions: instruction.NewInstructionService(config.DB),
		models:       config.ModelsConfig(),
		pollInterval: config.AppConfig.AI.VideoPollInterval,
	}
}

// CreateStream generates a story for prompt and streams it to the caller.
// The story is stored once the text is complete, then illustrated.
func (s *StoryService) CreateStream(ctx context.Context, userID, prompt, model string) (<-chan stream.Event, error) {
	if model == "" {
		model = s.models.GetDefaultModel()
	} else if !s.models.IsValidModel(model) {
		return nil, fmt.Errorf("%w: %s", service.ErrInvalidModel, model)
	}

	instructionText, imageInstruction := s.instructions.Texts(ctx, userID)

	chunks, err := s.text.StreamJSON(ctx, ai.StructuredRequest{
		Model:      model,
		System:     prompts.StorySystemPrompt(instructionText),
		Prompt:     prompt,
		SchemaName: prompts.StorySchemaName,
		Schema:     prompts.StorySchema(),
		UserID:     userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start story generation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "model": model}).Debug("Started story stream")

	events, emitter := stream.New(ctx)

	go func() {
		defer emitter.Close()

		doc, usage, err := stream.Relay(ctx, chunks, emitter, stream.RelayOptions{EmitTitle: true})
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.WithError(err).WithField("user_id", userID).Error("Story stream failed")
				emitter.Error("Failed to generate story")
			}
			return
		}

		var out prompts.StoryOutput
		if err := json.Unmarshal([]byte(doc), &out); err != nil || out.Text == "" {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Story output is incomplete")
			emitter.Error("Failed to generate story")
			return
		}

		story, err := s.db.CreateStory(ctx, userID, prompt, out.Title, out.Text, out.ImagePrompt)
		if err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to save story")
			emitter.Error("Failed to save story")
			return
		}
		metrics.IncGenerations("story")

		fields := logrus.Fields{"story_id": story.ID, "user_id": userID}
		if usage != nil {
			fields["total_tokens"] = usage.TotalTokens
		}
		logger.Log.WithFields(fields).Info("Story generated")

		if !emitter.Emit(stream.Event{Type: stream.EventStoryID, Content: story.ID}) {
			return
		}

		if out.ImagePrompt == "" {
			return
		}

		picture, err := s.images.Illustrate(ctx, out.ImagePrompt, imageInstruction)
		if err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to illustrate story")
			emitter.Error("Failed to generate image")
			return
		}
		if err := s.db.UpdateStoryImage(ctx, story.ID, picture.URL); err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to save story image")
			s.images.Discard(context.WithoutCancel(ctx), picture)
			emitter.Error("Failed to save image")
			return
		}

		emitter.Emit(stream.Event{Type: stream.EventImage, Content: picture.URL})
	}()

	return events, nil
}

// List returns the user's stories, newest first
func (s *StoryService) List(ctx context.Context, userID string) ([]db.Story, error) {
	stories, err := s.db.ListStoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// Get returns one of the user's stories
func (s *StoryService) Get(ctx context.Context, userID, storyID string) (*db.Story, error) {
	story, err := s.db.GetStory(ctx, storyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// Delete removes one of the user's stories
func (s *StoryService) Delete(ctx context.Context, userID, storyID string) error {
	if err := s.db.DeleteStory(ctx, storyID, userID); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}

// CreateVideo animates the story's image prompt. Job progress is streamed
// while the provider renders; the finished video is stored on the story.
func (s *StoryService) CreateVideo(ctx context.Context, userID, storyID string) (<-chan stream.Event, error) {
	story, err := s.Get(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if story.ImagePrompt == "" {
		return nil, service.ErrNoImagePrompt
	}

	video, err := s.video.CreateVideo(ctx, story.ImagePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	fields := logrus.Fields{"story_id": story.ID, "video_id": video.ID}
	logger.Log.WithFields(fields).Info("Video generation started")

	events, emitter := stream.New(ctx)

	go func() {
		defer emitter.Close()

		video, err := s.waitForVideo(ctx, video, emitter)
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.WithError(err).WithFields(fields).Error("Video generation failed")
				emitter.Error("Failed to generate video")
			}
			return
		}

		data, err := s.video.DownloadVideo(ctx, video.ID)
		if err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to download video")
			emitter.Error("Failed to download video")
			return
		}

		key := fmt.Sprintf("videos/story-%s-%s.mp4", story.ID, uuid.New().String())
		url, err := s.store.Put(ctx, key, data, "video/mp4")
		if err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to upload video")
			emitter.Error("Failed to save video")
			return
		}

		if err := s.db.UpdateStoryVideo(ctx, story.ID, url); err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to save story video")
			if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
				logger.Log.WithError(err).WithField("key", key).Warn("Failed to delete orphaned video")
			}
			emitter.Error("Failed to save video")
			return
		}
		metrics.IncGenerations("video")
		logger.Log.WithFields(fields).Info("Video stored")

		emitter.Emit(stream.Event{Type: stream.EventVideo, Content: url})
	}()

	return events, nil
}

// waitForVideo polls the job until it leaves the queued and in progress states
func (s *StoryService) waitForVideo(ctx context.Context, video *ai.Video, emitter *stream.Emitter) (*ai.Video, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for video.Pending() {
		if !emitter.Emit(stream.Event{Type: stream.EventProgress, Content: video.Progress}) {
			return nil, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		next, err := s.video.GetVideo(ctx, video.ID)
		if err != nil {
			return nil, err
		}
		video = next

		logger.Log.WithFields(logrus.Fields{
			"video_id": video.ID,
			"status":   video.Status,
			"progress": video.Progress,
		}).Debug("Video status")
	}

	if video.Status != ai.VideoCompleted {
		if video.Error != nil {
			return nil, fmt.Errorf("%w: video %s: %s", ai.ErrGenerationFailed, video.Status, video.Error.Message)
		}
		return nil, fmt.Errorf("%w: video %s", ai.ErrGenerationFailed, video.Status)
	}

	return video, nil
}
