package image

import (
	"context"
	"fmt"

	"storytime/internal/app"
	"storytime/internal/logger"
	"storytime/internal/metrics"
	"storytime/internal/service/ai"
	"storytime/internal/service/prompts"
	"storytime/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Object key prefixes in the store
const (
	illustrationPrefix = "images/"
	coloringPrefix     = "coloring/"
)

// Picture is a generated image that has been uploaded
type Picture struct {
	Key string
	URL string
}

// ImageService generates pictures and uploads them to the object store
type ImageService struct {
	images ai.ImageGenerator
	store  storage.ObjectStore
}

// NewImageService creates a new ImageService
func NewImageService(config *app.Config) *ImageService {
	return &ImageService{
		images: config.Images,
		store:  config.Store,
	}
}

// Illustrate draws a story or adventure scene in the bedtime style.
// imageInstruction is the user's saved style guidance and may be empty.
func (s *ImageService) Illustrate(ctx context.Context, scene, imageInstruction string) (*Picture, error) {
	picture, err := s.generate(ctx, prompts.IllustrationPrompt(scene, imageInstruction), illustrationPrefix)
	if err != nil {
		return nil, err
	}
	metrics.IncGenerations("illustration")
	return picture, nil
}

// ColoringPage draws black and white line art of subject
func (s *ImageService) ColoringPage(ctx context.Context, subject string) (*Picture, error) {
	picture, err := s.generate(ctx, prompts.ColoringPrompt(subject), coloringPrefix)
	if err != nil {
		return nil, err
	}
	metrics.IncGenerations("coloring")
	return picture, nil
}

// Discard removes an uploaded picture whose reference could not be saved
func (s *ImageService) Discard(ctx context.Context, picture *Picture) {
	if err := s.store.Delete(ctx, picture.Key); err != nil {
		logger.Log.WithError(err).WithField("key", picture.Key).Warn("Failed to delete orphaned image")
	}
}

func (s *ImageService) generate(ctx context.Context, prompt, prefix string) (*Picture, error) {
	data, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	key := prefix + uuid.New().String() + ".png"
	url, err := s.store.Put(ctx, key, data, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Info("Stored generated image")

	return &Picture{Key: key, URL: url}, nil
}
