package adventure

import (
	"context"
	"encoding/json"
	"fmt"

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

	"github.com/sirupsen/logrus"
)

// AdventureService runs choose your own adventure stories
type AdventureService struct {
	db            db.Database
	text          ai.TextGenerator
	images        *image.ImageService
	instructions  *instruction.InstructionService
	models        *config.ModelsConfig
	storySegments int
}

// NewAdventureService creates a new AdventureService
func NewAdventureService(config *app.Config) *AdventureService {
	return &AdventureService{
		db:            config.DB,
		text:          config.Text,
		images:        image.NewImageService(config),
		instructions:  instruction.NewInstructionService(config.DB),
		models:        config.ModelsConfig(),
		storySegments: config.AppConfig.Adventure.StorySegments,
	}
}

// ContinueRequest carries the reader's choice for the next step
type ContinueRequest struct {
	UserID      string
	AdventureID string
	Choice      string
	ChoiceType  string
	Model       string
}

// segmentRequest describes one streamed segment generation
type segmentRequest struct {
	adventure   *db.Adventure
	segments    []db.Segment
	lastChoice  *string
	instruction string
	model       string
}

// Start creates an adventure and streams its first segment. The adventure
// id is the first event so the client can continue it.
func (s *AdventureService) Start(ctx context.Context, userID, prompt, model string) (<-chan stream.Event, error) {
	model, err := s.resolveModel(model)
	if err != nil {
		return nil, err
	}

	adventure, err := s.db.CreateAdventure(ctx, userID, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to create adventure: %w", err)
	}

	instructionText, _ := s.instructions.Texts(ctx, userID)
	req := segmentRequest{
		adventure:   adventure,
		segments:    []db.Segment{},
		instruction: instructionText,
		model:       model,
	}
	chunks, err := s.startSegment(ctx, req)
	if err != nil {
		if delErr := s.db.DeleteAdventure(context.WithoutCancel(ctx), adventure.ID, userID); delErr != nil {
			logger.Log.WithError(delErr).WithField("adventure_id", adventure.ID).Warn("Failed to remove adventure after stream error")
		}
		return nil, err
	}

	events, emitter := stream.New(ctx)

	go func() {
		defer emitter.Close()

		if !emitter.Emit(stream.Event{Type: stream.EventID, Content: adventure.ID}) {
			return
		}
		s.finishSegment(ctx, emitter, req, chunks)
	}()

	return events, nil
}

// Continue applies the reader's choice. A story choice streams the next
// segment; an image choice illustrates the chosen scene.
func (s *AdventureService) Continue(ctx context.Context, req ContinueRequest) (<-chan stream.Event, error) {
	model, err := s.resolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	adventure, err := s.db.GetAdventure(ctx, req.AdventureID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get adventure: %w", err)
	}

	instructionText, imageInstruction := s.instructions.Texts(ctx, req.UserID)

	if req.ChoiceType == prompts.ChoiceTypeImage {
		events, emitter := stream.New(ctx)
		go func() {
			defer emitter.Close()
			s.illustrate(ctx, emitter, adventure, req.Choice, imageInstruction)
		}()
		return events, nil
	}

	segments, err := s.db.GetSegments(ctx, adventure.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	if PhaseFor(len(segments), s.storySegments) == PhaseComplete {
		return nil, service.ErrAdventureComplete
	}

	choice := req.Choice
	segReq := segmentRequest{
		adventure:   adventure,
		segments:    segments,
		lastChoice:  &choice,
		instruction: instructionText,
		model:       model,
	}
	chunks, err := s.startSegment(ctx, segReq)
	if err != nil {
		return nil, err
	}

	events, emitter := stream.New(ctx)

	go func() {
		defer emitter.Close()
		s.finishSegment(ctx, emitter, segReq, chunks)
	}()

	return events, nil
}

// List returns the user's adventures, newest first
func (s *AdventureService) List(ctx context.Context, userID string) ([]db.Adventure, error) {
	adventures, err := s.db.ListAdventuresByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adventures: %w", err)
	}
	return adventures, nil
}

// Get returns one of the user's adventures with its segments in order
func (s *AdventureService) Get(ctx context.Context, userID, adventureID string) (*db.Adventure, error) {
	adventure, err := s.db.GetAdventure(ctx, adventureID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get adventure: %w", err)
	}

	segments, err := s.db.GetSegments(ctx, adventure.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	adventure.Segments = segments

	return adventure, nil
}

// Delete removes one of the user's adventures
func (s *AdventureService) Delete(ctx context.Context, userID, adventureID string) error {
	if err := s.db.DeleteAdventure(ctx, adventureID, userID); err != nil {
		return fmt.Errorf("failed to delete adventure: %w", err)
	}
	return nil
}

func (s *AdventureService) resolveModel(model string) (string, error) {
	if model == "" {
		return s.models.GetDefaultModel(), nil
	}
	if !s.models.IsValidModel(model) {
		return "", fmt.Errorf("%w: %s", service.ErrInvalidModel, model)
	}
	return model, nil
}

func (s *AdventureService) startSegment(ctx context.Context, req segmentRequest) (<-chan ai.StreamChunk, error) {
	lastChoice := ""
	if req.lastChoice != nil {
		lastChoice = *req.lastChoice
	}

	prompt := prompts.AdventurePrompt(prompts.AdventureInput{
		Instruction:   req.instruction,
		Prompt:        req.adventure.Prompt,
		Segments:      req.segments,
		LastChoice:    lastChoice,
		StorySegments: s.storySegments,
	})

	logger.Log.WithFields(logrus.Fields{
		"adventure_id": req.adventure.ID,
		"segment":      len(req.segments) + 1,
		"phase":        PhaseFor(len(req.segments), s.storySegments).String(),
		"model":        req.model,
	}).Debug("Starting adventure segment")

	chunks, err := s.text.StreamJSON(ctx, ai.StructuredRequest{
		Model:      req.model,
		Prompt:     prompt,
		SchemaName: prompts.AdventureSchemaName,
		Schema:     prompts.AdventureSchema(),
		UserID:     req.adventure.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start adventure generation: %w", err)
	}
	return chunks, nil
}

// finishSegment relays the segment, stores it and offers the next choices
func (s *AdventureService) finishSegment(ctx context.Context, emitter *stream.Emitter, req segmentRequest, chunks <-chan ai.StreamChunk) {
	first := len(req.segments) == 0
	phase := PhaseFor(len(req.segments), s.storySegments)
	fields := logrus.Fields{"adventure_id": req.adventure.ID, "segment": len(req.segments) + 1}

	doc, _, err := stream.Relay(ctx, chunks, emitter, stream.RelayOptions{EmitTitle: first})
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.WithError(err).WithFields(fields).Error("Adventure stream failed")
			emitter.Error("Failed to continue the adventure")
		}
		return
	}

	var out prompts.AdventureOutput
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		logger.Log.WithError(err).WithFields(fields).Error("Adventure output is not valid")
		emitter.Error("Failed to continue the adventure")
		return
	}

	if first && out.Title != "" {
		if err := s.db.UpdateAdventureTitle(ctx, req.adventure.ID, out.Title); err != nil {
			logger.Log.WithError(err).WithFields(fields).Warn("Failed to save adventure title")
		}
	}

	if out.Text != "" {
		if _, err := s.db.AddSegment(ctx, req.adventure.ID, out.Text, req.lastChoice); err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to save adventure segment")
			emitter.Error("Failed to save the adventure")
			return
		}
		metrics.IncGenerations("adventure_segment")
	}

	if out.ChoiceType != phase.ChoiceType() {
		logger.Log.WithFields(fields).WithField("choice_type", out.ChoiceType).Warn("Model returned unexpected choice type")
		out.ChoiceType = phase.ChoiceType()
	}
	if out.Choices == nil {
		out.Choices = []string{}
	}

	emitter.Emit(stream.Event{Type: stream.EventChoices, Content: out.Choices, ChoiceType: out.ChoiceType})
}

// illustrate draws the chosen scene and stores it as the adventure picture
func (s *AdventureService) illustrate(ctx context.Context, emitter *stream.Emitter, adventure *db.Adventure, scene, imageInstruction string) {
	fields := logrus.Fields{"adventure_id": adventure.ID}

	picture, err := s.images.Illustrate(ctx, scene, imageInstruction)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.WithError(err).WithFields(fields).Error("Failed to illustrate adventure")
			emitter.Error("Failed to generate image")
		}
		return
	}

	if err := s.db.UpdateAdventureImage(ctx, adventure.ID, scene, picture.URL); err != nil {
		logger.Log.WithError(err).WithFields(fields).Error("Failed to save adventure image")
		s.images.Discard(context.WithoutCancel(ctx), picture)
		emitter.Error("Failed to save image")
		return
	}

	emitter.Emit(stream.Event{Type: stream.EventImage, Content: picture.URL})
}
