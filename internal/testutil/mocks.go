package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"storytime/internal/app"
	"storytime/internal/config"
	"storytime/internal/repository/db"
	"storytime/internal/service/ai"
)

var errNotImplemented = errors.New("not implemented")

// Ensure the mocks satisfy the interfaces they stand in for
var (
	_ db.Database       = (*MockDatabase)(nil)
	_ ai.TextGenerator  = (*MockTextGenerator)(nil)
	_ ai.ImageGenerator = (*MockImageGenerator)(nil)
	_ ai.Transcriber    = (*MockTranscriber)(nil)
	_ ai.VideoGenerator = (*MockVideoGenerator)(nil)
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	CreateUserFunc        func(ctx context.Context, username, email, name, passwordHash string) (*db.User, error)
	GetUserByUsernameFunc func(ctx context.Context, username string) (*db.User, error)
	GetUserByIDFunc       func(ctx context.Context, id string) (*db.User, error)

	// Story mocks
	CreateStoryFunc       func(ctx context.Context, userID, prompt, title, text, imagePrompt string) (*db.Story, error)
	GetStoryFunc          func(ctx context.Context, id, userID string) (*db.Story, error)
	ListStoriesByUserFunc func(ctx context.Context, userID string) ([]db.Story, error)
	DeleteStoryFunc       func(ctx context.Context, id, userID string) error
	UpdateStoryImageFunc  func(ctx context.Context, id, imageURL string) error
	UpdateStoryVideoFunc  func(ctx context.Context, id, videoURL string) error

	// Adventure mocks
	CreateAdventureFunc      func(ctx context.Context, userID, prompt string) (*db.Adventure, error)
	GetAdventureFunc         func(ctx context.Context, id, userID string) (*db.Adventure, error)
	ListAdventuresByUserFunc func(ctx context.Context, userID string) ([]db.Adventure, error)
	DeleteAdventureFunc      func(ctx context.Context, id, userID string) error
	UpdateAdventureTitleFunc func(ctx context.Context, id, title string) error
	UpdateAdventureImageFunc func(ctx context.Context, id, imagePrompt, imageURL string) error

	// Segment mocks
	AddSegmentFunc  func(ctx context.Context, adventureID, text string, choice *string) (*db.Segment, error)
	GetSegmentsFunc func(ctx context.Context, adventureID string) ([]db.Segment, error)

	// Instruction mocks
	GetInstructionFunc    func(ctx context.Context, userID string) (*db.Instruction, error)
	UpsertInstructionFunc func(ctx context.Context, userID, text, imageText string) (*db.Instruction, error)
	DeleteInstructionFunc func(ctx context.Context, userID string) error
}

// User methods
func (m *MockDatabase) CreateUser(ctx context.Context, username, email, name, passwordHash string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, username, email, name, passwordHash)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(ctx, username)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, errNotImplemented
}

// Story methods
func (m *MockDatabase) CreateStory(ctx context.Context, userID, prompt, title, text, imagePrompt string) (*db.Story, error) {
	if m.CreateStoryFunc != nil {
		return m.CreateStoryFunc(ctx, userID, prompt, title, text, imagePrompt)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetStory(ctx context.Context, id, userID string) (*db.Story, error) {
	if m.GetStoryFunc != nil {
		return m.GetStoryFunc(ctx, id, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) ListStoriesByUser(ctx context.Context, userID string) ([]db.Story, error) {
	if m.ListStoriesByUserFunc != nil {
		return m.ListStoriesByUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) DeleteStory(ctx context.Context, id, userID string) error {
	if m.DeleteStoryFunc != nil {
		return m.DeleteStoryFunc(ctx, id, userID)
	}
	return errNotImplemented
}

func (m *MockDatabase) UpdateStoryImage(ctx context.Context, id, imageURL string) error {
	if m.UpdateStoryImageFunc != nil {
		return m.UpdateStoryImageFunc(ctx, id, imageURL)
	}
	return errNotImplemented
}

func (m *MockDatabase) UpdateStoryVideo(ctx context.Context, id, videoURL string) error {
	if m.UpdateStoryVideoFunc != nil {
		return m.UpdateStoryVideoFunc(ctx, id, videoURL)
	}
	return errNotImplemented
}

// Adventure methods
func (m *MockDatabase) CreateAdventure(ctx context.Context, userID, prompt string) (*db.Adventure, error) {
	if m.CreateAdventureFunc != nil {
		return m.CreateAdventureFunc(ctx, userID, prompt)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetAdventure(ctx context.Context, id, userID string) (*db.Adventure, error) {
	if m.GetAdventureFunc != nil {
		return m.GetAdventureFunc(ctx, id, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) ListAdventuresByUser(ctx context.Context, userID string) ([]db.Adventure, error) {
	if m.ListAdventuresByUserFunc != nil {
		return m.ListAdventuresByUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) DeleteAdventure(ctx context.Context, id, userID string) error {
	if m.DeleteAdventureFunc != nil {
		return m.DeleteAdventureFunc(ctx, id, userID)
	}
	return errNotImplemented
}

func (m *MockDatabase) UpdateAdventureTitle(ctx context.Context, id, title string) error {
	if m.UpdateAdventureTitleFunc != nil {
		return m.UpdateAdventureTitleFunc(ctx, id, title)
	}
	return errNotImplemented
}

func (m *MockDatabase) UpdateAdventureImage(ctx context.Context, id, imagePrompt, imageURL string) error {
	if m.UpdateAdventureImageFunc != nil {
		return m.UpdateAdventureImageFunc(ctx, id, imagePrompt, imageURL)
	}
	return errNotImplemented
}

// Segment methods
func (m *MockDatabase) AddSegment(ctx context.Context, adventureID, text string, choice *string) (*db.Segment, error) {
	if m.AddSegmentFunc != nil {
		return m.AddSegmentFunc(ctx, adventureID, text, choice)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetSegments(ctx context.Context, adventureID string) ([]db.Segment, error) {
	if m.GetSegmentsFunc != nil {
		return m.GetSegmentsFunc(ctx, adventureID)
	}
	return nil, errNotImplemented
}

// Instruction methods
func (m *MockDatabase) GetInstruction(ctx context.Context, userID string) (*db.Instruction, error) {
	if m.GetInstructionFunc != nil {
		return m.GetInstructionFunc(ctx, userID)
	}
	return nil, db.ErrNotFound
}

func (m *MockDatabase) UpsertInstruction(ctx context.Context, userID, text, imageText string) (*db.Instruction, error) {
	if m.UpsertInstructionFunc != nil {
		return m.UpsertInstructionFunc(ctx, userID, text, imageText)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) DeleteInstruction(ctx context.Context, userID string) error {
	if m.DeleteInstructionFunc != nil {
		return m.DeleteInstructionFunc(ctx, userID)
	}
	return errNotImplemented
}

// MockTextGenerator replays a fixed list of chunks for every request
type MockTextGenerator struct {
	Chunks     []ai.StreamChunk
	Err        error
	StreamFunc func(ctx context.Context, req ai.StructuredRequest) (<-chan ai.StreamChunk, error)

	mu       sync.Mutex
	Requests []ai.StructuredRequest
}

func (m *MockTextGenerator) StreamJSON(ctx context.Context, req ai.StructuredRequest) (<-chan ai.StreamChunk, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return ChunksOf(m.Chunks...), nil
}

// ContentChunks splits a document into content chunks of the given sizes, the rest in one piece
func ContentChunks(doc string, sizes ...int) []ai.StreamChunk {
	var chunks []ai.StreamChunk
	for _, n := range sizes {
		if n >= len(doc) {
			break
		}
		chunks = append(chunks, ai.StreamChunk{Content: doc[:n]})
		doc = doc[n:]
	}
	if doc != "" {
		chunks = append(chunks, ai.StreamChunk{Content: doc})
	}
	return chunks
}

// ChunksOf returns a closed, buffered channel holding chunks
func ChunksOf(chunks ...ai.StreamChunk) <-chan ai.StreamChunk {
	ch := make(chan ai.StreamChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// MockImageGenerator is a mock implementation of ai.ImageGenerator
type MockImageGenerator struct {
	GenerateImageFunc func(ctx context.Context, prompt string) ([]byte, error)
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return []byte("png"), nil
}

// MockTranscriber is a mock implementation of ai.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename)
	}
	return "", errNotImplemented
}

// MockVideoGenerator is a mock implementation of ai.VideoGenerator
type MockVideoGenerator struct {
	CreateVideoFunc   func(ctx context.Context, prompt string) (*ai.Video, error)
	GetVideoFunc      func(ctx context.Context, id string) (*ai.Video, error)
	DownloadVideoFunc func(ctx context.Context, id string) ([]byte, error)
}

func (m *MockVideoGenerator) CreateVideo(ctx context.Context, prompt string) (*ai.Video, error) {
	if m.CreateVideoFunc != nil {
		return m.CreateVideoFunc(ctx, prompt)
	}
	return nil, errNotImplemented
}

func (m *MockVideoGenerator) GetVideo(ctx context.Context, id string) (*ai.Video, error) {
	if m.GetVideoFunc != nil {
		return m.GetVideoFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *MockVideoGenerator) DownloadVideo(ctx context.Context, id string) ([]byte, error) {
	if m.DownloadVideoFunc != nil {
		return m.DownloadVideoFunc(ctx, id)
	}
	return nil, errNotImplemented
}

// MemoryStore is an in-memory object store
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}}
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = data
	return "https://media.test/" + key, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

// Keys returns the stored object keys
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.Objects))
	for k := range s.Objects {
		keys = append(keys, k)
	}
	return keys
}

// NewMockConfig creates an application config wired to mocks
func NewMockConfig() *app.Config {
	appConfig := &config.AppConfig{
		AI: config.AIConfig{
			TextModel:         "gpt-4.1",
			VideoPollInterval: time.Millisecond,
		},
		Adventure: config.AdventureConfig{StorySegments: 5},
		Auth: config.AuthConfig{
			JWTSecret:       []byte("test-secret-key-that-is-long-enough-32"),
			TokenExpiration: time.Hour,
		},
		Seed:   config.SeedConfig{DemoUser: true, DemoUsername: "demo", DemoPassword: "demo123"},
		Models: config.DefaultModelsConfig("gpt-4.1"),
	}

	cfg := app.NewConfig(&MockDatabase{}, appConfig)
	cfg.Store = NewMemoryStore()
	cfg.Text = &MockTextGenerator{}
	cfg.Images = &MockImageGenerator{}
	cfg.Transcriber = &MockTranscriber{}
	cfg.Video = &MockVideoGenerator{}
	return cfg
}
