package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storytime/internal/app"
	"storytime/internal/repository/db"
	"storytime/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler http.Handler
	config  *app.Config
	db      *testutil.MockDatabase
	text    *testutil.MockTextGenerator
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testutil.NewMockConfig()
	token, err := cfg.Tokens.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	return &testServer{
		handler: NewRouter(cfg),
		config:  cfg,
		db:      cfg.DB.(*testutil.MockDatabase),
		text:    cfg.Text.(*testutil.MockTextGenerator),
		token:   token,
	}
}

func (s *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/health", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/health", "", false)

	rec := s.do(http.MethodGet, "/metrics", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storytime_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/stories", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, float64(401), decodeError(t, rec)["code"])

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	req.Header.Set("Authorization", "Token "+s.token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	users := map[string]*db.User{}
	s.db.CreateUserFunc = func(ctx context.Context, username, email, name, passwordHash string) (*db.User, error) {
		if _, ok := users[username]; ok {
			return nil, db.ErrUsernameTaken
		}
		users[username] = &db.User{ID: "id-" + username, Username: username, Name: name, PasswordHash: passwordHash}
		return users[username], nil
	}
	s.db.GetUserByUsernameFunc = func(ctx context.Context, username string) (*db.User, error) {
		if u, ok := users[username]; ok {
			return u, nil
		}
		return nil, db.ErrNotFound
	}

	rec := s.do(http.MethodPost, "/api/register", `{"username":"mia","name":"Mia","password":"secret123"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered struct {
		Token string  `json:"token"`
		User  db.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "mia", registered.User.Username)
	assert.NotContains(t, rec.Body.String(), "secret123")
	assert.NotContains(t, rec.Body.String(), users["mia"].PasswordHash)

	rec = s.do(http.MethodPost, "/api/register", `{"username":"mia","password":"secret123"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/register", `{"username":"mi","password":"secret123"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", `{"username":"mia","password":"secret123"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", `{"username":"mia","password":"wrong-password"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", `{not json`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	require.NoError(t, err)
	s.db.GetUserByIDFunc = func(ctx context.Context, id string) (*db.User, error) {
		return &db.User{ID: id, Username: "alice", PasswordHash: string(hash)}, nil
	}

	rec := s.do(http.MethodGet, "/api/me", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), string(hash))
}

func TestStoryStream_SSEFraming(t *testing.T) {
	s := newTestServer(t)
	s.text.Chunks = testutil.ContentChunks(`{"title":"The Fox","text":"Once upon a time.","imagePrompt":"a fox"}`, 19)
	s.db.CreateStoryFunc = func(ctx context.Context, userID, prompt, title, text, imagePrompt string) (*db.Story, error) {
		assert.Equal(t, "user-1", userID)
		return &db.Story{ID: "story-1"}, nil
	}
	s.db.UpdateStoryImageFunc = func(ctx context.Context, id, imageURL string) error { return nil }

	rec := s.do(http.MethodPost, "/api/stories/stream", `{"prompt":"a fox"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, `data: {"type":"title","content":"The Fox"}`, frames[0])
	assert.Equal(t, `data: {"type":"text","content":"Once upon a time."}`, frames[1])
	assert.Equal(t, `data: {"type":"storyId","content":"story-1"}`, frames[2])
	assert.True(t, strings.HasPrefix(frames[3], `data: {"type":"image","content":"https://media.test/images/`))
	assert.Equal(t, "data: [DONE]", frames[len(frames)-1])
}

func TestStoryStream_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/stories/stream", `{"prompt":"   "}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/stories/stream", `{"prompt":"a fox","model":"unknown"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.text.Requests)
}

func TestStoryCRUD(t *testing.T) {
	s := newTestServer(t)
	s.db.ListStoriesByUserFunc = func(ctx context.Context, userID string) ([]db.Story, error) {
		return []db.Story{{ID: "s2", Title: "Newer"}, {ID: "s1", Title: "Older"}}, nil
	}
	s.db.GetStoryFunc = func(ctx context.Context, id, userID string) (*db.Story, error) {
		if id != "s1" {
			return nil, db.ErrNotFound
		}
		return &db.Story{ID: id, UserID: userID, Title: "Older"}, nil
	}
	s.db.DeleteStoryFunc = func(ctx context.Context, id, userID string) error {
		if id != "s1" {
			return db.ErrNotFound
		}
		return nil
	}

	rec := s.do(http.MethodGet, "/api/stories", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var stories []db.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stories))
	require.Len(t, stories, 2)
	assert.Equal(t, "s2", stories[0].ID)

	rec = s.do(http.MethodGet, "/api/stories/s1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/stories/someone-elses", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/stories/s1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/stories/s9", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoryVideo_WithoutImagePrompt(t *testing.T) {
	s := newTestServer(t)
	s.db.GetStoryFunc = func(ctx context.Context, id, userID string) (*db.Story, error) {
		return &db.Story{ID: id}, nil
	}

	rec := s.do(http.MethodPost, "/api/stories/s1/video", "", true)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdventureContinue(t *testing.T) {
	s := newTestServer(t)
	s.db.GetAdventureFunc = func(ctx context.Context, id, userID string) (*db.Adventure, error) {
		return &db.Adventure{ID: id, UserID: userID, Prompt: "a dragon"}, nil
	}
	s.db.GetSegmentsFunc = func(ctx context.Context, adventureID string) ([]db.Segment, error) {
		return make([]db.Segment, 6), nil
	}

	rec := s.do(http.MethodPost, "/api/adventures/adv-1/stream", `{"choice":"Jump","choiceType":"story"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/adventures/adv-1/stream", `{"choice":"Jump","choiceType":"dance"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.db.UpdateAdventureImageFunc = func(ctx context.Context, id, imagePrompt, imageURL string) error { return nil }
	rec = s.do(http.MethodPost, "/api/adventures/adv-1/stream", `{"choice":"Pip on the hill","choiceType":"image"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"image"`)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n"))
}

func TestAdventureStart(t *testing.T) {
	s := newTestServer(t)
	s.db.CreateAdventureFunc = func(ctx context.Context, userID, prompt string) (*db.Adventure, error) {
		return &db.Adventure{ID: "adv-1", UserID: userID, Prompt: prompt}, nil
	}
	s.db.UpdateAdventureTitleFunc = func(ctx context.Context, id, title string) error { return nil }
	s.db.AddSegmentFunc = func(ctx context.Context, adventureID, text string, choice *string) (*db.Segment, error) {
		return &db.Segment{}, nil
	}
	s.text.Chunks = testutil.ContentChunks(`{"title":"Wings","text":"Pip woke up.","choices":["Fly","Walk"],"choiceType":"story"}`)

	rec := s.do(http.MethodPost, "/api/adventures/stream", `{"prompt":"a dragon"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `data: {"type":"id","content":"adv-1"}`))
	assert.Contains(t, body, `data: {"type":"choices","content":["Fly","Walk"],"choiceType":"story"}`)
}

func TestAdventureGet(t *testing.T) {
	s := newTestServer(t)
	s.db.GetAdventureFunc = func(ctx context.Context, id, userID string) (*db.Adventure, error) {
		return nil, db.ErrNotFound
	}

	rec := s.do(http.MethodGet, "/api/adventures/adv-1", "", true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInstruction(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/instruction", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	s.db.UpsertInstructionFunc = func(ctx context.Context, userID, text, imageText string) (*db.Instruction, error) {
		return &db.Instruction{ID: "in-1", UserID: userID, Text: text, ImageText: imageText}, nil
	}
	rec = s.do(http.MethodPut, "/api/instruction", `{"text":"Stories about Mia","imageText":"red hair"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imageText":"red hair"`)

	s.db.DeleteInstructionFunc = func(ctx context.Context, userID string) error { return nil }
	rec = s.do(http.MethodDelete, "/api/instruction", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestColoringPage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/images/coloring", `{"prompt":"a dinosaur"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.URL, "https://media.test/coloring/"))
}

func TestTranscribe(t *testing.T) {
	s := newTestServer(t)
	s.config.Transcriber.(*testutil.MockTranscriber).TranscribeFunc = func(ctx context.Context, audio []byte, filename string) (string, error) {
		return "a dragon who loves pancakes", nil
	}

	rec := s.do(http.MethodPost, "/api/transcribe", `{"audio":"not base64!"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/transcribe", `{"audio":""}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	audio := base64.StdEncoding.EncodeToString([]byte("webm"))
	rec = s.do(http.MethodPost, "/api/transcribe", `{"audio":"`+audio+`"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"a dragon who loves pancakes"}`, rec.Body.String())
}

func TestLibraryAndModels(t *testing.T) {
	s := newTestServer(t)
	s.db.ListStoriesByUserFunc = func(ctx context.Context, userID string) ([]db.Story, error) {
		return []db.Story{{ID: "s1"}}, nil
	}
	s.db.ListAdventuresByUserFunc = func(ctx context.Context, userID string) ([]db.Adventure, error) {
		return []db.Adventure{}, nil
	}

	rec := s.do(http.MethodGet, "/api/library", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var lib map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lib))
	assert.Len(t, lib["stories"], 1)
	assert.Empty(t, lib["adventures"])

	rec = s.do(http.MethodGet, "/api/models", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"gpt-4.1"`)
}
