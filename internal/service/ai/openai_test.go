package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storytime/internal/config"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.AIConfig{
		OpenAIAPIKey:       "test-key",
		BaseURL:            server.URL + "/v1",
		ImageModel:         "dall-e-3",
		ImageSize:          "1024x1024",
		TranscriptionModel: "whisper-1",
		RequestTimeout:     5 * time.Second,
	})
}

func testSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           map[string]jsonschema.Definition{"text": {Type: jsonschema.String}},
		Required:             []string{"text"},
		AdditionalProperties: false,
	}
}

func TestClient_StreamJSON(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{`{\"text\":\"Once`, ` upon\"}`} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-4.1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"%s\"}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-4.1\",\"choices\":[],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":7,\"total_tokens\":12}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := client.StreamJSON(context.Background(), StructuredRequest{
		Model:      "gpt-4.1",
		System:     "be kind",
		Prompt:     "a fox",
		SchemaName: "story",
		Schema:     testSchema(),
	})
	require.NoError(t, err)

	var content strings.Builder
	var usage *Usage
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		content.WriteString(chunk.Content)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	assert.Equal(t, `{"text":"Once upon"}`, content.String())
	require.NotNil(t, usage)
	assert.Equal(t, 12, usage.TotalTokens)

	format := captured["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "story", schema["name"])
	assert.Equal(t, true, schema["strict"])
	assert.Equal(t, true, captured["stream"])

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestClient_StreamJSON_InitError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := client.StreamJSON(context.Background(), StructuredRequest{
		Model: "gpt-4.1", Prompt: "x", SchemaName: "story", Schema: testSchema(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
}

func TestClient_GenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "b64_json", body["response_format"])
		assert.Equal(t, "1024x1024", body["size"])

		fmt.Fprintf(w, `{"created":1,"data":[{"b64_json":"%s"}]}`, base64.StdEncoding.EncodeToString(png))
	})

	data, err := client.GenerateImage(context.Background(), "a sleepy fox")
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestClient_GenerateImage_EmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"created":1,"data":[]}`)
	})

	_, err := client.GenerateImage(context.Background(), "a sleepy fox")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestClient_Transcribe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "recording.webm", header.Filename)
		audio, _ := io.ReadAll(file)
		assert.Equal(t, "audio-bytes", string(audio))

		fmt.Fprint(w, `{"text":"a story about a dragon"}`)
	})

	text, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "recording.webm")
	require.NoError(t, err)
	assert.Equal(t, "a story about a dragon", text)
}
