package prompts

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// StoryOutput is the structured response of a story generation
type StoryOutput struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"`
}

// StorySchemaName names the story response format
const StorySchemaName = "bedtime_story"

// StorySchema returns the strict JSON schema for StoryOutput
func StorySchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title": {
				Type:        jsonschema.String,
				Description: "A short title for the story",
			},
			"text": {
				Type:        jsonschema.String,
				Description: "The complete story text",
			},
			"imagePrompt": {
				Type:        jsonschema.String,
				Description: "An English prompt for an illustration of the story. Describe how the main characters look and set the scene.",
			},
		},
		Required:             []string{"title", "text", "imagePrompt"},
		AdditionalProperties: false,
	}
}

// StorySystemPrompt builds the storyteller instructions. instruction is the
// user's saved guidance and may be empty.
func StorySystemPrompt(instruction string) string {
	return fmt.Sprintf(`You are a storyteller who writes bedtime stories for children. A story should take about five minutes to read out loud.

You receive two inputs.

1. Guidance from the parent that applies to every story:
%s

2. Inspiration for this particular story, such as characters, places, keywords or a short setup.

Requirements:
- Use simple, playful and comforting language.
- Keep any conflict gentle and never frightening.
- Sprinkle in plenty of emojis.
- End with a calm resolution that leaves the child feeling safe and sleepy.
- Pace the story for reading aloud at bedtime.
- Blend the general guidance and the inspiration into one complete story.

Reply with the whole story right away. Never point out missing details; invent pleasant ones instead.
`, fence(instruction))
}
