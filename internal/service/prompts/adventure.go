package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"storytime/internal/repository/db"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Choice types returned with every adventure segment
const (
	ChoiceTypeStory = "story"
	ChoiceTypeImage = "image"
)

// AdventureOutput is the structured response of one adventure step
type AdventureOutput struct {
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Choices    []string `json:"choices"`
	ChoiceType string   `json:"choiceType"`
}

// AdventureSchemaName names the adventure response format
const AdventureSchemaName = "adventure_segment"

// AdventureSchema returns the strict JSON schema for AdventureOutput
func AdventureSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title": {
				Type:        jsonschema.String,
				Description: "The adventure title. Only filled for the first segment, otherwise an empty string.",
			},
			"text": {
				Type:        jsonschema.String,
				Description: "Narrative text of this segment. Never list the choices here.",
			},
			"choices": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "Options for the reader: story actions during the adventure, image prompts at the end.",
			},
			"choiceType": {
				Type:        jsonschema.String,
				Enum:        []string{ChoiceTypeStory, ChoiceTypeImage},
				Description: "Whether the choices continue the story or describe scenes to illustrate.",
			},
		},
		Required:             []string{"title", "text", "choices", "choiceType"},
		AdditionalProperties: false,
	}
}

// AdventureInput carries everything the adventure prompt needs
type AdventureInput struct {
	Instruction   string
	Prompt        string
	Segments      []db.Segment
	LastChoice    string
	StorySegments int
}

type promptSegment struct {
	Text   string  `json:"text"`
	Choice *string `json:"choice,omitempty"`
}

// AdventurePrompt builds the prompt for the next adventure segment
func AdventurePrompt(in AdventureInput) string {
	current := len(in.Segments) + 1
	imageSegment := in.StorySegments + 1

	history := make([]promptSegment, 0, len(in.Segments))
	for _, s := range in.Segments {
		history = append(history, promptSegment{Text: s.Text, Choice: s.Choice})
	}
	historyJSON, _ := json.Marshal(history)

	lastChoice := in.LastChoice
	if lastChoice == "" {
		lastChoice = "None. The adventure is just beginning."
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are writing a short interactive choose-your-own-adventure story for children.

There are four inputs.

1. Guidance from the parent that applies to every adventure:
%s

2. The prompt that started this adventure:
%s

3. The adventure so far, oldest segment first:
%s

4. The reader's latest choice:
%s

Story state:
- Current segment number: %d
- Last story segment number: %d
- Image prompt segment number: %d

Rules that always apply:
- Produce exactly one response that matches the JSON schema with the fields title, text, choices and choiceType.
- Keep the language suitable for young children.
- Use emojis where they fit naturally.
- Never plan or hint at segments beyond this one.

Making the story rich:
- Introduce one recurring magical object, creature or mystery early on.
- Let that element quietly shape several segments.
- Raise curiosity or stakes a little with every segment.
- Include at least one surprising but gentle twist.
- Resolve the recurring element in the last story segment.
`, fence(in.Instruction), fence(in.Prompt), fence(string(historyJSON)), fence(lastChoice), current, in.StorySegments, imageSegment)

	b.WriteString("\nWhat to write now:\n")
	if current == 1 {
		b.WriteString("- This is the first segment, so fill in the title.\n")
	} else {
		b.WriteString("- Leave the title as an empty string.\n")
	}

	if current <= in.StorySegments {
		b.WriteString(`- Write 2 to 4 sentences that carry the adventure forward.
- Stop at a natural decision point.
- Offer 2 to 4 meaningful choices, each an action the reader can take next.
- The choices array must not be empty.
- Set choiceType to "story".
`)
	} else {
		b.WriteString(`- This is the final response of the adventure.
- Conclude the story in 2 to 4 sentences without opening new plot threads or ending on a decision.
- Then offer 2 to 4 image prompts, each showing a different scene that already happened, such as the beginning, a big challenge, a turning point or the ending.
- Vary the characters, places or actions between the prompts and never invent new events.
- Do not mention cameras, lenses, art styles, artists or rendering engines.
- The choices array must not be empty.
- Set choiceType to "image".
`)
	}

	b.WriteString("\nReturn only the JSON object, without explanations or extra text.\n")
	return b.String()
}
