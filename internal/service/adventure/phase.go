package adventure

import "storytime/internal/service/prompts"

// Phase is the stage an adventure is in when the next segment is requested
type Phase int

const (
	// PhaseStory continues the narrative and offers story choices
	PhaseStory Phase = iota
	// PhaseConclusion ends the narrative and offers scenes to illustrate
	PhaseConclusion
	// PhaseComplete accepts no further segments
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseStory:
		return "story"
	case PhaseConclusion:
		return "conclusion"
	default:
		return "complete"
	}
}

// ChoiceType is the kind of choices a segment in this phase offers
func (p Phase) ChoiceType() string {
	if p == PhaseStory {
		return prompts.ChoiceTypeStory
	}
	return prompts.ChoiceTypeImage
}

// PhaseFor derives the phase of the next segment from the number already written
func PhaseFor(segmentCount, storySegments int) Phase {
	current := segmentCount + 1
	switch {
	case current <= storySegments:
		return PhaseStory
	case current == storySegments+1:
		return PhaseConclusion
	default:
		return PhaseComplete
	}
}
