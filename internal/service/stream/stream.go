package stream

import (
	"context"
	"errors"
	"strings"

	"storytime/internal/logger"
	"storytime/internal/service/ai"
	"storytime/pkg/partialjson"
)

// EventType names the kind of a streamed event
type EventType string

// Event types sent to the client
const (
	EventID       EventType = "id"
	EventTitle    EventType = "title"
	EventText     EventType = "text"
	EventStoryID  EventType = "storyId"
	EventChoices  EventType = "choices"
	EventImage    EventType = "image"
	EventProgress EventType = "progress"
	EventVideo    EventType = "video"
	EventError    EventType = "error"
)

// Event is one message of a generation stream
type Event struct {
	Type       EventType `json:"type"`
	Content    any       `json:"content"`
	ChoiceType string    `json:"choiceType,omitempty"`
}

// Emitter delivers events to the consumer of a stream
type Emitter struct {
	ctx context.Context
	ch  chan<- Event
}

// New creates the channel a service returns and an Emitter feeding it
func New(ctx context.Context) (<-chan Event, *Emitter) {
	ch := make(chan Event)
	return ch, &Emitter{ctx: ctx, ch: ch}
}

// Emit sends ev and reports false once the consumer has gone away
func (e *Emitter) Emit(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// Error sends an error event with a client facing message
func (e *Emitter) Error(message string) bool {
	return e.Emit(Event{Type: EventError, Content: message})
}

// Close ends the stream
func (e *Emitter) Close() {
	close(e.ch)
}

// RelayOptions controls which fields of the growing document are forwarded
type RelayOptions struct {
	// EmitTitle forwards the "title" field once it is complete and not empty
	EmitTitle bool
}

// Relay drains a structured completion, forwarding new "text" content as
// text events while the document grows. It returns the full document.
func Relay(ctx context.Context, chunks <-chan ai.StreamChunk, emitter *Emitter, opts RelayOptions) (string, *ai.Usage, error) {
	var doc strings.Builder
	var usage *ai.Usage
	var sentText string
	titleSent := false

	for {
		var chunk ai.StreamChunk
		var ok bool
		select {
		case chunk, ok = <-chunks:
		case <-ctx.Done():
			return doc.String(), usage, ctx.Err()
		}
		if !ok {
			break
		}

		if chunk.Err != nil {
			return doc.String(), usage, chunk.Err
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
			continue
		}
		if chunk.Content == "" {
			continue
		}

		doc.WriteString(chunk.Content)
		value, err := partialjson.Parse(doc.String())
		if err != nil && !errors.Is(err, partialjson.ErrTruncated) {
			logger.Log.WithError(err).Debug("Structured output is not valid JSON yet")
			continue
		}

		// title precedes text in the document
		if opts.EmitTitle && !titleSent {
			if title, complete, found := partialjson.String(value, "title"); found && complete && title != "" {
				titleSent = true
				if !emitter.Emit(Event{Type: EventTitle, Content: title}) {
					return doc.String(), usage, ctx.Err()
				}
			}
		}

		if text, _, found := partialjson.String(value, "text"); found && len(text) > len(sentText) && strings.HasPrefix(text, sentText) {
			delta := text[len(sentText):]
			sentText = text
			if !emitter.Emit(Event{Type: EventText, Content: delta}) {
				return doc.String(), usage, ctx.Err()
			}
		}
	}

	return doc.String(), usage, nil
}
