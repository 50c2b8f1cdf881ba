package stream

import (
	"context"
	"errors"
	"testing"

	"storytime/internal/service/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(parts []string, tail ...ai.StreamChunk) <-chan ai.StreamChunk {
	ch := make(chan ai.StreamChunk, len(parts)+len(tail))
	for _, p := range parts {
		ch <- ai.StreamChunk{Content: p}
	}
	for _, c := range tail {
		ch <- c
	}
	close(ch)
	return ch
}

// collect runs relay in a goroutine and gathers every emitted event
func collect(t *testing.T, chunks <-chan ai.StreamChunk, opts RelayOptions) ([]Event, string, *ai.Usage, error) {
	t.Helper()
	ctx := context.Background()
	events, emitter := New(ctx)

	type result struct {
		doc   string
		usage *ai.Usage
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer emitter.Close()
		doc, usage, err := Relay(ctx, chunks, emitter, opts)
		done <- result{doc, usage, err}
	}()

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	r := <-done
	return got, r.doc, r.usage, r.err
}

func TestRelay_ForwardsTextDeltasAndTitle(t *testing.T) {
	parts := []string{`{"title":"The Sle`, `epy Fox","te`, `xt":"Once up`, `on a time\`, `n"`, `,"imagePrompt":"a fox"}`}

	events, doc, usage, err := collect(t, feed(parts, ai.StreamChunk{Usage: &ai.Usage{TotalTokens: 9}}), RelayOptions{EmitTitle: true})
	require.NoError(t, err)

	assert.Equal(t, `{"title":"The Sleepy Fox","text":"Once upon a time\n","imagePrompt":"a fox"}`, doc)
	require.NotNil(t, usage)
	assert.Equal(t, 9, usage.TotalTokens)

	require.Len(t, events, 4)
	assert.Equal(t, Event{Type: EventTitle, Content: "The Sleepy Fox"}, events[0])
	assert.Equal(t, Event{Type: EventText, Content: "Once up"}, events[1])
	assert.Equal(t, Event{Type: EventText, Content: "on a time"}, events[2])
	assert.Equal(t, Event{Type: EventText, Content: "\n"}, events[3])
}

func TestRelay_TitleCompletedInSameChunkAsText(t *testing.T) {
	parts := []string{`{"title":"The Fo`, `x","text":"Once upon`, ` a time"}`}

	events, _, _, err := collect(t, feed(parts), RelayOptions{EmitTitle: true})
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Type: EventTitle, Content: "The Fox"},
		{Type: EventText, Content: "Once upon"},
		{Type: EventText, Content: " a time"},
	}, events)
}

func TestRelay_TitleDisabledOrEmpty(t *testing.T) {
	events, _, _, err := collect(t, feed([]string{`{"title":"Hidden","text":"Hi"}`}), RelayOptions{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventText, events[0].Type)

	events, _, _, err = collect(t, feed([]string{`{"title":"","text":"Hi"}`}), RelayOptions{EmitTitle: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventText, events[0].Type)
}

func TestRelay_StreamError(t *testing.T) {
	boom := errors.New("boom")
	events, doc, _, err := collect(t, feed([]string{`{"text":"Hel`}, ai.StreamChunk{Err: boom}), RelayOptions{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, `{"text":"Hel`, doc)
	require.Len(t, events, 1)
	assert.Equal(t, "Hel", events[0].Content)
}

func TestRelay_StopsWhenConsumerLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, emitter := New(ctx)
	cancel()

	chunks := make(chan ai.StreamChunk)
	_, _, err := Relay(ctx, chunks, emitter, RelayOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmitter_Error(t *testing.T) {
	ctx := context.Background()
	events, emitter := New(ctx)

	go func() {
		defer emitter.Close()
		emitter.Error("Something went wrong")
	}()

	ev := <-events
	assert.Equal(t, Event{Type: EventError, Content: "Something went wrong"}, ev)
	_, open := <-events
	assert.False(t, open)
}
