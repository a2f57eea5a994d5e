package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func code(v uint8) *uint8 {
	return &v
}

// twoPagePattern is the grid used by the editor walkthrough: a note on the
// first tick of page one and another on the third tick of page two.
func twoPagePattern(name string) *Pattern {
	p := NewPattern(name)
	p.MidiPath = "/n"
	p.Resize(2)
	p.MidiCodes[0][0] = code(60)
	p.MidiCodes[1][2] = code(62)
	return p
}

func TestPatternOscMessages(t *testing.T) {
	p := twoPagePattern("p")

	msgs := p.OscMessages(0)
	require.Len(t, msgs, 1)
	assert.Equal(t, "/n", msgs[0].Path)
	assert.Equal(t, FloatArg(60), msgs[0].Arg)

	assert.Empty(t, p.OscMessages(1))
	assert.Empty(t, p.OscMessages(5))

	msgs = p.OscMessages(6)
	require.Len(t, msgs, 1)
	assert.Equal(t, FloatArg(62), msgs[0].Arg)
}

func TestPatternOscMessagesOutOfRange(t *testing.T) {
	p := twoPagePattern("p")

	assert.Empty(t, p.OscMessages(8))
	assert.Empty(t, p.OscMessages(-1))
}

func TestPatternOscMessagesOrder(t *testing.T) {
	p := twoPagePattern("p")
	first := Messages{
		Payload: OscMessage{Path: "/a", Arg: StringArg("x")},
		Actives: []StepPage{{true}, {}},
	}
	second := Messages{
		Payload: OscMessage{Path: "/b", Arg: FloatArg(1)},
		Actives: []StepPage{{true}, {}},
	}
	p.Messages = append(p.Messages, first, second)

	msgs := p.OscMessages(0)
	require.Len(t, msgs, 3)
	assert.Equal(t, "/n", msgs[0].Path)
	assert.Equal(t, "/a", msgs[1].Path)
	assert.Equal(t, "/b", msgs[2].Path)
}

func TestPatternResize(t *testing.T) {
	p := NewPattern("p")
	p.Messages = append(p.Messages, Messages{Payload: OscMessage{Path: "/m"}})

	p.Resize(3)
	assert.Equal(t, 3, p.PageCount)
	assert.Len(t, p.MidiCodes, 3)
	assert.Len(t, p.Messages[0].Actives, 3)
	assert.Equal(t, 12, p.TickCount())

	p.MidiCodes[2][1] = code(64)
	p.Resize(1)
	assert.Len(t, p.MidiCodes, 1)
	assert.Len(t, p.Messages[0].Actives, 1)
	assert.Equal(t, 4, p.TickCount())
}

func TestPatternClone(t *testing.T) {
	p := twoPagePattern("p")
	p.Messages = append(p.Messages, Messages{
		Payload: OscMessage{Path: "/m", Arg: FloatArg(1)},
		Actives: []StepPage{{true}, {}},
	})

	clone := p.Clone()
	clone.MidiCodes[0][0] = code(10)
	clone.Messages[0].Actives[0][0] = false

	assert.Equal(t, uint8(60), *p.MidiCodes[0][0])
	assert.True(t, p.Messages[0].Actives[0][0])
}

func lookupOf(patterns ...*Pattern) func(string) *Pattern {
	byName := make(map[string]*Pattern, len(patterns))
	for _, p := range patterns {
		byName[p.Name] = p
	}
	return func(name string) *Pattern {
		return byName[name]
	}
}

func TestTrackStepEmptyTrack(t *testing.T) {
	tr := NewTrack("t")
	tr.Active = true
	tr.Patterns = []string{"missing"}

	msgs, stopped := tr.Step(0, lookupOf())
	assert.Empty(t, msgs)
	assert.False(t, stopped)
	assert.Nil(t, tr.Progress)
}

func TestTrackStepAutoStop(t *testing.T) {
	p := NewPattern("p")
	p.MidiPath = "/n"
	p.Resize(1)
	p.MidiCodes[0][0] = code(60)
	lookup := lookupOf(p)

	tr := NewTrack("t")
	tr.Active = true
	tr.Patterns = []string{"p"}

	msgs, stopped := tr.Step(0, lookup)
	require.Len(t, msgs, 1)
	assert.False(t, stopped)
	require.NotNil(t, tr.Progress)
	assert.Equal(t, 1, *tr.Progress)

	for tick := 1; tick < 3; tick++ {
		msgs, stopped = tr.Step(tick, lookup)
		assert.Empty(t, msgs)
		assert.False(t, stopped)
	}

	msgs, stopped = tr.Step(3, lookup)
	assert.Empty(t, msgs)
	assert.True(t, stopped)
	assert.False(t, tr.Active)
	assert.Nil(t, tr.Progress)

	// deactivated track emits nothing until reactivated
	msgs, stopped = tr.Step(4, lookup)
	assert.Empty(t, msgs)
	assert.False(t, stopped)
}

func TestTrackStepLoop(t *testing.T) {
	p := NewPattern("p")
	p.Resize(1)
	p.MidiCodes[0][0] = code(60)
	lookup := lookupOf(p)

	tr := NewTrack("t")
	tr.Active = true
	tr.Loop = true
	tr.Patterns = []string{"p"}

	for tick := 0; tick < 4; tick++ {
		tr.Step(tick, lookup)
	}
	assert.True(t, tr.Active)
	require.NotNil(t, tr.Progress)
	assert.Equal(t, 0, *tr.Progress)

	msgs, _ := tr.Step(4, lookup)
	assert.Len(t, msgs, 1)
}

func TestTrackStepStartsOnBarBoundary(t *testing.T) {
	p := NewPattern("p")
	p.Resize(1)
	p.MidiCodes[0][0] = code(60)
	lookup := lookupOf(p)

	tr := NewTrack("t")
	tr.Active = true
	tr.Patterns = []string{"p"}

	// total length 4, so only ticks divisible by 4 may start it
	msgs, _ := tr.Step(1, lookup)
	assert.Empty(t, msgs)
	assert.Nil(t, tr.Progress)

	msgs, _ = tr.Step(4, lookup)
	assert.Len(t, msgs, 1)
	require.NotNil(t, tr.Progress)
}

func TestTrackStepBarBoundaryTiers(t *testing.T) {
	two := NewPattern("two")
	two.Resize(2)
	two.MidiCodes[0][0] = code(60)
	lookup := lookupOf(two)

	tr := NewTrack("t")
	tr.Active = true
	tr.Patterns = []string{"two"}

	// total length 8 starts at multiples of 8, not 4
	msgs, _ := tr.Step(4, lookup)
	assert.Empty(t, msgs)
	assert.Nil(t, tr.Progress)

	msgs, _ = tr.Step(8, lookup)
	assert.Len(t, msgs, 1)
}

func TestTrackStepDrainsToBarBoundary(t *testing.T) {
	p := NewPattern("p")
	p.Resize(1)
	lookup := lookupOf(p)

	tr := NewTrack("t")
	tr.Active = false
	progress := 2
	tr.Progress = &progress
	tr.Patterns = []string{"p"}

	// off the boundary, the leftover progress keeps advancing
	_, _ = tr.Step(2, lookup)
	require.NotNil(t, tr.Progress)
	assert.Equal(t, 3, *tr.Progress)

	// advancing past the end clears it
	_, _ = tr.Step(3, lookup)
	assert.Nil(t, tr.Progress)
}

func TestTrackStepWalksPatternChain(t *testing.T) {
	first := NewPattern("first")
	first.MidiPath = "/a"
	first.Resize(1)
	first.MidiCodes[0][0] = code(1)

	second := NewPattern("second")
	second.MidiPath = "/b"
	second.Resize(1)
	second.MidiCodes[0][2] = code(2)

	lookup := lookupOf(first, second)

	tr := NewTrack("t")
	tr.Active = true
	tr.Loop = true
	tr.Patterns = []string{"first", "second"}

	var paths []string
	for tick := 0; tick < 8; tick++ {
		for _, msg := range mustStep(t, tr, tick, lookup) {
			paths = append(paths, msg.Path)
		}
	}
	assert.Equal(t, []string{"/a", "/b"}, paths)
}

func mustStep(t *testing.T, tr *Track, tick int, lookup func(string) *Pattern) []OscMessage {
	t.Helper()
	msgs, _ := tr.Step(tick, lookup)
	return msgs
}

func TestTrackClone(t *testing.T) {
	tr := NewTrack("t")
	progress := 3
	tr.Progress = &progress
	tr.Patterns = []string{"a", "b"}

	clone := tr.Clone()
	*clone.Progress = 9
	clone.Patterns[0] = "z"

	assert.Equal(t, 3, *tr.Progress)
	assert.Equal(t, "a", tr.Patterns[0])
}

func TestModBeat(t *testing.T) {
	tests := []struct {
		name        string
		totalLength int
		x           int
		want        int
	}{
		{"full bar", 16, 17, 1},
		{"full bar exact", 20, 16, 0},
		{"half bar", 8, 10, 2},
		{"quarter bar", 4, 6, 2},
		{"quarter bar small", 3, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, modBeat(tt.totalLength, tt.x))
		})
	}
}

func TestEventMessage(t *testing.T) {
	e := NewEvent("boom")
	assert.Equal(t, "/", e.Path)
	e.Path = "/kick"
	e.Payload = FloatArg(1)
	assert.Equal(t, OscMessage{Path: "/kick", Arg: FloatArg(1)}, e.Message())
}

func TestSliderMessage(t *testing.T) {
	s := NewSlider("cutoff")
	s.Path = "/filter"
	s.Val = 0.5
	assert.Equal(t, OscMessage{Path: "/filter", Arg: FloatArg(0.5)}, s.Message())
}
