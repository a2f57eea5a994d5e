package models

import (
	"github.com/Saplyn/vibe/pkg/logger"
)

// NotePage holds four consecutive ticks of optional 7-bit MIDI codes
type NotePage [4]*uint8

// StepPage holds four consecutive ticks of on/off message slots
type StepPage [4]bool

// Pattern is a page_count-long grid of per-tick note codes plus zero or
// more auxiliary OSC message rows
type Pattern struct {
	Name      string     `json:"name"`
	PageCount int        `json:"page_count"`
	MidiPath  string     `json:"midi_path"`
	MidiCodes []NotePage `json:"midi_codes"`
	Messages  []Messages `json:"messages"`
}

// Messages is one auxiliary OSC message row of a pattern: a fixed payload
// and the per-tick slots it fires on
type Messages struct {
	Payload OscMessage `json:"payload"`
	Actives []StepPage `json:"actives"`
}

// NewPattern creates an empty pattern
func NewPattern(name string) *Pattern {
	return &Pattern{
		Name:      name,
		PageCount: 0,
		MidiPath:  "/",
		MidiCodes: []NotePage{},
		Messages:  []Messages{},
	}
}

// TickCount returns the number of ticks in one full cycle of the pattern
func (p *Pattern) TickCount() int {
	return p.PageCount * 4
}

// Resize grows or shrinks the pattern to pageCount pages. Growing pads the
// note grid and every message row with empty pages; shrinking truncates.
func (p *Pattern) Resize(pageCount int) {
	p.PageCount = pageCount
	for len(p.MidiCodes) < pageCount {
		p.MidiCodes = append(p.MidiCodes, NotePage{})
	}
	p.MidiCodes = p.MidiCodes[:pageCount]
	for i := range p.Messages {
		for len(p.Messages[i].Actives) < pageCount {
			p.Messages[i].Actives = append(p.Messages[i].Actives, StepPage{})
		}
		p.Messages[i].Actives = p.Messages[i].Actives[:pageCount]
	}
}

// OscMessages returns the messages the pattern emits on the given tick:
// the MIDI code first, then the message rows in declaration order.
func (p *Pattern) OscMessages(tick int) []OscMessage {
	page, index := tick/4, tick%4
	if tick < 0 || page >= p.PageCount {
		logger.Error("Pattern tick out of range",
			logger.String("pattern", p.Name),
			logger.Int("page", page),
			logger.Int("page_count", p.PageCount),
		)
		return nil
	}

	var ret []OscMessage
	if code := p.MidiCodes[page][index]; code != nil {
		ret = append(ret, OscMessage{
			Path: p.MidiPath,
			Arg:  FloatArg(float32(*code)),
		})
	}
	for _, message := range p.Messages {
		if message.Actives[page][index] {
			ret = append(ret, message.Payload)
		}
	}
	return ret
}

// Clone returns a deep copy of the pattern
func (p *Pattern) Clone() *Pattern {
	clone := *p
	clone.MidiCodes = make([]NotePage, len(p.MidiCodes))
	for i, page := range p.MidiCodes {
		for j, code := range page {
			if code != nil {
				v := *code
				clone.MidiCodes[i][j] = &v
			}
		}
	}
	clone.Messages = make([]Messages, len(p.Messages))
	for i, message := range p.Messages {
		clone.Messages[i].Payload = message.Payload
		clone.Messages[i].Actives = append([]StepPage(nil), message.Actives...)
	}
	return &clone
}

// Track is an ordered playlist of patterns referenced by name
type Track struct {
	Name     string   `json:"name"`
	Active   bool     `json:"active"`
	Loop     bool     `json:"loop"`
	Progress *int     `json:"progress"`
	Patterns []string `json:"patterns"`
}

// NewTrack creates an inactive empty track
func NewTrack(name string) *Track {
	return &Track{
		Name:     name,
		Active:   false,
		Loop:     false,
		Progress: nil,
		Patterns: []string{},
	}
}

// Clone returns a deep copy of the track
func (t *Track) Clone() *Track {
	clone := *t
	if t.Progress != nil {
		v := *t.Progress
		clone.Progress = &v
	}
	clone.Patterns = append([]string(nil), t.Patterns...)
	return &clone
}

// TotalLength returns the summed tick count of the track's resolvable
// patterns, in order
func (t *Track) TotalLength(lookup func(string) *Pattern) int {
	total := 0
	for _, name := range t.Patterns {
		if pat := lookup(name); pat != nil {
			total += pat.TickCount()
		}
	}
	return total
}

// Step plays the track forward one tick. It returns the messages the track
// emits on its current progress and whether the track auto-deactivated.
// Tracks start and stop only at the bar boundary given by modBeat; an
// inactive track with leftover progress drains until it reaches one.
func (t *Track) Step(tick int, lookup func(string) *Pattern) ([]OscMessage, bool) {
	var resolved []*Pattern
	total := 0
	for _, name := range t.Patterns {
		if pat := lookup(name); pat != nil {
			resolved = append(resolved, pat)
			total += pat.TickCount()
		}
	}
	if total == 0 {
		return nil, false
	}

	if !t.Active && t.Progress != nil {
		if modBeat(total, *t.Progress) == 0 {
			t.Progress = nil
			return nil, false
		}
	}
	if t.Progress == nil {
		if !t.Active || modBeat(total, tick) != 0 {
			return nil, false
		}
		start := modBeat(total, tick)
		t.Progress = &start
	}

	progress := *t.Progress
	remainder := progress
	var current *Pattern
	for _, pat := range resolved {
		if remainder < pat.TickCount() {
			current = pat
			break
		}
		remainder -= pat.TickCount()
	}

	stopped := false
	if progress+1 >= total {
		if t.Loop {
			next := 0
			t.Progress = &next
		} else {
			t.Active = false
			t.Progress = nil
			stopped = true
		}
	} else {
		next := progress + 1
		t.Progress = &next
	}

	if current == nil {
		return nil, stopped
	}
	return current.OscMessages(remainder), stopped
}

// modBeat returns the tick's offset within the coarsest bar that fits the
// track: 16 ticks when the track is at least a bar long, else 8, else 4.
func modBeat(totalLength, x int) int {
	switch {
	case totalLength >= 16:
		return x % 16
	case totalLength >= 8:
		return x % 8
	default:
		return x % 4
	}
}

// Event is a named one-shot OSC message with an optional keyboard shortcut
type Event struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Shortcut string `json:"shortcut,omitempty"`
	Payload  OscArg `json:"payload"`
}

// NewEvent creates an event with the default path and payload
func NewEvent(name string) *Event {
	return &Event{
		Name:    name,
		Path:    "/",
		Payload: DefaultArg(),
	}
}

// Message returns the OSC message the event fires
func (e *Event) Message() OscMessage {
	return OscMessage{Path: e.Path, Arg: e.Payload}
}

// Slider is a named continuous control bound to an OSC path
type Slider struct {
	Name string  `json:"name"`
	Path string  `json:"path"`
	Val  float32 `json:"val"`
	Min  float32 `json:"min"`
	Max  float32 `json:"max"`
}

// NewSlider creates a slider with the default path and a unit range
func NewSlider(name string) *Slider {
	return &Slider{
		Name: name,
		Path: "/",
		Val:  0,
		Min:  0,
		Max:  1,
	}
}

// Message returns the OSC message carrying the slider's current value
func (s *Slider) Message() OscMessage {
	return OscMessage{Path: s.Path, Arg: FloatArg(s.Val)}
}
