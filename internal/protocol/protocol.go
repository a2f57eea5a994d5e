// Package protocol defines the JSON frames exchanged with editor clients.
// Every frame is an object {"action": <PascalCase variant>, "payload": ...};
// a frame without payload omits the field.
package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/Saplyn/vibe/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server command actions (client → daemon)
const (
	ActionSetProjectName = "SetProjectName"

	ActionCommChangeAddr = "CommChangeAddr"

	ActionCtrlChangeContext = "CtrlChangeContext"

	ActionTrackAdd        = "TrackAdd"
	ActionTrackDelete     = "TrackDelete"
	ActionTrackEdit       = "TrackEdit"
	ActionTrackMakeActive = "TrackMakeActive"
	ActionTrackMakeLoop   = "TrackMakeLoop"

	ActionPatternAdd    = "PatternAdd"
	ActionPatternDelete = "PatternDelete"
	ActionPatternEdit   = "PatternEdit"

	ActionEventAdd    = "EventAdd"
	ActionEventDelete = "EventDelete"
	ActionEventEdit   = "EventEdit"
	ActionEventFire   = "EventFire"

	ActionSliderAdd    = "SliderAdd"
	ActionSliderDelete = "SliderDelete"
	ActionSliderEdit   = "SliderEdit"
	ActionSliderSetVal = "SliderSetVal"

	ActionTickerPlay   = "TickerPlay"
	ActionTickerPause  = "TickerPause"
	ActionTickerStop   = "TickerStop"
	ActionTickerSetBpm = "TickerSetBpm"

	ActionRequestTickerBpm     = "RequestTickerBpm"
	ActionRequestTickerPlaying = "RequestTickerPlaying"
	ActionRequestTickerTick    = "RequestTickerTick"
	ActionRequestProjectName   = "RequestProjectName"
	ActionRequestCommAddr      = "RequestCommAddr"
	ActionRequestCommStatus    = "RequestCommStatus"
	ActionRequestCtrlContext   = "RequestCtrlContext"
	ActionRequestTrack         = "RequestTrack"
	ActionRequestAllTracks     = "RequestAllTracks"
	ActionRequestPattern       = "RequestPattern"
	ActionRequestAllPatterns   = "RequestAllPatterns"
	ActionRequestEvent         = "RequestEvent"
	ActionRequestAllEvents     = "RequestAllEvents"
	ActionRequestSlider        = "RequestSlider"
	ActionRequestAllSliders    = "RequestAllSliders"
)

// Severity grades a Notify frame
type Severity string

const (
	SeveritySuccess   Severity = "success"
	SeverityInfo      Severity = "info"
	SeverityWarn      Severity = "warn"
	SeverityError     Severity = "error"
	SeveritySecondary Severity = "secondary"
	SeverityContrast  Severity = "contrast"
)

// ServerFrame is an inbound frame with its payload still undecoded
type ServerFrame struct {
	Action  string              `json:"action"`
	Payload jsoniter.RawMessage `json:"payload"`
}

// ParseServerFrame decodes an inbound text frame
func ParseServerFrame(data []byte) (*ServerFrame, error) {
	var frame ServerFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to parse server frame: %w", err)
	}
	if frame.Action == "" {
		return nil, fmt.Errorf("server frame has no action")
	}
	return &frame, nil
}

// Decode unmarshals the frame payload into v
func (f *ServerFrame) Decode(v interface{}) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", f.Action)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("%s: bad payload: %w", f.Action, err)
	}
	return nil
}

// Inbound payload shapes

type NamePayload struct {
	Name string `json:"name"`
}

type AddrPayload struct {
	Addr string `json:"addr"`
}

type ContextPayload struct {
	Context *string `json:"context"`
}

type BpmPayload struct {
	Bpm float32 `json:"bpm"`
}

type TrackEditPayload struct {
	Name  string       `json:"name"`
	Track models.Track `json:"track"`
}

type TrackMakeActivePayload struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Force  bool   `json:"force"`
}

type TrackMakeLoopPayload struct {
	Name string `json:"name"`
	Loop bool   `json:"loop"`
}

type PatternEditPayload struct {
	Name    string         `json:"name"`
	Pattern models.Pattern `json:"pattern"`
}

type EventEditPayload struct {
	Name  string       `json:"name"`
	Event models.Event `json:"event"`
}

type SliderEditPayload struct {
	Name   string        `json:"name"`
	Slider models.Slider `json:"slider"`
}

type SliderSetValPayload struct {
	Name string  `json:"name"`
	Val  float32 `json:"val"`
}

// ClientCommand is an outbound frame (daemon → client)
type ClientCommand struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

// Encode serialises the command as a text frame
func (c ClientCommand) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode client command %s: %w", c.Action, err)
	}
	return data, nil
}
