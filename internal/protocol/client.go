package protocol

import (
	"github.com/Saplyn/vibe/internal/models"
)

// Constructors for every daemon → client frame.

func ProjectNameUpdated(name string) ClientCommand {
	return ClientCommand{Action: "ProjectNameUpdated", Payload: NamePayload{Name: name}}
}

func CommAddrChanged(addr string) ClientCommand {
	return ClientCommand{Action: "CommAddrChanged", Payload: AddrPayload{Addr: addr}}
}

func CommStatusChanged(established bool) ClientCommand {
	return ClientCommand{Action: "CommStatusChanged", Payload: establishedPayload{Established: established}}
}

func CtrlContextChanged(context *string) ClientCommand {
	return ClientCommand{Action: "CtrlContextChanged", Payload: ContextPayload{Context: context}}
}

func TrackAdded(name string, track *models.Track) ClientCommand {
	return ClientCommand{Action: "TrackAdded", Payload: trackPayload{Name: name, Track: track}}
}

func TrackDeleted(name string) ClientCommand {
	return ClientCommand{Action: "TrackDeleted", Payload: NamePayload{Name: name}}
}

func TrackEdited(name string, track *models.Track) ClientCommand {
	return ClientCommand{Action: "TrackEdited", Payload: trackPayload{Name: name, Track: track}}
}

func TrackMadeActive(name string, active bool) ClientCommand {
	return ClientCommand{Action: "TrackMadeActive", Payload: trackActivePayload{Name: name, Active: active}}
}

func TrackMadeLoop(name string, loop bool) ClientCommand {
	return ClientCommand{Action: "TrackMadeLoop", Payload: TrackMakeLoopPayload{Name: name, Loop: loop}}
}

func TrackProgressUpdate(name string, progress *int) ClientCommand {
	return ClientCommand{Action: "TrackProgressUpdate", Payload: trackProgressPayload{Name: name, Progress: progress}}
}

func PatternAdded(name string, pattern *models.Pattern) ClientCommand {
	return ClientCommand{Action: "PatternAdded", Payload: patternPayload{Name: name, Pattern: pattern}}
}

func PatternDeleted(name string) ClientCommand {
	return ClientCommand{Action: "PatternDeleted", Payload: NamePayload{Name: name}}
}

func PatternEdited(name string, pattern *models.Pattern) ClientCommand {
	return ClientCommand{Action: "PatternEdited", Payload: patternPayload{Name: name, Pattern: pattern}}
}

func EventAdded(name string, event *models.Event) ClientCommand {
	return ClientCommand{Action: "EventAdded", Payload: eventPayload{Name: name, Event: event}}
}

func EventDeleted(name string) ClientCommand {
	return ClientCommand{Action: "EventDeleted", Payload: NamePayload{Name: name}}
}

func EventEdited(name string, event *models.Event) ClientCommand {
	return ClientCommand{Action: "EventEdited", Payload: eventPayload{Name: name, Event: event}}
}

func SliderAdded(name string, slider *models.Slider) ClientCommand {
	return ClientCommand{Action: "SliderAdded", Payload: sliderPayload{Name: name, Slider: slider}}
}

func SliderDeleted(name string) ClientCommand {
	return ClientCommand{Action: "SliderDeleted", Payload: NamePayload{Name: name}}
}

func SliderEdited(name string, slider *models.Slider) ClientCommand {
	return ClientCommand{Action: "SliderEdited", Payload: sliderPayload{Name: name, Slider: slider}}
}

func SliderValSet(name string, val float32) ClientCommand {
	return ClientCommand{Action: "SliderValSet", Payload: SliderSetValPayload{Name: name, Val: val}}
}

func TickerPlaying() ClientCommand {
	return ClientCommand{Action: "TickerPlaying"}
}

func TickerPaused() ClientCommand {
	return ClientCommand{Action: "TickerPaused"}
}

func TickerStopped() ClientCommand {
	return ClientCommand{Action: "TickerStopped"}
}

func TickerTick(tick, max int) ClientCommand {
	return ClientCommand{Action: "TickerTick", Payload: tickPayload{Tick: tick, Max: max}}
}

func TickerBpmUpdated(bpm float32) ClientCommand {
	return ClientCommand{Action: "TickerBpmUpdated", Payload: BpmPayload{Bpm: bpm}}
}

func ResponseTickerBpm(bpm float32) ClientCommand {
	return ClientCommand{Action: "ResponseTickerBpm", Payload: BpmPayload{Bpm: bpm}}
}

func ResponseTickerPlaying(playing bool) ClientCommand {
	return ClientCommand{Action: "ResponseTickerPlaying", Payload: playingPayload{Playing: playing}}
}

// ResponseTickerTick reports tick as a signed integer, -1 meaning stopped
func ResponseTickerTick(tick, max int) ClientCommand {
	return ClientCommand{Action: "ResponseTickerTick", Payload: tickPayload{Tick: tick, Max: max}}
}

func ResponseProjectName(name string) ClientCommand {
	return ClientCommand{Action: "ResponseProjectName", Payload: NamePayload{Name: name}}
}

func ResponseCommAddr(addr string) ClientCommand {
	return ClientCommand{Action: "ResponseCommAddr", Payload: AddrPayload{Addr: addr}}
}

func ResponseCommStatus(established bool) ClientCommand {
	return ClientCommand{Action: "ResponseCommStatus", Payload: establishedPayload{Established: established}}
}

func ResponseCtrlContext(context *string) ClientCommand {
	return ClientCommand{Action: "ResponseCtrlContext", Payload: ContextPayload{Context: context}}
}

func ResponseTrack(name string, track *models.Track) ClientCommand {
	return ClientCommand{Action: "ResponseTrack", Payload: trackPayload{Name: name, Track: track}}
}

func ResponseAllTracks(tracks map[string]*models.Track) ClientCommand {
	return ClientCommand{Action: "ResponseAllTracks", Payload: allTracksPayload{Tracks: tracks}}
}

func ResponsePattern(name string, pattern *models.Pattern) ClientCommand {
	return ClientCommand{Action: "ResponsePattern", Payload: patternPayload{Name: name, Pattern: pattern}}
}

func ResponseAllPatterns(patterns map[string]*models.Pattern) ClientCommand {
	return ClientCommand{Action: "ResponseAllPatterns", Payload: allPatternsPayload{Patterns: patterns}}
}

func ResponseEvent(name string, event *models.Event) ClientCommand {
	return ClientCommand{Action: "ResponseEvent", Payload: eventPayload{Name: name, Event: event}}
}

func ResponseAllEvents(events map[string]*models.Event) ClientCommand {
	return ClientCommand{Action: "ResponseAllEvents", Payload: allEventsPayload{Events: events}}
}

func ResponseSlider(name string, slider *models.Slider) ClientCommand {
	return ClientCommand{Action: "ResponseSlider", Payload: sliderPayload{Name: name, Slider: slider}}
}

func ResponseAllSliders(sliders map[string]*models.Slider) ClientCommand {
	return ClientCommand{Action: "ResponseAllSliders", Payload: allSlidersPayload{Sliders: sliders}}
}

func Notify(severity Severity, summary, detail string) ClientCommand {
	return ClientCommand{Action: "Notify", Payload: notifyPayload{
		Severity: severity,
		Summary:  summary,
		Detail:   detail,
	}}
}

// Outbound payload shapes

type establishedPayload struct {
	Established bool `json:"established"`
}

type playingPayload struct {
	Playing bool `json:"playing"`
}

type tickPayload struct {
	Tick int `json:"tick"`
	Max  int `json:"max"`
}

type trackPayload struct {
	Name  string        `json:"name"`
	Track *models.Track `json:"track"`
}

type trackActivePayload struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type trackProgressPayload struct {
	Name     string `json:"name"`
	Progress *int   `json:"progress"`
}

type patternPayload struct {
	Name    string          `json:"name"`
	Pattern *models.Pattern `json:"pattern"`
}

type eventPayload struct {
	Name  string        `json:"name"`
	Event *models.Event `json:"event"`
}

type sliderPayload struct {
	Name   string         `json:"name"`
	Slider *models.Slider `json:"slider"`
}

type allTracksPayload struct {
	Tracks map[string]*models.Track `json:"tracks"`
}

type allPatternsPayload struct {
	Patterns map[string]*models.Pattern `json:"patterns"`
}

type allEventsPayload struct {
	Events map[string]*models.Event `json:"events"`
}

type allSlidersPayload struct {
	Sliders map[string]*models.Slider `json:"sliders"`
}

type notifyPayload struct {
	Severity Severity `json:"severity"`
	Summary  string   `json:"summary"`
	Detail   string   `json:"detail"`
}
