package session

import (
	"fmt"

	"github.com/Saplyn/vibe/internal/protocol"
)

// dispatchRequest answers a Request* frame with a Response* snapshot sent to
// the requester only
func (s *Session) dispatchRequest(frame *protocol.ServerFrame) {
	switch frame.Action {
	case protocol.ActionRequestTickerBpm:
		s.reply(protocol.ResponseTickerBpm(s.deps.Store.Bpm()))

	case protocol.ActionRequestTickerPlaying:
		s.reply(protocol.ResponseTickerPlaying(s.deps.Ticker.Playing()))

	case protocol.ActionRequestTickerTick:
		state := s.deps.Ticker.TickState()
		s.reply(protocol.ResponseTickerTick(state.Tick, state.Max))

	case protocol.ActionRequestProjectName:
		s.reply(protocol.ResponseProjectName(s.deps.Store.Name()))

	case protocol.ActionRequestCommAddr:
		s.reply(protocol.ResponseCommAddr(s.deps.Store.TargetAddr()))

	case protocol.ActionRequestCommStatus:
		s.reply(protocol.ResponseCommStatus(s.deps.Communicator.Connected()))

	case protocol.ActionRequestCtrlContext:
		s.reply(protocol.ResponseCtrlContext(s.deps.Controller.Context()))

	case protocol.ActionRequestTrack:
		var payload protocol.NamePayload
		if err := frame.Decode(&payload); err != nil {
			s.badPayload(err)
			return
		}
		track, ok := s.deps.Store.Track(payload.Name)
		if !ok {
			s.notifyError(
				"Failed to Request Track",
				fmt.Sprintf("Track with name %q does not exist", payload.Name),
			)
			return
		}
		s.reply(protocol.ResponseTrack(payload.Name, track))

	case protocol.ActionRequestAllTracks:
		s.reply(protocol.ResponseAllTracks(s.deps.Store.TracksSnapshot()))

	case protocol.ActionRequestPattern:
		var payload protocol.NamePayload
		if err := frame.Decode(&payload); err != nil {
			s.badPayload(err)
			return
		}
		pattern, ok := s.deps.Store.Pattern(payload.Name)
		if !ok {
			s.notifyError(
				"Failed to Request Pattern",
				fmt.Sprintf("Pattern with name %q does not exist", payload.Name),
			)
			return
		}
		s.reply(protocol.ResponsePattern(payload.Name, pattern))

	case protocol.ActionRequestAllPatterns:
		s.reply(protocol.ResponseAllPatterns(s.deps.Store.PatternsSnapshot()))

	case protocol.ActionRequestEvent:
		var payload protocol.NamePayload
		if err := frame.Decode(&payload); err != nil {
			s.badPayload(err)
			return
		}
		event, ok := s.deps.Store.Event(payload.Name)
		if !ok {
			s.notifyError(
				"Failed to Request Event",
				fmt.Sprintf("Event with name %q does not exist", payload.Name),
			)
			return
		}
		s.reply(protocol.ResponseEvent(payload.Name, event))

	case protocol.ActionRequestAllEvents:
		s.reply(protocol.ResponseAllEvents(s.deps.Store.EventsSnapshot()))

	case protocol.ActionRequestSlider:
		var payload protocol.NamePayload
		if err := frame.Decode(&payload); err != nil {
			s.badPayload(err)
			return
		}
		slider, ok := s.deps.Store.Slider(payload.Name)
		if !ok {
			s.notifyError(
				"Failed to Request Slider",
				fmt.Sprintf("Slider with name %q does not exist", payload.Name),
			)
			return
		}
		s.reply(protocol.ResponseSlider(payload.Name, slider))

	case protocol.ActionRequestAllSliders:
		s.reply(protocol.ResponseAllSliders(s.deps.Store.SlidersSnapshot()))
	}
}
