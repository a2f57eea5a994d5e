package session

import (
	"fmt"

	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/internal/protocol"
	"github.com/Saplyn/vibe/pkg/logger"
)

// dispatch routes one inbound frame to its handler. Unknown actions are
// logged and ignored so protocol growth never kills a session.
func (s *Session) dispatch(frame *protocol.ServerFrame) {
	metrics.CommandsProcessed.WithLabelValues(frame.Action).Inc()

	switch frame.Action {
	case protocol.ActionSetProjectName:
		s.handleSetProjectName(frame)
	case protocol.ActionCommChangeAddr:
		s.handleCommChangeAddr(frame)
	case protocol.ActionCtrlChangeContext:
		s.handleCtrlChangeContext(frame)

	case protocol.ActionPatternAdd:
		s.handlePatternAdd(frame)
	case protocol.ActionPatternDelete:
		s.handlePatternDelete(frame)
	case protocol.ActionPatternEdit:
		s.handlePatternEdit(frame)

	case protocol.ActionTrackAdd:
		s.handleTrackAdd(frame)
	case protocol.ActionTrackDelete:
		s.handleTrackDelete(frame)
	case protocol.ActionTrackEdit:
		s.handleTrackEdit(frame)
	case protocol.ActionTrackMakeActive:
		s.handleTrackMakeActive(frame)
	case protocol.ActionTrackMakeLoop:
		s.handleTrackMakeLoop(frame)

	case protocol.ActionEventAdd:
		s.handleEventAdd(frame)
	case protocol.ActionEventDelete:
		s.handleEventDelete(frame)
	case protocol.ActionEventEdit:
		s.handleEventEdit(frame)
	case protocol.ActionEventFire:
		s.handleEventFire(frame)

	case protocol.ActionSliderAdd:
		s.handleSliderAdd(frame)
	case protocol.ActionSliderDelete:
		s.handleSliderDelete(frame)
	case protocol.ActionSliderEdit:
		s.handleSliderEdit(frame)
	case protocol.ActionSliderSetVal:
		s.handleSliderSetVal(frame)

	case protocol.ActionTickerPlay:
		s.deps.Ticker.Play()
		s.deps.Hub.Broadcast(protocol.TickerPlaying())
	case protocol.ActionTickerPause:
		s.deps.Ticker.Pause()
		s.deps.Hub.Broadcast(protocol.TickerPaused())
	case protocol.ActionTickerStop:
		s.handleTickerStop()
	case protocol.ActionTickerSetBpm:
		s.handleTickerSetBpm(frame)

	case protocol.ActionRequestTickerBpm,
		protocol.ActionRequestTickerPlaying,
		protocol.ActionRequestTickerTick,
		protocol.ActionRequestProjectName,
		protocol.ActionRequestCommAddr,
		protocol.ActionRequestCommStatus,
		protocol.ActionRequestCtrlContext,
		protocol.ActionRequestTrack,
		protocol.ActionRequestAllTracks,
		protocol.ActionRequestPattern,
		protocol.ActionRequestAllPatterns,
		protocol.ActionRequestEvent,
		protocol.ActionRequestAllEvents,
		protocol.ActionRequestSlider,
		protocol.ActionRequestAllSliders:
		s.dispatchRequest(frame)

	default:
		logger.Warn("Unknown client action",
			logger.String("session_id", s.ID),
			logger.String("action", frame.Action),
		)
	}
}

// badPayload logs a malformed payload; the session continues
func (s *Session) badPayload(err error) {
	logger.Warn("Malformed client payload",
		logger.String("session_id", s.ID),
		logger.ErrorField(err),
	)
}

func (s *Session) handleSetProjectName(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	s.deps.Store.SetName(payload.Name)
	s.deps.Hub.Broadcast(protocol.ProjectNameUpdated(payload.Name))
}

func (s *Session) handleCommChangeAddr(frame *protocol.ServerFrame) {
	var payload protocol.AddrPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	s.deps.Communicator.ChangeTargetAddr(payload.Addr)
	s.deps.Hub.Broadcast(protocol.CommAddrChanged(payload.Addr))
}

func (s *Session) handleCtrlChangeContext(frame *protocol.ServerFrame) {
	var payload protocol.ContextPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	if payload.Context != nil {
		if _, ok := s.deps.Store.PatternPageCount(*payload.Context); !ok {
			s.notifyError(
				"Failed to Change Context",
				fmt.Sprintf("Pattern with name %q does not exist", *payload.Context),
			)
			return
		}
	}
	s.deps.Controller.ChangeContext(payload.Context)
	s.deps.Hub.Broadcast(protocol.CtrlContextChanged(payload.Context))
}

// Pattern commands

func (s *Session) handlePatternAdd(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	var added *models.Pattern
	s.deps.Store.UpdatePatterns(func(patterns map[string]*models.Pattern) {
		if _, ok := patterns[payload.Name]; ok {
			return
		}
		added = models.NewPattern(payload.Name)
		patterns[payload.Name] = added
	})
	if added == nil {
		s.notifyError(
			"Failed to Add Pattern",
			fmt.Sprintf("Pattern with name %q already exists", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.PatternAdded(payload.Name, added.Clone()))
}

func (s *Session) handlePatternDelete(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	removed := false
	s.deps.Store.UpdatePatterns(func(patterns map[string]*models.Pattern) {
		if _, ok := patterns[payload.Name]; ok {
			delete(patterns, payload.Name)
			removed = true
		}
	})
	if !removed {
		s.notifyError(
			"Failed to Delete Pattern",
			fmt.Sprintf("Pattern with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.PatternDeleted(payload.Name))
}

func (s *Session) handlePatternEdit(frame *protocol.ServerFrame) {
	var payload protocol.PatternEditPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	// the key is authoritative; the grid is renormalised to its page count
	pattern := payload.Pattern
	pattern.Name = payload.Name
	pattern.Resize(pattern.PageCount)

	replaced := false
	s.deps.Store.UpdatePatterns(func(patterns map[string]*models.Pattern) {
		if _, ok := patterns[payload.Name]; ok {
			patterns[payload.Name] = &pattern
			replaced = true
		}
	})
	if !replaced {
		s.notifyError(
			fmt.Sprintf("Failed to Edit Pattern %s", payload.Name),
			fmt.Sprintf("Pattern with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.PatternEdited(payload.Name, pattern.Clone()))
}

// Track commands

func (s *Session) handleTrackAdd(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	var added *models.Track
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		if _, ok := tracks[payload.Name]; ok {
			return
		}
		added = models.NewTrack(payload.Name)
		tracks[payload.Name] = added
	})
	if added == nil {
		s.notifyError(
			"Failed to Add Track",
			fmt.Sprintf("Track with name %q already exists", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.TrackAdded(payload.Name, added.Clone()))
}

func (s *Session) handleTrackDelete(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	removed := false
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		if _, ok := tracks[payload.Name]; ok {
			delete(tracks, payload.Name)
			removed = true
		}
	})
	if !removed {
		s.notifyError(
			"Failed to Delete Track",
			fmt.Sprintf("Track with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.TrackDeleted(payload.Name))
}

func (s *Session) handleTrackEdit(frame *protocol.ServerFrame) {
	var payload protocol.TrackEditPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	track := payload.Track
	track.Name = payload.Name

	replaced := false
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		if _, ok := tracks[payload.Name]; ok {
			tracks[payload.Name] = &track
			replaced = true
		}
	})
	if !replaced {
		s.notifyError(
			"Failed to Edit Track",
			fmt.Sprintf("Track with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.TrackEdited(payload.Name, track.Clone()))
}

func (s *Session) handleTrackMakeActive(frame *protocol.ServerFrame) {
	var payload protocol.TrackMakeActivePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	tickState := s.deps.Ticker.TickState()

	var updated *models.Track
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		track, ok := tracks[payload.Name]
		if !ok {
			return
		}
		track.Active = payload.Active
		if payload.Force {
			if payload.Active && !tickState.Stopped() {
				progress := tickState.Tick % 4
				track.Progress = &progress
			} else {
				track.Progress = nil
			}
		}
		updated = track.Clone()
	})
	if updated == nil {
		s.notifyError(
			"Failed to Make Active",
			fmt.Sprintf("Track with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.TrackMadeActive(payload.Name, payload.Active))
	s.deps.Hub.Broadcast(protocol.TrackProgressUpdate(payload.Name, updated.Progress))
}

func (s *Session) handleTrackMakeLoop(frame *protocol.ServerFrame) {
	var payload protocol.TrackMakeLoopPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	found := false
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		track, ok := tracks[payload.Name]
		if !ok {
			return
		}
		track.Loop = payload.Loop
		found = true
	})
	if !found {
		s.notifyError(
			"Failed to Make Loop",
			fmt.Sprintf("Track with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.TrackMadeLoop(payload.Name, payload.Loop))
}

// Event commands

func (s *Session) handleEventAdd(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	var added *models.Event
	s.deps.Store.UpdateEvents(func(events map[string]*models.Event) {
		if _, ok := events[payload.Name]; ok {
			return
		}
		added = models.NewEvent(payload.Name)
		events[payload.Name] = added
	})
	if added == nil {
		s.notifyError(
			"Failed to Add Event",
			fmt.Sprintf("Event with name %q already exists", payload.Name),
		)
		return
	}
	clone := *added
	s.deps.Hub.Broadcast(protocol.EventAdded(payload.Name, &clone))
}

func (s *Session) handleEventDelete(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	removed := false
	s.deps.Store.UpdateEvents(func(events map[string]*models.Event) {
		if _, ok := events[payload.Name]; ok {
			delete(events, payload.Name)
			removed = true
		}
	})
	if !removed {
		s.notifyError(
			"Failed to Delete Event",
			fmt.Sprintf("Event with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.EventDeleted(payload.Name))
}

func (s *Session) handleEventEdit(frame *protocol.ServerFrame) {
	var payload protocol.EventEditPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	event := payload.Event
	event.Name = payload.Name

	replaced := false
	s.deps.Store.UpdateEvents(func(events map[string]*models.Event) {
		if _, ok := events[payload.Name]; ok {
			events[payload.Name] = &event
			replaced = true
		}
	})
	if !replaced {
		s.notifyError(
			"Failed to Edit Event",
			fmt.Sprintf("Event with name %q does not exist", payload.Name),
		)
		return
	}
	clone := event
	s.deps.Hub.Broadcast(protocol.EventEdited(payload.Name, &clone))
}

func (s *Session) handleEventFire(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	event, ok := s.deps.Store.Event(payload.Name)
	if !ok {
		s.notifyError(
			"Failed to Fire Event",
			fmt.Sprintf("Event with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Communicator.SendMessage(event.Message())
}

// Slider commands

func (s *Session) handleSliderAdd(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	var added *models.Slider
	s.deps.Store.UpdateSliders(func(sliders map[string]*models.Slider) {
		if _, ok := sliders[payload.Name]; ok {
			return
		}
		added = models.NewSlider(payload.Name)
		sliders[payload.Name] = added
	})
	if added == nil {
		s.notifyError(
			"Failed to Add Slider",
			fmt.Sprintf("Slider with name %q already exists", payload.Name),
		)
		return
	}
	clone := *added
	s.deps.Hub.Broadcast(protocol.SliderAdded(payload.Name, &clone))
}

func (s *Session) handleSliderDelete(frame *protocol.ServerFrame) {
	var payload protocol.NamePayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	removed := false
	s.deps.Store.UpdateSliders(func(sliders map[string]*models.Slider) {
		if _, ok := sliders[payload.Name]; ok {
			delete(sliders, payload.Name)
			removed = true
		}
	})
	if !removed {
		s.notifyError(
			"Failed to Delete Slider",
			fmt.Sprintf("Slider with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.SliderDeleted(payload.Name))
}

func (s *Session) handleSliderEdit(frame *protocol.ServerFrame) {
	var payload protocol.SliderEditPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	slider := payload.Slider
	slider.Name = payload.Name

	replaced := false
	s.deps.Store.UpdateSliders(func(sliders map[string]*models.Slider) {
		if _, ok := sliders[payload.Name]; ok {
			sliders[payload.Name] = &slider
			replaced = true
		}
	})
	if !replaced {
		s.notifyError(
			"Failed to Edit Slider",
			fmt.Sprintf("Slider with name %q does not exist", payload.Name),
		)
		return
	}
	clone := slider
	s.deps.Hub.Broadcast(protocol.SliderEdited(payload.Name, &clone))
}

func (s *Session) handleSliderSetVal(frame *protocol.ServerFrame) {
	var payload protocol.SliderSetValPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	var updated *models.Slider
	s.deps.Store.UpdateSliders(func(sliders map[string]*models.Slider) {
		slider, ok := sliders[payload.Name]
		if !ok {
			return
		}
		slider.Val = payload.Val
		clone := *slider
		updated = &clone
	})
	if updated == nil {
		s.notifyError(
			"Failed to Set Slider Value",
			fmt.Sprintf("Slider with name %q does not exist", payload.Name),
		)
		return
	}
	s.deps.Hub.Broadcast(protocol.SliderValSet(payload.Name, payload.Val))
	s.deps.Communicator.SendMessage(updated.Message())
}

// Ticker commands

func (s *Session) handleTickerStop() {
	s.deps.Ticker.Stop()
	s.deps.Hub.Broadcast(protocol.TickerStopped())

	// stopping the clock also rewinds every track
	var names []string
	s.deps.Store.UpdateTracks(func(tracks map[string]*models.Track) {
		for name, track := range tracks {
			track.Progress = nil
			names = append(names, name)
		}
	})
	for _, name := range names {
		s.deps.Hub.Broadcast(protocol.TrackProgressUpdate(name, nil))
	}
}

func (s *Session) handleTickerSetBpm(frame *protocol.ServerFrame) {
	var payload protocol.BpmPayload
	if err := frame.Decode(&payload); err != nil {
		s.badPayload(err)
		return
	}
	s.deps.Ticker.SetBpm(payload.Bpm)
	s.deps.Hub.Broadcast(protocol.TickerBpmUpdated(payload.Bpm))
}
