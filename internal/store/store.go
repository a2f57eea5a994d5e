package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the single source of truth for the project. Every map is guarded
// by its own reader-writer lock; small scalar cells likewise.
type Store struct {
	nameMu sync.RWMutex
	name   string

	bpmMu sync.RWMutex
	bpm   float32

	addrMu     sync.RWMutex
	targetAddr string

	patternsMu sync.RWMutex
	patterns   map[string]*models.Pattern

	tracksMu sync.RWMutex
	tracks   map[string]*models.Track

	eventsMu sync.RWMutex
	events   map[string]*models.Event

	slidersMu sync.RWMutex
	sliders   map[string]*models.Slider
}

// Snapshot is the persisted JSON form of the store
type Snapshot struct {
	Name       string                     `json:"name"`
	Bpm        float32                    `json:"bpm"`
	TargetAddr string                     `json:"target_addr"`
	Patterns   map[string]*models.Pattern `json:"patterns"`
	Tracks     map[string]*models.Track   `json:"tracks"`
	Events     map[string]*models.Event   `json:"events"`
	Sliders    map[string]*models.Slider  `json:"sliders"`
}

// Defaults holds the values used when no snapshot can be loaded
type Defaults struct {
	Name       string
	Bpm        float32
	TargetAddr string
}

// New creates an empty store populated with defaults
func New(defaults Defaults) *Store {
	return &Store{
		name:       defaults.Name,
		bpm:        defaults.Bpm,
		targetAddr: defaults.TargetAddr,
		patterns:   make(map[string]*models.Pattern),
		tracks:     make(map[string]*models.Track),
		events:     make(map[string]*models.Event),
		sliders:    make(map[string]*models.Slider),
	}
}

// Load reads a snapshot from path. A missing or corrupt file falls back to
// defaults; the daemon never refuses to start over a bad save file.
func Load(path string, defaults Defaults) *Store {
	s := New(defaults)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read store file, using defaults",
				logger.String("path", path),
				logger.ErrorField(err),
			)
		}
		return s
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("Failed to parse store file, using defaults",
			logger.String("path", path),
			logger.ErrorField(err),
		)
		return s
	}

	s.Restore(&snap)
	logger.Info("Store loaded",
		logger.String("path", path),
		logger.String("name", snap.Name),
		logger.Int("patterns", len(snap.Patterns)),
		logger.Int("tracks", len(snap.Tracks)),
	)
	return s
}

// Restore replaces the store contents with a snapshot
func (s *Store) Restore(snap *Snapshot) {
	s.SetName(snap.Name)
	s.SetBpm(snap.Bpm)
	s.SetTargetAddr(snap.TargetAddr)

	s.patternsMu.Lock()
	s.patterns = make(map[string]*models.Pattern, len(snap.Patterns))
	for name, pattern := range snap.Patterns {
		s.patterns[name] = pattern.Clone()
	}
	s.patternsMu.Unlock()

	s.tracksMu.Lock()
	s.tracks = make(map[string]*models.Track, len(snap.Tracks))
	for name, track := range snap.Tracks {
		s.tracks[name] = track.Clone()
	}
	s.tracksMu.Unlock()

	s.eventsMu.Lock()
	s.events = make(map[string]*models.Event, len(snap.Events))
	for name, event := range snap.Events {
		clone := *event
		s.events[name] = &clone
	}
	s.eventsMu.Unlock()

	s.slidersMu.Lock()
	s.sliders = make(map[string]*models.Slider, len(snap.Sliders))
	for name, slider := range snap.Sliders {
		clone := *slider
		s.sliders[name] = &clone
	}
	s.slidersMu.Unlock()
}

// Snapshot captures the current store contents under read locks, so a
// concurrent edit can never produce a torn map.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Name:       s.Name(),
		Bpm:        s.Bpm(),
		TargetAddr: s.TargetAddr(),
		Patterns:   s.PatternsSnapshot(),
		Tracks:     s.TracksSnapshot(),
		Events:     s.EventsSnapshot(),
		Sliders:    s.SlidersSnapshot(),
	}
	return snap
}

// Save writes a pretty-printed snapshot to path via a temp-file rename
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Name returns the project name
func (s *Store) Name() string {
	s.nameMu.RLock()
	defer s.nameMu.RUnlock()
	return s.name
}

// SetName sets the project name
func (s *Store) SetName(name string) {
	s.nameMu.Lock()
	defer s.nameMu.Unlock()
	s.name = name
}

// Bpm returns the current tempo
func (s *Store) Bpm() float32 {
	s.bpmMu.RLock()
	defer s.bpmMu.RUnlock()
	return s.bpm
}

// SetBpm sets the current tempo
func (s *Store) SetBpm(bpm float32) {
	s.bpmMu.Lock()
	defer s.bpmMu.Unlock()
	s.bpm = bpm
}

// TargetAddr returns the OSC target address
func (s *Store) TargetAddr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.targetAddr
}

// SetTargetAddr sets the OSC target address
func (s *Store) SetTargetAddr(addr string) {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	s.targetAddr = addr
}

// ViewPatterns runs fn with shared access to the patterns map. The map and
// its values must not be retained or mutated.
func (s *Store) ViewPatterns(fn func(patterns map[string]*models.Pattern)) {
	s.patternsMu.RLock()
	defer s.patternsMu.RUnlock()
	fn(s.patterns)
}

// UpdatePatterns runs fn with exclusive access to the patterns map
func (s *Store) UpdatePatterns(fn func(patterns map[string]*models.Pattern)) {
	s.patternsMu.Lock()
	defer s.patternsMu.Unlock()
	fn(s.patterns)
}

// ViewTracks runs fn with shared access to the tracks map
func (s *Store) ViewTracks(fn func(tracks map[string]*models.Track)) {
	s.tracksMu.RLock()
	defer s.tracksMu.RUnlock()
	fn(s.tracks)
}

// UpdateTracks runs fn with exclusive access to the tracks map
func (s *Store) UpdateTracks(fn func(tracks map[string]*models.Track)) {
	s.tracksMu.Lock()
	defer s.tracksMu.Unlock()
	fn(s.tracks)
}

// ViewEvents runs fn with shared access to the events map
func (s *Store) ViewEvents(fn func(events map[string]*models.Event)) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	fn(s.events)
}

// UpdateEvents runs fn with exclusive access to the events map
func (s *Store) UpdateEvents(fn func(events map[string]*models.Event)) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	fn(s.events)
}

// ViewSliders runs fn with shared access to the sliders map
func (s *Store) ViewSliders(fn func(sliders map[string]*models.Slider)) {
	s.slidersMu.RLock()
	defer s.slidersMu.RUnlock()
	fn(s.sliders)
}

// UpdateSliders runs fn with exclusive access to the sliders map
func (s *Store) UpdateSliders(fn func(sliders map[string]*models.Slider)) {
	s.slidersMu.Lock()
	defer s.slidersMu.Unlock()
	fn(s.sliders)
}

// Pattern returns a deep copy of the named pattern
func (s *Store) Pattern(name string) (*models.Pattern, bool) {
	s.patternsMu.RLock()
	defer s.patternsMu.RUnlock()
	pattern, ok := s.patterns[name]
	if !ok {
		return nil, false
	}
	return pattern.Clone(), true
}

// PatternPageCount returns the page count of the named pattern
func (s *Store) PatternPageCount(name string) (int, bool) {
	s.patternsMu.RLock()
	defer s.patternsMu.RUnlock()
	pattern, ok := s.patterns[name]
	if !ok {
		return 0, false
	}
	return pattern.PageCount, true
}

// Track returns a deep copy of the named track
func (s *Store) Track(name string) (*models.Track, bool) {
	s.tracksMu.RLock()
	defer s.tracksMu.RUnlock()
	track, ok := s.tracks[name]
	if !ok {
		return nil, false
	}
	return track.Clone(), true
}

// Event returns a copy of the named event
func (s *Store) Event(name string) (*models.Event, bool) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	event, ok := s.events[name]
	if !ok {
		return nil, false
	}
	clone := *event
	return &clone, true
}

// Slider returns a copy of the named slider
func (s *Store) Slider(name string) (*models.Slider, bool) {
	s.slidersMu.RLock()
	defer s.slidersMu.RUnlock()
	slider, ok := s.sliders[name]
	if !ok {
		return nil, false
	}
	clone := *slider
	return &clone, true
}

// PatternsSnapshot returns a deep copy of the patterns map
func (s *Store) PatternsSnapshot() map[string]*models.Pattern {
	s.patternsMu.RLock()
	defer s.patternsMu.RUnlock()
	snap := make(map[string]*models.Pattern, len(s.patterns))
	for name, pattern := range s.patterns {
		snap[name] = pattern.Clone()
	}
	return snap
}

// TracksSnapshot returns a deep copy of the tracks map
func (s *Store) TracksSnapshot() map[string]*models.Track {
	s.tracksMu.RLock()
	defer s.tracksMu.RUnlock()
	snap := make(map[string]*models.Track, len(s.tracks))
	for name, track := range s.tracks {
		snap[name] = track.Clone()
	}
	return snap
}

// EventsSnapshot returns a copy of the events map
func (s *Store) EventsSnapshot() map[string]*models.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	snap := make(map[string]*models.Event, len(s.events))
	for name, event := range s.events {
		clone := *event
		snap[name] = &clone
	}
	return snap
}

// SlidersSnapshot returns a copy of the sliders map
func (s *Store) SlidersSnapshot() map[string]*models.Slider {
	s.slidersMu.RLock()
	defer s.slidersMu.RUnlock()
	snap := make(map[string]*models.Slider, len(s.sliders))
	for name, slider := range s.sliders {
		clone := *slider
		snap[name] = &clone
	}
	return snap
}

// SortedTrackNames returns the track names in sorted order, giving track
// playback a deterministic iteration order.
func SortedTrackNames(tracks map[string]*models.Track) []string {
	names := make([]string, 0, len(tracks))
	for name := range tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
