package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/store"
	"github.com/Saplyn/vibe/pkg/logger"
)

// barMax is the highest tick of one bar, used while no pattern context is set
const barMax = 15

// TickState is the engine's published playhead: Tick is -1 while stopped,
// otherwise 0..Max.
type TickState struct {
	Tick int
	Max  int
}

// Stopped reports whether the state carries no tick
func (s TickState) Stopped() bool {
	return s.Tick < 0
}

type tickerCommandKind int

const (
	tickerPlay tickerCommandKind = iota
	tickerPause
	tickerStop
	tickerSetBpm
)

type tickerCommand struct {
	kind tickerCommandKind
	bpm  float32
}

// Ticker emits a monotonically advancing tick stream at 60/(4*bpm) seconds
// per tick. Deadlines are absolute instants, so latency in one cycle does
// not accumulate into the next.
type Ticker struct {
	store      *store.Store
	controller *Controller
	cmd        chan tickerCommand
	ticks      *Watch[TickState]

	mu      sync.RWMutex
	playing bool
}

// NewTicker creates a stopped ticker publishing on the given watch
func NewTicker(st *store.Store, controller *Controller, ticks *Watch[TickState], buffer int) *Ticker {
	return &Ticker{
		store:      st,
		controller: controller,
		cmd:        make(chan tickerCommand, buffer),
		ticks:      ticks,
	}
}

// Ticks returns the tick watch for subscription
func (t *Ticker) Ticks() *Watch[TickState] {
	return t.ticks
}

// TickState returns the most recently published tick state
func (t *Ticker) TickState() TickState {
	return t.ticks.Get()
}

// Playing reports whether the ticker is advancing
func (t *Ticker) Playing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}

func (t *Ticker) setPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = playing
}

// Play starts or resumes the ticker
func (t *Ticker) Play() {
	t.cmd <- tickerCommand{kind: tickerPlay}
}

// Pause freezes the ticker, preserving the residual interval
func (t *Ticker) Pause() {
	t.cmd <- tickerCommand{kind: tickerPause}
}

// Stop halts the ticker and forgets the current tick
func (t *Ticker) Stop() {
	t.cmd <- tickerCommand{kind: tickerStop}
}

// SetBpm changes the tempo and resynchronises the next deadline
func (t *Ticker) SetBpm(bpm float32) {
	t.cmd <- tickerCommand{kind: tickerSetBpm, bpm: bpm}
}

// Run drives the ticker until ctx is cancelled
func (t *Ticker) Run(ctx context.Context) {
	logger.Info("Ticker started")

	interval := bpmInterval(t.store.Bpm())
	timer := time.NewTimer(interval)
	defer timer.Stop()
	next := time.Now().Add(interval)
	remaining := interval
	tick := 0

	for {
		// a nil channel disables the deadline arm while not playing
		var deadline <-chan time.Time
		if t.Playing() {
			deadline = timer.C
		}

		select {
		case <-ctx.Done():
			logger.Info("Ticker stopped")
			return

		case <-deadline:
			t.emit(&tick)
			next = next.Add(interval)
			remaining = interval
			timer.Reset(time.Until(next))

		case cmd := <-t.cmd:
			switch cmd.kind {
			case tickerPlay:
				if !t.Playing() {
					t.setPlaying(true)
					next = time.Now().Add(remaining)
					resetTimer(timer, remaining)
				}
			case tickerPause:
				if t.Playing() {
					t.setPlaying(false)
					remaining = time.Until(next)
					if remaining < 0 {
						remaining = 0
					}
				}
			case tickerStop:
				t.setPlaying(false)
				remaining = interval
				tick = 0
				t.ticks.Set(TickState{Tick: -1, Max: 0})
			case tickerSetBpm:
				t.store.SetBpm(cmd.bpm)
				interval = bpmInterval(cmd.bpm)
				next = time.Now().Add(interval)
				remaining = interval
				resetTimer(timer, interval)
			}
		}
	}
}

// emit publishes the current tick and advances it. With a pattern context
// the cycle length follows the pattern's page count; a missing or empty
// context pattern skips the emission entirely. Without a context the cycle
// is one bar.
func (t *Ticker) emit(tick *int) {
	max := barMax
	if name := t.controller.Context(); name != nil {
		pageCount, ok := t.store.PatternPageCount(*name)
		if !ok || pageCount == 0 {
			logger.Debug("Tick skipped, context pattern not playable",
				logger.String("pattern", *name),
			)
			return
		}
		max = 4*pageCount - 1
	}

	if *tick > max {
		*tick = max
	}
	t.ticks.Set(TickState{Tick: *tick, Max: max})
	metrics.TicksEmitted.Inc()

	if *tick >= max {
		*tick = 0
	} else {
		*tick++
	}
}

// bpmInterval converts a tempo to the duration of one sixteenth-note tick
func bpmInterval(bpm float32) time.Duration {
	return time.Duration(60.0 / (4.0 * float64(bpm)) * float64(time.Second))
}

// resetTimer re-arms a timer whose channel may hold a stale fire
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
