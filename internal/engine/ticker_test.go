package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/internal/store"
)

// testTicker wires a ticker against an unstarted controller, which keeps the
// context nil (tracks mode, 16-tick bar).
func testTicker(t *testing.T, bpm float32) (*Ticker, *Watch[TickState], func()) {
	t.Helper()
	st := store.New(store.Defaults{Name: "test", Bpm: bpm, TargetAddr: "127.0.0.1:0"})
	ticks := NewWatch(TickState{Tick: -1})
	controller := NewController(st, nil, nil, ticks, t.TempDir()+"/store.json", time.Hour, 32)
	ticker := NewTicker(st, controller, ticks, 32)

	ctx, cancel := context.WithCancel(context.Background())
	go ticker.Run(ctx)
	return ticker, ticks, cancel
}

func recvTick(t *testing.T, sub <-chan TickState, timeout time.Duration) (TickState, bool) {
	t.Helper()
	select {
	case state := <-sub:
		return state, true
	case <-time.After(timeout):
		return TickState{}, false
	}
}

func TestTickerPlayEmitsMonotonicTicks(t *testing.T) {
	// 750 bpm gives a 20ms tick, fast enough to observe a few cycles
	ticker, ticks, cancel := testTicker(t, 750)
	defer cancel()

	sub, unsub := ticks.Subscribe()
	defer unsub()

	ticker.Play()
	assert.Eventually(t, ticker.Playing, time.Second, time.Millisecond)

	last := -1
	for i := 0; i < 5; i++ {
		state, ok := recvTick(t, sub, time.Second)
		require.True(t, ok, "expected tick %d", i)
		assert.Equal(t, 15, state.Max)
		assert.Equal(t, last+1, state.Tick)
		last = state.Tick
	}
}

func TestTickerPauseFreezes(t *testing.T) {
	ticker, ticks, cancel := testTicker(t, 750)
	defer cancel()

	sub, unsub := ticks.Subscribe()
	defer unsub()

	ticker.Play()
	_, ok := recvTick(t, sub, time.Second)
	require.True(t, ok)

	ticker.Pause()
	assert.Eventually(t, func() bool { return !ticker.Playing() }, time.Second, time.Millisecond)

	// drain whatever raced the pause, then expect silence
	for {
		if _, ok := recvTick(t, sub, 50*time.Millisecond); !ok {
			break
		}
	}
	_, ok = recvTick(t, sub, 100*time.Millisecond)
	assert.False(t, ok, "ticker emitted while paused")

	ticker.Play()
	_, ok = recvTick(t, sub, time.Second)
	assert.True(t, ok, "ticker did not resume")
}

func TestTickerStopResets(t *testing.T) {
	ticker, ticks, cancel := testTicker(t, 750)
	defer cancel()

	sub, unsub := ticks.Subscribe()
	defer unsub()

	ticker.Play()
	_, ok := recvTick(t, sub, time.Second)
	require.True(t, ok)

	ticker.Stop()
	assert.Eventually(t, func() bool {
		return ticker.TickState().Stopped()
	}, time.Second, time.Millisecond)
	assert.Equal(t, TickState{Tick: -1, Max: 0}, ticker.TickState())
	assert.False(t, ticker.Playing())

	// restarting begins again at tick zero
	ticker.Play()
	for {
		state, ok := recvTick(t, sub, time.Second)
		require.True(t, ok)
		if !state.Stopped() {
			assert.Equal(t, 0, state.Tick)
			break
		}
	}
}

func TestTickerSetBpmUpdatesStore(t *testing.T) {
	st := store.New(store.Defaults{Name: "test", Bpm: 120, TargetAddr: "127.0.0.1:0"})
	ticks := NewWatch(TickState{Tick: -1})
	controller := NewController(st, nil, nil, ticks, t.TempDir()+"/store.json", time.Hour, 32)
	ticker := NewTicker(st, controller, ticks, 32)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ticker.Run(ctx)

	ticker.SetBpm(240)
	assert.Eventually(t, func() bool {
		return st.Bpm() == 240
	}, time.Second, time.Millisecond)
}

func TestTickerPatternContextCycle(t *testing.T) {
	st := store.New(store.Defaults{Name: "test", Bpm: 750, TargetAddr: "127.0.0.1:0"})
	st.UpdatePatterns(func(patterns map[string]*models.Pattern) {
		p := models.NewPattern("p")
		p.Resize(2)
		patterns["p"] = p
	})

	ticks := NewWatch(TickState{Tick: -1})
	controller := NewController(st, nil, nil, ticks, t.TempDir()+"/store.json", time.Hour, 32)
	name := "p"
	controller.setContext(&name)
	ticker := NewTicker(st, controller, ticks, 32)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ticker.Run(ctx)

	sub, unsub := ticks.Subscribe()
	defer unsub()

	ticker.Play()
	seen := make([]int, 0, 9)
	for len(seen) < 9 {
		state, ok := recvTick(t, sub, time.Second)
		require.True(t, ok)
		assert.Equal(t, 7, state.Max)
		seen = append(seen, state.Tick)
	}
	// one full cycle per 4*page_count ticks
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 0}, seen)
}

func TestTickerMissingContextPatternSkipsEmission(t *testing.T) {
	st := store.New(store.Defaults{Name: "test", Bpm: 1500, TargetAddr: "127.0.0.1:0"})
	ticks := NewWatch(TickState{Tick: -1})
	controller := NewController(st, nil, nil, ticks, t.TempDir()+"/store.json", time.Hour, 32)
	name := "ghost"
	controller.setContext(&name)
	ticker := NewTicker(st, controller, ticks, 32)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ticker.Run(ctx)

	sub, unsub := ticks.Subscribe()
	defer unsub()

	ticker.Play()
	_, ok := recvTick(t, sub, 100*time.Millisecond)
	assert.False(t, ok, "ticker emitted with an unresolvable context")
}

func TestBpmInterval(t *testing.T) {
	assert.Equal(t, 125*time.Millisecond, bpmInterval(120))
	assert.Equal(t, 62500*time.Microsecond, bpmInterval(240))
}
