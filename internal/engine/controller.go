package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/internal/protocol"
	"github.com/Saplyn/vibe/internal/store"
	"github.com/Saplyn/vibe/pkg/logger"
)

// MessageSender accepts OSC messages for delivery to the target
type MessageSender interface {
	SendMessage(msg models.OscMessage)
}

// Broadcaster fans a client command out to every connected session
type Broadcaster interface {
	Broadcast(cmd protocol.ClientCommand)
}

type controllerCommand struct {
	context *string
}

// Controller projects ticks into OSC emissions. It owns the playback
// context: a pattern name, or nil meaning "play all active tracks". It also
// snapshots the store to disk on a fixed alarm.
type Controller struct {
	store     *store.Store
	sender    MessageSender
	broadcast Broadcaster
	ticks     *Watch[TickState]
	cmd       chan controllerCommand

	savePath     string
	saveInterval time.Duration

	mu      sync.RWMutex
	context *string
}

// NewController creates a controller in tracks mode
func NewController(
	st *store.Store,
	sender MessageSender,
	broadcast Broadcaster,
	ticks *Watch[TickState],
	savePath string,
	saveInterval time.Duration,
	buffer int,
) *Controller {
	return &Controller{
		store:        st,
		sender:       sender,
		broadcast:    broadcast,
		ticks:        ticks,
		cmd:          make(chan controllerCommand, buffer),
		savePath:     savePath,
		saveInterval: saveInterval,
	}
}

// Context returns the current playback context
func (c *Controller) Context() *string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.context == nil {
		return nil
	}
	name := *c.context
	return &name
}

func (c *Controller) setContext(context *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = context
}

// ChangeContext switches the playback context. Existence of the pattern is
// verified upstream by the handler.
func (c *Controller) ChangeContext(context *string) {
	c.cmd <- controllerCommand{context: context}
}

// Run drives the controller until ctx is cancelled
func (c *Controller) Run(ctx context.Context) {
	logger.Info("Controller started")

	sub, cancel := c.ticks.Subscribe()
	defer cancel()

	saveTicker := time.NewTicker(c.saveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Controller stopped")
			return

		case <-saveTicker.C:
			if err := c.store.Save(c.savePath); err != nil {
				logger.Warn("Failed to save store",
					logger.String("path", c.savePath),
					logger.ErrorField(err),
				)
				metrics.StoreSaves.WithLabelValues("error").Inc()
			} else {
				metrics.StoreSaves.WithLabelValues("ok").Inc()
			}

		case cmd := <-c.cmd:
			c.setContext(cmd.context)

		case state := <-sub:
			if state.Stopped() {
				continue
			}
			c.step(state.Tick)
		}
	}
}

// step emits everything the current context produces on one tick. A tick is
// processed completely before the next one is read.
func (c *Controller) step(tick int) {
	if name := c.Context(); name != nil {
		c.stepPattern(*name, tick)
		return
	}
	c.stepTracks(tick)
}

func (c *Controller) stepPattern(name string, tick int) {
	var msgs []models.OscMessage
	c.store.ViewPatterns(func(patterns map[string]*models.Pattern) {
		pattern, ok := patterns[name]
		if !ok {
			logger.Warn("Context pattern not found", logger.String("pattern", name))
			return
		}
		msgs = pattern.OscMessages(tick)
	})
	for _, msg := range msgs {
		c.sender.SendMessage(msg)
	}
}

type trackUpdate struct {
	name     string
	progress *int
	stopped  bool
}

func (c *Controller) stepTracks(tick int) {
	var updates []trackUpdate
	var msgs []models.OscMessage

	c.store.UpdateTracks(func(tracks map[string]*models.Track) {
		c.store.ViewPatterns(func(patterns map[string]*models.Pattern) {
			lookup := func(name string) *models.Pattern {
				return patterns[name]
			}
			for _, name := range store.SortedTrackNames(tracks) {
				track := tracks[name]
				if !track.Active && track.Progress == nil {
					continue
				}
				out, stopped := track.Step(tick, lookup)
				msgs = append(msgs, out...)

				var progress *int
				if track.Progress != nil {
					v := *track.Progress
					progress = &v
				}
				updates = append(updates, trackUpdate{name: name, progress: progress, stopped: stopped})
			}
		})
	})

	for _, u := range updates {
		c.broadcast.Broadcast(protocol.TrackProgressUpdate(u.name, u.progress))
		if u.stopped {
			c.broadcast.Broadcast(protocol.TrackMadeActive(u.name, false))
		}
	}
	for _, msg := range msgs {
		c.sender.SendMessage(msg)
	}
}
