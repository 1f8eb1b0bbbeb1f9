package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/errutil"
	"github.com/y4kupkaya/android-volume-controller/events"
	"github.com/y4kupkaya/android-volume-controller/mixer"
)

const (
	// pollInterval is how often the mixer session is sampled for changes.
	pollInterval = 100 * time.Millisecond

	// relocateEvery is the number of polls between session re-discovery
	// passes. A held handle is refreshed on the same cadence, so a session
	// that was replaced under us is picked up within a few seconds.
	relocateEvery = 50
)

// DeviceAdapter is the device half of the sync loop: everything the
// controller needs from the bridge to the phone.
type DeviceAdapter interface {
	QueryMaxVolume(ctx context.Context) int
	SetVolume(ctx context.Context, level int) error
	SetMute(ctx context.Context, muted bool, restore int) error
}

// ControllerState tracks what the device was last told, so polls that read
// an unchanged mixer produce no device traffic.
type ControllerState struct {
	maxDeviceVolume  int
	lastDeviceVolume int
	lastMuteState    bool
	connectionLost   bool
}

// Controller mirrors one desktop mixer session onto an Android device.
// Run drives it; everything else hangs off the poll loop.
type Controller struct {
	adapter  DeviceAdapter
	finder   mixer.Finder
	eventBus *events.Bus
	log      slog.Logger

	state   ControllerState
	session mixer.Session
}

// NewController returns a controller that forwards changes from the mixer
// session located by finder to adapter, scaled to maxVolume steps.
func NewController(adapter DeviceAdapter, finder mixer.Finder, maxVolume int, eventBus *events.Bus, log slog.Logger) *Controller {
	return &Controller{
		adapter:  adapter,
		finder:   finder,
		eventBus: eventBus,
		log:      log,
		state: ControllerState{
			maxDeviceVolume:  maxVolume,
			lastDeviceVolume: -1,
		},
	}
}

// volumeLevel maps a mixer volume fraction onto the device volume scale,
// clamped to [0, max].
func volumeLevel(fraction float64, max int) int {
	level := int(math.Round(fraction * float64(max)))
	switch {
	case level < 0:
		return 0
	case level > max:
		return max
	}
	return level
}

// unmuteTarget picks the level restored after an unmute: the last level we
// pushed to the device, or a third of the scale when nothing useful has
// been recorded yet. Never below 1, so an unmute is always audible.
func unmuteTarget(last, max int) int {
	target := last
	if target <= 0 {
		target = max / 3
	}
	if target < 1 {
		target = 1
	}
	return target
}

// Run polls the mixer until ctx is cancelled or the device stops
// answering. A cancelled context is a clean shutdown and returns nil; a
// dead device bridge returns an errutil.ConnectionLost error.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for iteration := 0; ; iteration++ {
		select {
		case <-ctx.Done():
			c.releaseSession()
			return nil
		case <-ticker.C:
		}

		if c.session == nil || iteration%relocateEvery == 0 {
			c.locateSession(ctx, iteration)
		}
		if c.session == nil {
			continue
		}

		c.processChanges(ctx)

		if c.state.connectionLost {
			c.releaseSession()
			// An interrupt that raced the failing push is still a clean
			// shutdown.
			if ctx.Err() != nil {
				return nil
			}
			c.eventBus.Publish(events.ConnectionLost{})
			return errutil.E(errutil.ConnectionLost, "sync", nil)
		}
	}
}

// locateSession refreshes the held mixer session. Attaching and losing the
// session both go out on the event bus; a periodic hint is logged while
// nothing matches.
func (c *Controller) locateSession(ctx context.Context, iteration int) {
	had := c.session != nil
	if had {
		c.session.Release()
		c.session = nil
	}

	session, err := c.finder.Find(ctx)
	if err != nil {
		c.log.Debugf("Session lookup failed: %v", err)
	}
	if session == nil {
		if had {
			c.eventBus.Publish(events.SessionLost{})
		} else if iteration%relocateEvery == 0 {
			c.log.Infof("Searching for audio session in Volume Mixer...")
		}
		return
	}

	c.session = session
	if !had {
		c.log.Debugf("Attached to mixer session %q", session.ProcessName())
		c.eventBus.Publish(events.SessionAttached{ProcessName: session.ProcessName()})
	}
}

func (c *Controller) releaseSession() {
	if c.session != nil {
		c.session.Release()
		c.session = nil
	}
}

// processChanges reads the session and forwards mute and volume diffs to
// the device. Mute wins: while muted, level changes are not forwarded.
func (c *Controller) processChanges(ctx context.Context) {
	volume, err := c.session.Volume()
	if err != nil {
		c.dropSession(err)
		return
	}
	muted, err := c.session.Muted()
	if err != nil {
		c.dropSession(err)
		return
	}

	if muted != c.state.lastMuteState {
		// Record the new state before talking to the device so a failed
		// push is not retried on every following poll.
		c.state.lastMuteState = muted

		restore := 0
		if !muted {
			restore = unmuteTarget(c.state.lastDeviceVolume, c.state.maxDeviceVolume)
		}
		if err := c.adapter.SetMute(ctx, muted, restore); err != nil {
			c.noteFailure(muteVerb(muted)+" Android device", err)
			if c.state.connectionLost {
				return
			}
		} else {
			c.eventBus.Publish(events.MuteSynced{Muted: muted, Restore: restore})
		}
	}

	if muted {
		return
	}

	level := volumeLevel(float64(volume), c.state.maxDeviceVolume)
	if level == c.state.lastDeviceVolume {
		return
	}
	if err := c.adapter.SetVolume(ctx, level); err != nil {
		c.noteFailure(fmt.Sprintf("update Android volume to %d", level), err)
		return
	}
	c.state.lastDeviceVolume = level
	c.eventBus.Publish(events.VolumeSynced{
		Fraction: float64(volume),
		Level:    level,
		Max:      c.state.maxDeviceVolume,
	})
}

// dropSession discards a session whose reads started failing; the next
// poll starts searching again.
func (c *Controller) dropSession(err error) {
	c.log.Warnf("Lost mixer session: %v", err)
	c.releaseSession()
	c.eventBus.Publish(events.SessionLost{})
}

// noteFailure reports a failed device push. Connection loss flips the
// loop's exit flag; anything else is transient and the loop keeps going.
// A push cut short by shutdown is not a failure at all.
func (c *Controller) noteFailure(op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.log.Errorf("Failed to %s", op)
	if errors.Is(err, errutil.ConnectionLost) {
		if !c.state.connectionLost {
			c.state.connectionLost = true
			c.log.Errorf("Android device connection lost!")
			c.log.Errorf("Please check device connection and restart the application.")
		}
		return
	}
	c.eventBus.Publish(events.SyncFailed{Op: op, Err: err})
}

func muteVerb(muted bool) string {
	if muted {
		return "mute"
	}
	return "unmute"
}
