package keepalive

import (
	"context"
	"os"
	"time"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/errutil"
)

const (
	sampleRate  = 44100
	channels    = 2
	clipSeconds = 1

	playInterval = 3 * time.Second
	retryDelay   = 1 * time.Second
	stopTimeout  = 2 * time.Second
)

// ClipFileName is created in the working directory for the lifetime of the
// process.
const ClipFileName = "controller_silence.wav"

// player runs the playback device that keeps the mixer session alive.
type player interface {
	// play queues one clip for playback.
	play() error
	// close stops the playback device.
	close()
}

// newPlayer is provided by the platform build (malgo, or a failing stub in
// cgo-less builds).
var newPlayer func(clip []byte, log slog.Logger) (player, error)

// Emitter keeps this process visible in the desktop mixer by playing a
// near-silent clip on a fixed cadence from a background goroutine.
type Emitter struct {
	player   player
	clipPath string
	log      slog.Logger
	interval time.Duration
	retry    time.Duration
	done     chan struct{}
}

// New synthesizes the clip, writes it to the working directory and opens
// the playback device.
func New(log slog.Logger) (*Emitter, error) {
	clip := synthesizeClip()

	f, err := os.Create(ClipFileName)
	if err != nil {
		return nil, errutil.E(errutil.AudioSystemInitFailure, "write clip", err)
	}
	err = writeWAV(f, clip)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(ClipFileName)
		return nil, errutil.E(errutil.AudioSystemInitFailure, "write clip", err)
	}

	p, err := newPlayer(clip, log)
	if err != nil {
		os.Remove(ClipFileName)
		return nil, errutil.E(errutil.AudioSystemInitFailure, "playback device", err)
	}

	return &Emitter{
		player:   p,
		clipPath: ClipFileName,
		log:      log,
		interval: playInterval,
		retry:    retryDelay,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the emit loop and returns immediately. The loop exits
// when ctx is cancelled.
func (e *Emitter) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *Emitter) run(ctx context.Context) {
	defer close(e.done)
	for {
		delay := e.interval
		if err := e.player.play(); err != nil {
			e.log.Warnf("keep-alive playback failed: %v", err)
			delay = e.retry
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// Stop waits for the emit loop to finish, bounded by stopTimeout, then
// closes the playback device and removes the clip file. The context given
// to Start must already be cancelled.
func (e *Emitter) Stop() {
	select {
	case <-e.done:
	case <-time.After(stopTimeout):
		e.log.Warnf("keep-alive loop did not stop within %v", stopTimeout)
	}
	e.player.close()
	if err := os.Remove(e.clipPath); err != nil && !os.IsNotExist(err) {
		e.log.Warnf("could not remove %s: %v", e.clipPath, err)
	}
	e.log.Debugf("keep-alive emitter stopped")
}
