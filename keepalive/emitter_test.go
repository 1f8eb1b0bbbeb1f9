package keepalive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/internal/assert"
)

type fakePlayer struct {
	played  chan struct{}
	results chan error
	closed  chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		played:  make(chan struct{}, 16),
		results: make(chan error, 16),
		closed:  make(chan struct{}),
	}
}

func (p *fakePlayer) play() error {
	p.played <- struct{}{}
	select {
	case err := <-p.results:
		return err
	default:
		return nil
	}
}

func (p *fakePlayer) close() { close(p.closed) }

func newTestEmitter(t *testing.T, p player, interval, retry time.Duration) *Emitter {
	t.Helper()
	clipPath := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(clipPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &Emitter{
		player:   p,
		clipPath: clipPath,
		log:      slog.Disabled,
		interval: interval,
		retry:    retry,
		done:     make(chan struct{}),
	}
}

func TestEmitterPlaysOnCadence(t *testing.T) {
	p := newFakePlayer()
	e := newTestEmitter(t, p, 5*time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)

	assert.ChanWritten(t, p.played)
	assert.ChanWritten(t, p.played)

	cancel()
	e.Stop()
	assert.ChanWritten(t, p.closed)
}

func TestEmitterRetriesAfterFailure(t *testing.T) {
	p := newFakePlayer()
	p.results <- errors.New("device gone")
	// A long nominal interval: if the failure killed the loop instead of
	// scheduling the short retry, the second play never happens.
	e := newTestEmitter(t, p, time.Hour, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)

	assert.ChanWritten(t, p.played)
	assert.ChanWritten(t, p.played)

	cancel()
	e.Stop()
}

func TestStopRemovesClipFile(t *testing.T) {
	p := newFakePlayer()
	e := newTestEmitter(t, p, 5*time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	assert.ChanWritten(t, p.played)

	cancel()
	e.Stop()

	if _, err := os.Stat(e.clipPath); !os.IsNotExist(err) {
		t.Errorf("clip file still present after Stop (stat err: %v)", err)
	}
	assert.ChanWritten(t, p.closed)
}
