//go:build !cgo || noaudio

// Playback is the whole point of the keep-alive emitter, so cgo-less and
// noaudio builds fail construction instead of silently doing nothing.

package keepalive

import (
	"errors"

	"github.com/decred/slog"
)

var errAudioDisabledCompilation = errors.New("audio was disabled during compilation")

func init() {
	newPlayer = func(clip []byte, log slog.Logger) (player, error) {
		return nil, errAudioDisabledCompilation
	}
}
