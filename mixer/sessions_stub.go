//go:build !windows && !linux

package mixer

import (
	"errors"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/errutil"
)

// NewFinder reports the desktop audio subsystem as unsupported.
func NewFinder(allow []string, log slog.Logger) (Finder, error) {
	return nil, errutil.E(errutil.AudioSystemInitFailure, "session finder",
		errors.New("no audio session backend for this platform"))
}
