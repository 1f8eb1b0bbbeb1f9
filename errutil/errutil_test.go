package errutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := E(ConnectionLost, "setVolume", context.DeadlineExceeded)
	if !errors.Is(err, ConnectionLost) {
		t.Error("kind not matched")
	}
	if errors.Is(err, TransientCommandFailure) {
		t.Error("wrong kind matched")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause not matched")
	}
}

func TestKindMatchingThroughWrap(t *testing.T) {
	err := fmt.Errorf("during startup: %w", E(DeviceUnreachable, "listDevices", nil))
	if !errors.Is(err, DeviceUnreachable) {
		t.Error("kind not matched through wrap")
	}
}

func TestErrorString(t *testing.T) {
	err := E(DependencyMissing, "checkInstalled", errors.New("exec: \"adb\": executable file not found in $PATH"))
	want := `checkInstalled: dependency missing: exec: "adb": executable file not found in $PATH`
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	err = E(SessionNotFound, "find", nil)
	if got, want := err.Error(), "find: session not found"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
