package mixer

import (
	"context"
	"strings"
)

// Session is one desktop mixer entry: a running process's independent
// volume/mute control.
type Session interface {
	// ProcessName returns the owning process's executable name.
	ProcessName() string
	// Volume returns the session's master volume as a fraction in [0, 1].
	Volume() (float32, error)
	// Muted returns the session's mute flag.
	Muted() (bool, error)
	// Release frees the underlying handle.
	Release()
}

// Finder locates the mixer session to mirror. Implementations are selected
// per platform by build tags.
type Finder interface {
	// Find returns the first active session whose owning process name
	// matches the allow-list, or (nil, nil) when nothing matches right now.
	Find(ctx context.Context) (Session, error)
	// Release frees the finder's connection to the audio subsystem.
	Release()
}

// DefaultProcessNames is the default allow-list identifying our own
// keep-alive session in the mixer.
const DefaultProcessNames = "android-volume-controller,controller,android"

// ParseNames splits a comma-separated allow-list, trimming and lowercasing
// each entry.
func ParseNames(s string) []string {
	var names []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			names = append(names, f)
		}
	}
	return names
}

// matches reports whether name contains any allow-list entry. Entries are
// already lowercase; name is folded here.
func matches(name string, allow []string) bool {
	name = strings.ToLower(name)
	for _, a := range allow {
		if a != "" && strings.Contains(name, a) {
			return true
		}
	}
	return false
}
