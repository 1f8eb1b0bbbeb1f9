package adb

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/errutil"
)

// Per-command timeouts. The diagnostic dump is slow on some devices; the
// set commands are expected to answer quickly or not at all.
const (
	versionTimeout = 5 * time.Second
	devicesTimeout = 5 * time.Second
	dumpsysTimeout = 10 * time.Second
	setTimeout     = 3 * time.Second
)

// DefaultMaxVolume is assumed when the diagnostic dump yields no usable
// maximum.
const DefaultMaxVolume = 25

// maxVolumePatterns are tried in order against the dumpsys output; the
// first pattern whose captured integer is positive wins. Later patterns
// are broader, so the order is load-bearing.
var maxVolumePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)STREAM_MUSIC.*?indexMax:\s*(\d+)`),
	regexp.MustCompile(`(?is)STREAM_MUSIC.*?Max:\s*(\d+)`),
	regexp.MustCompile(`(?is)- STREAM_MUSIC.*?(\d+)`),
}

// Adapter issues adb commands to control the connected device's media
// volume. All methods are bounded by per-command timeouts and never block
// past them.
type Adapter struct {
	runner Runner
	serial string
	log    slog.Logger
}

// New returns an Adapter that shells out to the adb executable on PATH.
func New(log slog.Logger) *Adapter {
	return &Adapter{runner: execRunner{}, log: log}
}

// Target directs all subsequent commands at the device with the given
// serial, so they stay unambiguous when several devices are attached.
func (a *Adapter) Target(serial string) {
	a.serial = serial
}

func (a *Adapter) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if a.serial != "" {
		args = append([]string{"-s", a.serial}, args...)
	}
	a.log.Debugf("running: adb %s", strings.Join(args, " "))
	return a.runner.Run(ctx, "adb", args...)
}

// processLevel reports whether err prevented a command from running to
// completion, as opposed to the command running and exiting non-zero.
func processLevel(err error) bool {
	var exitErr *exec.ExitError
	return err != nil && !errors.As(err, &exitErr)
}

// CheckInstalled verifies the adb executable is present and answering.
func (a *Adapter) CheckInstalled(ctx context.Context) error {
	if _, err := a.run(ctx, versionTimeout, "version"); err != nil {
		return errutil.E(errutil.DependencyMissing, "adb version", err)
	}
	return nil
}

// ListDevices returns the serials of connected devices in adb's order.
func (a *Adapter) ListDevices(ctx context.Context) ([]string, error) {
	out, err := a.run(ctx, devicesTimeout, "devices")
	if err != nil {
		return nil, errutil.E(errutil.DeviceUnreachable, "adb devices", err)
	}
	var serials []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "\tdevice") {
			serials = append(serials, strings.SplitN(line, "\t", 2)[0])
		}
	}
	return serials, nil
}

// QueryMaxVolume resolves the device's maximum media volume from the audio
// service dump. It never fails hard: on timeout, non-zero exit or no match
// it logs a warning and returns DefaultMaxVolume.
func (a *Adapter) QueryMaxVolume(ctx context.Context) int {
	out, err := a.run(ctx, dumpsysTimeout, "shell", "dumpsys", "audio")
	if err != nil {
		a.log.Warnf("dumpsys audio failed, assuming max volume %d: %v", DefaultMaxVolume, err)
		return DefaultMaxVolume
	}
	for i, re := range maxVolumePatterns {
		m := re.FindSubmatch(out)
		if m == nil {
			a.log.Debugf("max volume pattern %d: no match", i+1)
			continue
		}
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > 0 {
			a.log.Debugf("max volume %d (pattern %d)", n, i+1)
			return n
		}
		a.log.Debugf("max volume pattern %d: unusable capture %q", i+1, m[1])
	}
	a.log.Warnf("no max volume in dumpsys output, assuming %d", DefaultMaxVolume)
	return DefaultMaxVolume
}

// setLevel runs the primary volume command and, on any failure, the given
// fallback. The fallback only has to run to completion: its exit status is
// observed, not validated. A fallback that cannot run at all means the
// bridge connection is gone.
func (a *Adapter) setLevel(ctx context.Context, op string, level int, fallback []string) error {
	primary := []string{
		"shell", "cmd", "media_session", "volume",
		"--stream", "3", "--set", strconv.Itoa(level),
	}
	_, err := a.run(ctx, setTimeout, primary...)
	if err == nil {
		return nil
	}
	// Canceled comes from the parent context: shutdown, not device loss.
	if errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Debugf("%s: primary command failed, using fallback: %v", op, err)
	_, ferr := a.run(ctx, setTimeout, fallback...)
	if ferr == nil {
		return nil
	}
	if errors.Is(ferr, context.Canceled) {
		return ferr
	}
	if processLevel(ferr) {
		return errutil.E(errutil.ConnectionLost, op, ferr)
	}
	a.log.Debugf("%s: fallback exited non-zero: %v", op, ferr)
	return nil
}

// SetVolume sets the media stream volume, falling back to a raw audio
// service call when the media_session command is unavailable.
func (a *Adapter) SetVolume(ctx context.Context, level int) error {
	fallback := []string{
		"shell", "service", "call", "audio",
		"3", "i32", "3", "i32", strconv.Itoa(level), "i32", "1",
	}
	return a.setLevel(ctx, "setVolume", level, fallback)
}

// SetMute mutes by driving the volume to 0 and unmutes by restoring the
// given level. The fallback is a bare volume key event, which at least
// nudges the device in the right direction.
func (a *Adapter) SetMute(ctx context.Context, muted bool, restore int) error {
	level, key := 0, "KEYCODE_VOLUME_MUTE"
	if !muted {
		level, key = restore, "KEYCODE_VOLUME_UP"
	}
	fallback := []string{"shell", "input", "keyevent", key}
	return a.setLevel(ctx, "setMute", level, fallback)
}
