package adb

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"testing"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/errutil"
	"github.com/y4kupkaya/android-volume-controller/internal/assert"
)

type fakeRunner struct {
	calls   [][]string
	respond func(args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.respond(args)
}

func newTestAdapter(respond func(args []string) ([]byte, error)) (*Adapter, *fakeRunner) {
	r := &fakeRunner{respond: respond}
	return &Adapter{runner: r, log: slog.Disabled}, r
}

func TestListDevices(t *testing.T) {
	out := "List of devices attached\nRF8M33Q8XYZ\tdevice\nemulator-5554\toffline\n\n"
	a, _ := newTestAdapter(func([]string) ([]byte, error) {
		return []byte(out), nil
	})

	serials, err := a.ListDevices(context.Background())
	assert.NilErr(t, err)
	assert.DeepEqual(t, serials, []string{"RF8M33Q8XYZ"})
}

func TestListDevicesUnreachable(t *testing.T) {
	a, _ := newTestAdapter(func([]string) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := a.ListDevices(context.Background())
	assert.ErrorIs(t, err, errutil.DeviceUnreachable)
}

func TestCheckInstalledMissing(t *testing.T) {
	a, _ := newTestAdapter(func([]string) ([]byte, error) {
		return nil, &exec.Error{Name: "adb", Err: exec.ErrNotFound}
	})

	err := a.CheckInstalled(context.Background())
	assert.ErrorIs(t, err, errutil.DependencyMissing)
}

func TestQueryMaxVolume(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want int
	}{
		{
			name: "indexMax",
			out:  "- STREAM_MUSIC:\n   Muted: false\n   indexMin: 0  indexMax: 15\n   Current: 2 (speaker): 10",
			want: 15,
		},
		{
			name: "bare Max",
			out:  "- STREAM_MUSIC:\n   Muted: false\n   Min: 0\n   Max: 25",
			want: 25,
		},
		{
			name: "dash form only",
			out:  "ringer mode: NORMAL\n- STREAM_MUSIC: 12 of 30",
			want: 12,
		},
		{
			name: "no match",
			out:  "nothing relevant here",
			want: DefaultMaxVolume,
		},
		{
			name: "zero matches skipped",
			out:  "- STREAM_MUSIC:\n   indexMax: 0",
			want: DefaultMaxVolume,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, _ := newTestAdapter(func([]string) ([]byte, error) {
				return []byte(c.out), nil
			})
			if got := a.QueryMaxVolume(context.Background()); got != c.want {
				t.Errorf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestQueryMaxVolumeCommandFailure(t *testing.T) {
	a, _ := newTestAdapter(func([]string) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})
	if got := a.QueryMaxVolume(context.Background()); got != DefaultMaxVolume {
		t.Errorf("got %d, want fallback %d", got, DefaultMaxVolume)
	}
}

func TestSetVolumePrimary(t *testing.T) {
	a, r := newTestAdapter(func([]string) ([]byte, error) {
		return nil, nil
	})

	assert.NilErr(t, a.SetVolume(context.Background(), 11))

	want := [][]string{{
		"shell", "cmd", "media_session", "volume",
		"--stream", "3", "--set", "11",
	}}
	assert.DeepEqual(t, r.calls, want)
}

func TestSetVolumeFallback(t *testing.T) {
	a, r := newTestAdapter(func(args []string) ([]byte, error) {
		if args[1] == "cmd" {
			return nil, &exec.ExitError{}
		}
		return nil, nil
	})

	assert.NilErr(t, a.SetVolume(context.Background(), 7))

	if len(r.calls) != 2 {
		t.Fatalf("got %d commands, want primary + one fallback", len(r.calls))
	}
	want := []string{
		"shell", "service", "call", "audio",
		"3", "i32", "3", "i32", "7", "i32", "1",
	}
	assert.DeepEqual(t, r.calls[1], want)
}

func TestSetVolumeFallbackExitNonZero(t *testing.T) {
	a, r := newTestAdapter(func([]string) ([]byte, error) {
		return nil, &exec.ExitError{}
	})

	// The fallback's exit status is observed, not validated: both commands
	// exiting non-zero still counts as a delivered push.
	assert.NilErr(t, a.SetVolume(context.Background(), 5))
	if len(r.calls) != 2 {
		t.Fatalf("got %d commands, want 2", len(r.calls))
	}
}

func TestSetVolumeConnectionLost(t *testing.T) {
	a, _ := newTestAdapter(func([]string) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})

	err := a.SetVolume(context.Background(), 5)
	assert.ErrorIs(t, err, errutil.ConnectionLost)
}

func TestSetVolumeCanceled(t *testing.T) {
	a, r := newTestAdapter(func([]string) ([]byte, error) {
		return nil, context.Canceled
	})

	err := a.SetVolume(context.Background(), 5)
	assert.ErrorIs(t, err, context.Canceled)
	if errors.Is(err, errutil.ConnectionLost) {
		t.Error("shutdown classified as connection loss")
	}
	if len(r.calls) != 1 {
		t.Fatalf("got %d commands, want 1 (no fallback after cancellation)", len(r.calls))
	}
}

func TestTargetPrependsSerial(t *testing.T) {
	a, r := newTestAdapter(func([]string) ([]byte, error) {
		return nil, nil
	})
	a.Target("RF8M33Q8XYZ")

	assert.NilErr(t, a.SetVolume(context.Background(), 11))

	want := [][]string{{
		"-s", "RF8M33Q8XYZ",
		"shell", "cmd", "media_session", "volume",
		"--stream", "3", "--set", "11",
	}}
	assert.DeepEqual(t, r.calls, want)
}

func TestSetMuteCommands(t *testing.T) {
	a, r := newTestAdapter(func([]string) ([]byte, error) {
		return nil, nil
	})

	assert.NilErr(t, a.SetMute(context.Background(), true, 0))
	assert.NilErr(t, a.SetMute(context.Background(), false, 8))

	if len(r.calls) != 2 {
		t.Fatalf("got %d commands, want 2", len(r.calls))
	}
	if got := r.calls[0][7]; got != "0" {
		t.Errorf("mute set level %s, want 0", got)
	}
	if got := r.calls[1][7]; got != "8" {
		t.Errorf("unmute set level %s, want 8", got)
	}
}

func TestSetMuteKeyEventFallback(t *testing.T) {
	for _, c := range []struct {
		muted bool
		key   string
	}{
		{true, "KEYCODE_VOLUME_MUTE"},
		{false, "KEYCODE_VOLUME_UP"},
	} {
		a, r := newTestAdapter(func(args []string) ([]byte, error) {
			if args[1] == "cmd" {
				return nil, &exec.ExitError{}
			}
			return nil, nil
		})

		assert.NilErr(t, a.SetMute(context.Background(), c.muted, 8))

		last := r.calls[len(r.calls)-1]
		want := []string{"shell", "input", "keyevent", c.key}
		if !reflect.DeepEqual(last, want) {
			t.Errorf("muted=%v: fallback %v, want %v", c.muted, last, want)
		}
	}
}
