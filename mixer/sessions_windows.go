//go:build windows

package mixer

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/decred/slog"
	ole "github.com/go-ole/go-ole"
	ps "github.com/mitchellh/go-ps"
	"github.com/moutend/go-wca/pkg/wca"

	"github.com/y4kupkaya/android-volume-controller/errutil"
)

var errSessionExpired = errors.New("audio session expired")

// wcaFinder enumerates Core Audio sessions on the default render endpoint.
type wcaFinder struct {
	allow []string
	log   slog.Logger
}

// NewFinder initializes COM for the calling goroutine.
func NewFinder(allow []string, log slog.Logger) (Finder, error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return nil, errutil.E(errutil.AudioSystemInitFailure, "CoInitializeEx", err)
	}
	return &wcaFinder{allow: allow, log: log}, nil
}

func (f *wcaFinder) Release() {
	ole.CoUninitialize()
}

func (f *wcaFinder) Find(ctx context.Context) (Session, error) {
	session, err := f.find()
	if err != nil {
		return nil, errutil.E(errutil.SessionNotFound, "enumerate sessions", err)
	}
	return session, nil
}

func (f *wcaFinder) find() (Session, error) {
	var enumerator *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &enumerator); err != nil {
		return nil, fmt.Errorf("device enumerator: %w", err)
	}
	defer enumerator.Release()

	var device *wca.IMMDevice
	if err := enumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &device); err != nil {
		return nil, fmt.Errorf("default endpoint: %w", err)
	}
	defer device.Release()

	var manager *wca.IAudioSessionManager2
	if err := device.Activate(wca.IID_IAudioSessionManager2, wca.CLSCTX_ALL, nil, &manager); err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	defer manager.Release()

	var sessions *wca.IAudioSessionEnumerator
	if err := manager.GetSessionEnumerator(&sessions); err != nil {
		return nil, fmt.Errorf("session enumerator: %w", err)
	}
	defer sessions.Release()

	var count int
	if err := sessions.GetCount(&count); err != nil {
		return nil, fmt.Errorf("session count: %w", err)
	}

	for i := 0; i < count; i++ {
		session := f.sessionAt(sessions, i)
		if session == nil {
			continue
		}
		if matches(session.name, f.allow) {
			f.log.Debugf("matched session %d (%s)", i, session.name)
			return session, nil
		}
		session.Release()
	}
	return nil, nil
}

// sessionAt wraps the i'th session with its owning process name resolved.
// Returns nil for system sessions (no owning process) and for sessions
// that fail to answer.
func (f *wcaFinder) sessionAt(sessions *wca.IAudioSessionEnumerator, i int) *wcaSession {
	var control *wca.IAudioSessionControl
	if err := sessions.GetSession(i, &control); err != nil {
		return nil
	}

	dispatch, err := control.QueryInterface(wca.IID_IAudioSessionControl2)
	control.Release()
	if err != nil {
		return nil
	}
	control2 := (*wca.IAudioSessionControl2)(unsafe.Pointer(dispatch))

	var pid uint32
	if err := control2.GetProcessId(&pid); err != nil || pid == 0 {
		control2.Release()
		return nil
	}

	proc, err := ps.FindProcess(int(pid))
	if err != nil || proc == nil {
		control2.Release()
		return nil
	}

	volumeDispatch, err := control2.QueryInterface(wca.IID_ISimpleAudioVolume)
	if err != nil {
		control2.Release()
		return nil
	}
	volume := (*wca.ISimpleAudioVolume)(unsafe.Pointer(volumeDispatch))

	return &wcaSession{control: control2, volume: volume, name: proc.Executable()}
}

// wcaSession holds the COM interfaces for one mixer entry.
type wcaSession struct {
	control *wca.IAudioSessionControl2
	volume  *wca.ISimpleAudioVolume
	name    string
}

func (s *wcaSession) ProcessName() string { return s.name }

// expired reports sessions the mixer has already abandoned, so the caller
// re-locates instead of reading stale state.
func (s *wcaSession) expired() bool {
	var state uint32
	if err := s.control.GetState(&state); err != nil {
		return true
	}
	return state == wca.AudioSessionStateExpired
}

func (s *wcaSession) Volume() (float32, error) {
	if s.expired() {
		return 0, errSessionExpired
	}
	var v float32
	if err := s.volume.GetMasterVolume(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *wcaSession) Muted() (bool, error) {
	var muted bool
	if err := s.volume.GetMute(&muted); err != nil {
		return false, err
	}
	return muted, nil
}

func (s *wcaSession) Release() {
	s.volume.Release()
	s.control.Release()
}
