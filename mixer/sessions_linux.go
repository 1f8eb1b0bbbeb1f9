//go:build linux

package mixer

import (
	"context"

	"github.com/decred/slog"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"github.com/y4kupkaya/android-volume-controller/errutil"
)

// volumeNorm is PA_VOLUME_NORM, the protocol's 100% volume.
const volumeNorm = 0x10000

// pulseFinder matches sink inputs (playback streams) against the allow-list
// using the properties PulseAudio records for each stream.
type pulseFinder struct {
	client *pulse.Client
	allow  []string
	log    slog.Logger
}

// NewFinder connects to the PulseAudio server.
func NewFinder(allow []string, log slog.Logger) (Finder, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName("android-volume-controller"))
	if err != nil {
		return nil, errutil.E(errutil.AudioSystemInitFailure, "pulse connect", err)
	}
	return &pulseFinder{client: client, allow: allow, log: log}, nil
}

func (f *pulseFinder) Find(ctx context.Context) (Session, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := f.client.RawRequest(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, errutil.E(errutil.SessionNotFound, "list sink inputs", err)
	}
	for _, info := range reply {
		name := sinkInputProcessName(info)
		if name == "" || !matches(name, f.allow) {
			continue
		}
		f.log.Debugf("matched sink input %d (%s)", info.SinkInputIndex, name)
		return &pulseSession{client: f.client, index: info.SinkInputIndex, name: name}, nil
	}
	return nil, nil
}

func (f *pulseFinder) Release() {
	f.client.Close()
}

func sinkInputProcessName(info *proto.GetSinkInputInfoReply) string {
	if info.Properties == nil {
		return ""
	}
	for _, key := range []string{"application.process.binary", "application.name"} {
		if v, ok := info.Properties[key]; ok {
			return v.String()
		}
	}
	return ""
}

// pulseSession reads one sink input by index. The index stays valid until
// the stream goes away, at which point reads fail and the caller
// re-locates.
type pulseSession struct {
	client *pulse.Client
	index  uint32
	name   string
}

func (s *pulseSession) ProcessName() string { return s.name }

func (s *pulseSession) info() (*proto.GetSinkInputInfoReply, error) {
	var reply proto.GetSinkInputInfoReply
	err := s.client.RawRequest(&proto.GetSinkInputInfo{SinkInputIndex: s.index}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *pulseSession) Volume() (float32, error) {
	info, err := s.info()
	if err != nil {
		return 0, err
	}
	var max uint32
	for _, v := range info.ChannelVolumes {
		if uint32(v) > max {
			max = uint32(v)
		}
	}
	f := float32(max) / volumeNorm
	if f > 1 {
		f = 1
	}
	return f, nil
}

func (s *pulseSession) Muted() (bool, error) {
	info, err := s.info()
	if err != nil {
		return false, err
	}
	return info.Muted, nil
}

func (s *pulseSession) Release() {}
