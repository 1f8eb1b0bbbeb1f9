//go:build cgo && !noaudio

package keepalive

import (
	"github.com/decred/slog"
	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"
)

const periodSizeMS = 100

func init() {
	newPlayer = newMalgoPlayer
}

// malgoPlayer owns one playback device whose data callback drains the ring
// buffer, emitting silence when it runs dry. Playing the clip is just
// refilling the buffer.
type malgoPlayer struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    *ringbuffer.RingBuffer
	clip   []byte
	log    slog.Logger
}

func newMalgoPlayer(clip []byte, log slog.Logger) (player, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	p := &malgoPlayer{
		ctx:  malgoCtx,
		buf:  ringbuffer.New(2 * len(clip)),
		clip: clip,
		log:  log,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = sampleRate
	deviceConfig.PeriodSizeInMilliseconds = periodSizeMS
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.Alsa.NoMMap = 1

	onData := func(out, _ []byte, frameCount uint32) {
		n, _ := p.buf.TryRead(out)
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, err
	}
	p.device = device
	return p, nil
}

func (p *malgoPlayer) play() error {
	if _, err := p.buf.TryWrite(p.clip); err != nil {
		// The previous clip is still draining; the session stays alive
		// either way.
		p.log.Debugf("keep-alive buffer full, skipping refill")
	}
	return nil
}

func (p *malgoPlayer) close() {
	_ = p.device.Stop()
	p.device.Uninit()
	_ = p.ctx.Uninit()
	p.ctx.Free()
}
