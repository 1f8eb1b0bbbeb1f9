package keepalive

import (
	"encoding/binary"
	"io"
)

// synthesizeClip renders the keep-alive signal: 16-bit stereo PCM with an
// amplitude-32 pulse on one frame in a hundred. Loud enough for the mixer
// to treat the stream as producing audio, quiet enough to be inaudible.
func synthesizeClip() []byte {
	frames := sampleRate * clipSeconds
	pcm := make([]byte, frames*channels*2)
	for i := 0; i < frames; i++ {
		var value int16
		if i%100 == 0 {
			value = 32
		}
		binary.LittleEndian.PutUint16(pcm[i*4:], uint16(value))
		binary.LittleEndian.PutUint16(pcm[i*4+2:], uint16(value))
	}
	return pcm
}

// writeWAV wraps pcm in a canonical RIFF/WAVE container.
func writeWAV(w io.Writer, pcm []byte) error {
	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+len(pcm)))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:], channels)
	binary.LittleEndian.PutUint32(header[24:], sampleRate)
	binary.LittleEndian.PutUint32(header[28:], sampleRate*channels*2) // byte rate
	binary.LittleEndian.PutUint16(header[32:], channels*2)            // block align
	binary.LittleEndian.PutUint16(header[34:], 16)                    // bits per sample
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(len(pcm)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}
