// Package wav implements codec.Decoder for PCM WAV, the cheapest format to
// build test fixtures for and a natural companion to the compressed
// formats for the fully-loaded path.
package wav

import (
	"bytes"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ad-engine/soundcore/codec"
)

type decoder struct {
	d    *wav.Decoder
	info codec.Info
	buf  *audio.IntBuffer
}

// Open reads the WAV header from r and returns a Decoder positioned at the
// start of the PCM data chunk.
func Open(r io.Reader) (codec.Decoder, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(b)
	}
	d := wav.NewDecoder(rs)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if !d.WasPCMAccessed() {
		d.FwdToPCM()
	}

	channels := int(d.NumChans)
	return &decoder{
		d: d,
		info: codec.Info{
			Channels:   channels,
			SampleRate: int(d.SampleRate),
		},
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  int(d.SampleRate),
			},
			SourceBitDepth: int(d.BitDepth),
		},
	}, nil
}

func (dec *decoder) Info() codec.Info { return dec.info }

func (dec *decoder) DecodeFrame(dst []float32) (int, error) {
	dec.buf.Data = make([]int, len(dst))

	n, err := dec.d.PCMBuffer(dec.buf)
	if err != nil && err != io.EOF {
		return 0, err
	}

	maxVal := float32(int64(1) << uint(dec.buf.SourceBitDepth-1))
	if maxVal == 0 {
		maxVal = 1 << 15
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(dec.buf.Data[i]) / maxVal
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (dec *decoder) Close() error { return nil }

// Opener adapts Open to codec.Opener for registration with a
// codec.Registry.
type Opener struct{}

func (Opener) Open(r io.Reader) (codec.Decoder, error) { return Open(r) }

// Sniff reports whether header looks like a canonical RIFF/WAVE container.
func Sniff(header []byte) bool {
	return len(header) >= 12 &&
		string(header[:4]) == "RIFF" &&
		string(header[8:12]) == "WAVE"
}
