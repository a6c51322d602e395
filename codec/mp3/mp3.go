// Package mp3 implements codec.Decoder for MPEG-1 Layer III audio, a
// second streamable container format alongside vorbis and wav.
package mp3

import (
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/ad-engine/soundcore/codec"
)

// pcmReader is the subset of *mp3.Decoder this package depends on.
type pcmReader interface {
	io.Reader
	SampleRate() int
}

type decoder struct {
	r    pcmReader
	info codec.Info

	// go-mp3 always yields interleaved 16-bit stereo; leftover holds bytes
	// read but not yet consumed into a full sample pair.
	leftover []byte
}

const bytesPerSample = 2 // int16
const channels = 2       // go-mp3 decodes to stereo unconditionally

// Open parses the MP3 frame headers from r and returns a Decoder.
func Open(r io.Reader) (codec.Decoder, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &decoder{
		r: d,
		info: codec.Info{
			Channels:   channels,
			SampleRate: d.SampleRate(),
		},
	}, nil
}

func (d *decoder) Info() codec.Info { return d.info }

func (d *decoder) DecodeFrame(dst []float32) (int, error) {
	need := len(dst) * bytesPerSample
	buf := make([]byte, need)

	copied := copy(buf, d.leftover)
	d.leftover = d.leftover[copied:]

	n, err := d.r.Read(buf[copied:])
	total := copied + n
	if err != nil && err != io.EOF {
		return 0, err
	}

	usable := total - (total % bytesPerSample)
	d.leftover = append(d.leftover, buf[usable:total]...)

	samples := usable / bytesPerSample
	for i := 0; i < samples; i++ {
		v := int16(buf[i*2]) | int16(buf[i*2+1])<<8
		dst[i] = float32(v) / 32768
	}

	if samples == 0 {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, codec.ErrNeedMoreData
	}
	return samples, nil
}

func (d *decoder) Close() error { return nil }

// Opener adapts Open to codec.Opener for registration with a
// codec.Registry.
type Opener struct{}

func (Opener) Open(r io.Reader) (codec.Decoder, error) { return Open(r) }

// Sniff reports whether header looks like an MP3 frame or ID3 tag.
func Sniff(header []byte) bool {
	if len(header) >= 3 && string(header[:3]) == "ID3" {
		return true
	}
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0
}
