// Package vorbis implements codec.Decoder for Ogg Vorbis, the container
// original_source decodes via stb_vorbis.
package vorbis

import (
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ad-engine/soundcore/codec"
)

// reader is the subset of *oggvorbis.Reader this package depends on,
// pulled out so tests can substitute a fake.
type reader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type decoder struct {
	r    reader
	info codec.Info
}

// Open parses the Ogg Vorbis headers from r and returns a Decoder
// positioned at the first audio packet.
func Open(r io.Reader) (codec.Decoder, error) {
	vr, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &decoder{
		r: vr,
		info: codec.Info{
			Channels:   vr.Channels(),
			SampleRate: vr.SampleRate(),
		},
	}, nil
}

func (d *decoder) Info() codec.Info { return d.info }

func (d *decoder) DecodeFrame(dst []float32) (int, error) {
	n, err := d.r.Read(dst)
	if n == 0 && err == nil {
		return 0, codec.ErrNeedMoreData
	}
	return n, err
}

func (d *decoder) Close() error { return nil }

// Opener adapts Open to codec.Opener for registration with a
// codec.Registry.
type Opener struct{}

func (Opener) Open(r io.Reader) (codec.Decoder, error) { return Open(r) }

// Sniff reports whether header looks like an Ogg container ("OggS" magic).
func Sniff(header []byte) bool {
	return len(header) >= 4 && string(header[:4]) == "OggS"
}
