package sound

import (
	"github.com/ad-engine/soundcore/codec"
	"github.com/ad-engine/soundcore/codec/mp3"
	"github.com/ad-engine/soundcore/codec/vorbis"
	"github.com/ad-engine/soundcore/codec/wav"
)

// defaultRegistry wires up every container format shipped alongside this
// engine, rather than hard-coding
// a single codec the way original_source hard-codes stb_vorbis.
func defaultRegistry() *codec.Registry {
	r := codec.NewRegistry()
	r.Register("wav", wav.Sniff, wav.Opener{})
	r.Register("mp3", mp3.Sniff, mp3.Opener{})
	r.Register("vorbis", vorbis.Sniff, vorbis.Opener{})
	return r
}
