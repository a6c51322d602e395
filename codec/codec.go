// Package codec defines the decoder boundary the sound engine decodes
// compressed audio through. Implementations wrap a concrete container
// format (Ogg Vorbis, MP3, WAV); the engine never imports a container
// format package directly, only this interface and the Registry.
package codec

import (
	"bytes"
	"errors"
	"io"
)

// ErrNeedMoreData is returned by DecodeFrame when the underlying stream did
// not yet have enough bytes buffered to produce a full frame, and the
// caller should retry after the stream has advanced. It must never be
// confused with io.EOF, which means the stream is genuinely exhausted.
var ErrNeedMoreData = errors.New("codec: need more data")

// Info describes the fixed properties of a decoded stream, known once the
// container header has been parsed.
type Info struct {
	Channels   int
	SampleRate int
}

// Decoder incrementally decodes one compressed container into interleaved
// float32 PCM. It is pull-style: every DecodeFrame call reads whatever it
// needs from the stream it was opened against. Implementations must bound
// how much they read per call to roughly one container frame, so the
// engine's decoder driver can bound per-tick work by calling DecodeFrame in
// a loop rather than by limiting bytes read directly.
type Decoder interface {
	// Info returns the channel count and sample rate. Valid once Open has
	// returned successfully.
	Info() Info

	// DecodeFrame decodes the next frame into dst, which is sized in
	// samples (frames * channels). It returns the number of interleaved
	// samples written. err is ErrNeedMoreData if the stream is temporarily
	// short, io.EOF if the stream is exhausted with nothing left to decode,
	// or any other error for a corrupt frame.
	DecodeFrame(dst []float32) (n int, err error)

	Close() error
}

// Opener constructs a Decoder from a freshly opened input stream. Openers
// are expected to fail fast: returning an error here means "not this
// format", not "corrupt file" — corruption is reported later via
// DecodeFrame.
type Opener interface {
	Open(r io.Reader) (Decoder, error)
}

// Registry resolves an Opener by sniffing the leading bytes of a stream.
// Mirrors the header-block probing of original_source's streamed-Ogg path,
// generalized to more than one container.
type Registry struct {
	openers []registeredOpener
}

type registeredOpener struct {
	name   string
	sniff  func(header []byte) bool
	opener Opener
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register associates a container name with a sniff predicate (evaluated
// against the stream's leading bytes) and the Opener to use when it
// matches. Later registrations are tried first, mirroring a priority
// override: callers that want their own format checked before the built-in
// defaults. Register("", sniff, opener) nil sniff is invalid and panics —
// callers must provide a detector.
func (r *Registry) Register(name string, sniff func(header []byte) bool, opener Opener) {
	if sniff == nil {
		panic("codec: Register requires a non-nil sniff function")
	}
	r.openers = append([]registeredOpener{{name: name, sniff: sniff, opener: opener}}, r.openers...)
}

// HeaderSize is how many leading bytes Open reads to sniff the container
// before handing the stream to the matched Opener. Mirrors
// original_source's HEADER_BLOCK probing step.
const HeaderSize = 8 * 1024

// Open peeks at the stream's header and dispatches to the first matching
// registered Opener. The chosen Opener is given a reader that yields the
// full stream, including the peeked bytes.
func (r *Registry) Open(stream io.Reader) (Decoder, string, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(stream, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", err
	}
	header = header[:n]

	full := io.MultiReader(bytes.NewReader(header), stream)
	for _, ro := range r.openers {
		if ro.sniff(header) {
			dec, err := ro.opener.Open(full)
			if err != nil {
				return nil, "", err
			}
			return dec, ro.name, nil
		}
	}
	return nil, "", errors.New("codec: no registered decoder recognizes this stream")
}
