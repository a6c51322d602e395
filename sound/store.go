package sound

import (
	"errors"
	"fmt"
	"io"

	"github.com/ad-engine/soundcore/backend"
	"github.com/ad-engine/soundcore/codec"
)

// SoundId is an interned symbolic name of a loaded sound.
type SoundId uint32

// sampleData is one per loaded sound. Shared-read across any number of
// PlayingSounds; the decoder driver is the sole mutator.
type sampleData struct {
	id SoundId

	stream io.Reader
	countingR *countingReader
	dec codec.Decoder

	totalRead int64 // bytes pulled from stream so far
	fullyRead bool
	fullyDecoded bool

	info codec.Info

	decoded []float32 // interleaved samples decoded so far; len is the frontier

	format backend.Format
	streamed bool
}

// countingReader tracks exact bytes_read for the monotonicity invariant
// without the manual byte-residue bookkeeping a push-style decoder
// would otherwise need.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *sampleData) channels() int { return s.info.Channels }

// createData loads path/stream fully: the entire stream is read and decoded
// in one call, bounded by maxSamplesForNonStream. Mono only.
func (e *Engine) createData(id SoundId, r io.Reader) (*sampleData, error) {
	cr := &countingReader{r: r}
	dec, name, err := e.codecs.Open(cr)
	if err != nil {
		return nil, fmt.Errorf("sound: open codec: %w: %w", ErrUnsupportedContainer, err)
	}
	info := dec.Info()
	if info.Channels != 1 {
		dec.Close()
		return nil, ErrStereoNotAllowed
	}

	sd := &sampleData{
		id: id,
		stream: r,
		countingR: cr,
		dec: dec,
		info: info,
		format: backend.FormatFloatMono,
		streamed: false,
	}

	limit := maxSamplesForNonStream(info.SampleRate)
	buf := make([]float32, 4096)
	reachedEOF := false
loop:
	for len(sd.decoded) < limit {
		n, derr := dec.DecodeFrame(buf)
		if n > 0 {
			room := limit - len(sd.decoded)
			if n > room {
				n = room
			}
			sd.decoded = append(sd.decoded, buf[:n]...)
		}
		if derr != nil {
			if errors.Is(derr, io.EOF) {
				reachedEOF = true
				break loop
			}
			if errors.Is(derr, codec.ErrNeedMoreData) {
				continue
			}
			e.logf("%s: decode error: %v", name, derr)
			break loop
		}
		if n == 0 {
			break loop
		}
	}
	if !reachedEOF && len(sd.decoded) >= limit {
		e.logf("sound: %d: exceeds non-streamed duration bound, truncated at %d samples", id, limit)
	}
	sd.totalRead = cr.n
	sd.fullyRead = true
	sd.fullyDecoded = true
	return sd, nil
}

// createStreamed opens r with an initial HeaderBlock read and leaves the
// sound to be decoded incrementally by decode_more on demand. Mono or
// stereo.
func (e *Engine) createStreamed(id SoundId, r io.Reader) (*sampleData, error) {
	cr := &countingReader{r: r}
	dec, name, err := e.codecs.Open(cr)
	if err != nil {
		return nil, fmt.Errorf("sound: open codec: %w: %w", ErrUnsupportedContainer, err)
	}

	info := dec.Info()
	format := backend.FormatFloatMono
	if info.Channels == 2 {
		format = backend.FormatFloatStereo
	}

	sd := &sampleData{
		id: id,
		stream: r,
		countingR: cr,
		dec: dec,
		info: info,
		format: format,
		streamed: true,
	}
	sd.totalRead = cr.n
	e.logf("sound: %d: opened streamed via %s codec", id, name)
	return sd, nil
}

// decodeMore ensures at least minSamples additional interleaved samples are
// decoded from the current frontier, or the sound becomes fully decoded,
// whichever comes first.
func (e *Engine) decodeMore(sd *sampleData, minSamples int) {
	if sd.fullyDecoded {
		return
	}
	target := len(sd.decoded) + minSamples
	buf := make([]float32, 4096)

	const maxConsecutiveFrameErrors = 8
	badFrames := 0
	for len(sd.decoded) < target {
		n, err := sd.dec.DecodeFrame(buf)
		if n > 0 {
			sd.decoded = append(sd.decoded, buf[:n]...)
		}
		sd.totalRead = sd.countingR.n

		if err != nil {
			if errors.Is(err, io.EOF) {
				sd.fullyRead = true
				sd.fullyDecoded = true
				return
			}
			if errors.Is(err, codec.ErrNeedMoreData) {
				// Pull-style decoders read directly from the stream, so a
				// "need more data" signal with zero progress means the
				// stream itself is exhausted for now; treat like EOF for
				// this tick and let the caller retry next tick.
				return
			}
			// Corrupt frame: logged and skipped, not fatal to the call.
			// Keep decoding further frames toward target; bail out only if
			// the decoder never recovers, to keep this bounded per tick.
			e.logf("sound: %d: codec frame error, skipping frame: %v", sd.id, err)
			badFrames++
			if badFrames >= maxConsecutiveFrameErrors {
				return
			}
			continue
		}
		badFrames = 0
		if n == 0 {
			return
		}
	}
}

