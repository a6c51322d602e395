package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ad-engine/soundcore/codec"
)

// rawFloatDecoder reads little-endian float32 samples directly off the
// stream it was opened against, frameSize at a time. Unlike fakeDecoder (see
// mock_test.go) it actually consumes the underlying io.Reader, so tests
// built on it exercise countingReader's bytes_read bookkeeping for real
// rather than against a preloaded slice.
type rawFloatDecoder struct {
	r         io.Reader
	info      codec.Info
	frameSize int

	corruptAfter int // 1-based DecodeFrame call that returns a corrupt-frame error; 0 disables
	calls        int
}

func (d *rawFloatDecoder) Info() codec.Info { return d.info }

func (d *rawFloatDecoder) DecodeFrame(dst []float32) (int, error) {
	d.calls++
	if d.corruptAfter > 0 && d.calls == d.corruptAfter {
		return 0, errors.New("rawFloatDecoder: simulated corrupt frame")
	}

	n := d.frameSize
	if n > len(dst) {
		n = len(dst)
	}
	buf := make([]byte, 4*n)
	read, err := io.ReadFull(d.r, buf)
	got := read / 4
	for i := 0; i < got; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			if got > 0 {
				return got, nil
			}
			return 0, io.EOF
		}
		return got, err
	}
	return got, nil
}

func (d *rawFloatDecoder) Close() error { return nil }

// rawFloatOpener registers rawFloatDecoder under a magic 4-byte header so it
// can be dispatched through codec.Registry.Open exactly like a real codec.
type rawFloatOpener struct {
	channels, sampleRate int
	frameSize            int
	corruptAfter         int
}

func (o rawFloatOpener) Open(r io.Reader) (codec.Decoder, error) {
	// The registry hands over the full stream; consume the magic header
	// here, as a real codec parses its own header.
	if _, err := io.ReadFull(r, make([]byte, len(rawFloatMagic))); err != nil {
		return nil, err
	}
	return &rawFloatDecoder{
		r:            r,
		info:         codec.Info{Channels: o.channels, SampleRate: o.sampleRate},
		frameSize:    o.frameSize,
		corruptAfter: o.corruptAfter,
	}, nil
}

const rawFloatMagic = "RAWF"

func registerRawFloat(e *Engine, o rawFloatOpener) {
	e.codecs.Register("rawfloat", func(header []byte) bool {
		return bytes.HasPrefix(header, []byte(rawFloatMagic))
	}, o)
}

// encodeRawFloat builds a rawFloatMagic-prefixed stream of n little-endian
// float32 samples, each set to value.
func encodeRawFloat(n int, value float32) []byte {
	buf := make([]byte, len(rawFloatMagic)+4*n)
	copy(buf, rawFloatMagic)
	bits := math.Float32bits(value)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[len(rawFloatMagic)+4*i:], bits)
	}
	return buf
}

func TestCreateDataDecodesFullyAndMarksTerminal(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50})

	raw := encodeRawFloat(300, 0.25)
	id, err := e.CreateDataFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateDataFromStream: %v", err)
	}
	sd := e.sounds[id]
	if !sd.fullyRead || !sd.fullyDecoded {
		t.Fatalf("fullyRead=%v fullyDecoded=%v, want both true after CreateData", sd.fullyRead, sd.fullyDecoded)
	}
	if len(sd.decoded) != 300 {
		t.Fatalf("decoded %d samples, want 300", len(sd.decoded))
	}
	if sd.totalRead != int64(len(raw)) {
		t.Fatalf("totalRead = %d, want %d (countingReader should see every byte pulled)", sd.totalRead, len(raw))
	}
}

func TestCreateDataRejectsStereo(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 2, sampleRate: 100, frameSize: 50})

	raw := encodeRawFloat(100, 0.1)
	_, err := e.CreateDataFromStream(bytes.NewReader(raw))
	if !errors.Is(err, ErrStereoNotAllowed) {
		t.Fatalf("err = %v, want ErrStereoNotAllowed", err)
	}
}

func TestCreateDataUnsupportedContainer(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	// No opener registered beyond the defaults (vorbis/mp3/wav), none of
	// which recognize this payload.
	_, err := e.CreateDataFromStream(bytes.NewReader([]byte("not a real container, just junk bytes")))
	if !errors.Is(err, ErrUnsupportedContainer) {
		t.Fatalf("err = %v, want ErrUnsupportedContainer", err)
	}
}

func TestCreateDataTruncatesAndLogsWhenExceedingNonStreamBound(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50})

	// limit = MaxDurationForNonStream(10s) * 100Hz = 1000 samples; supply
	// twice that so the loop exits by hitting the bound, not io.EOF.
	raw := encodeRawFloat(2000, 0.5)
	id, err := e.CreateDataFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateDataFromStream: %v", err)
	}
	sd := e.sounds[id]
	limit := maxSamplesForNonStream(100)
	if len(sd.decoded) != limit {
		t.Fatalf("decoded %d samples, want truncated at limit %d", len(sd.decoded), limit)
	}
}

func TestCreateStreamedOpensWithoutDecoding(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50})

	raw := encodeRawFloat(500, 0.3)
	id, err := e.CreateStreamedFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateStreamedFromStream: %v", err)
	}
	sd := e.sounds[id]
	if len(sd.decoded) != 0 {
		t.Fatalf("decoded = %d samples, want 0: createStreamed must not decode eagerly", len(sd.decoded))
	}
	if sd.fullyRead || sd.fullyDecoded {
		t.Fatalf("fullyRead=%v fullyDecoded=%v, want both false right after open", sd.fullyRead, sd.fullyDecoded)
	}
	if !sd.streamed {
		t.Fatalf("streamed = false, want true")
	}
}

func TestDecodeMoreGrowsFrontierAndTracksBytesRead(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50})

	raw := encodeRawFloat(500, 0.4)
	id, err := e.CreateStreamedFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateStreamedFromStream: %v", err)
	}
	sd := e.sounds[id]

	e.decodeMore(sd, 120)
	if len(sd.decoded) < 120 {
		t.Fatalf("decoded %d samples, want at least 120", len(sd.decoded))
	}
	if sd.fullyDecoded {
		t.Fatalf("fullyDecoded = true too early, only %d/500 samples pulled", len(sd.decoded))
	}
	if sd.totalRead <= 0 || sd.totalRead > int64(len(raw)) {
		t.Fatalf("totalRead = %d, want in (0, %d]", sd.totalRead, len(raw))
	}

	// Decoding the rest must bring totalRead up to the full stream length
	// exactly, matching the monotonic bytes_read invariant against real
	// bytes pulled off the underlying reader.
	e.decodeMore(sd, 10000)
	if sd.totalRead != int64(len(raw)) {
		t.Fatalf("totalRead = %d once fully decoded, want %d", sd.totalRead, len(raw))
	}
}

func TestDecodeMoreReachesEOFAndMarksTerminal(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50})

	raw := encodeRawFloat(120, 0.6)
	id, err := e.CreateStreamedFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateStreamedFromStream: %v", err)
	}
	sd := e.sounds[id]

	e.decodeMore(sd, 10000) // well past what's available
	if !sd.fullyRead || !sd.fullyDecoded {
		t.Fatalf("fullyRead=%v fullyDecoded=%v, want both true once the stream is exhausted", sd.fullyRead, sd.fullyDecoded)
	}
	if len(sd.decoded) != 120 {
		t.Fatalf("decoded %d samples, want all 120 available", len(sd.decoded))
	}

	// A further call on an already fully-decoded sound is a no-op.
	before := len(sd.decoded)
	e.decodeMore(sd, 50)
	if len(sd.decoded) != before {
		t.Fatalf("decodeMore grew an already fully-decoded sound from %d to %d", before, len(sd.decoded))
	}
}

func TestDecodeMoreSkipsCorruptFrameAndContinues(t *testing.T) {
	e, _ := newTestEngine(t, 2, 2)
	// corruptAfter=2 means the second DecodeFrame call in this test returns
	// a corrupt-frame error; decodeMore must log it, skip it, and keep
	// pulling subsequent frames within the same call rather than aborting.
	registerRawFloat(e, rawFloatOpener{channels: 1, sampleRate: 100, frameSize: 50, corruptAfter: 2})

	raw := encodeRawFloat(300, 0.7)
	id, err := e.CreateStreamedFromStream(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateStreamedFromStream: %v", err)
	}
	sd := e.sounds[id]

	e.decodeMore(sd, 150)
	if len(sd.decoded) < 150 {
		t.Fatalf("decoded %d samples, want at least 150: a single corrupt frame must not stall the whole call", len(sd.decoded))
	}
}
