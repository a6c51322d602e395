package sound

import (
	"errors"
	"io"

	"github.com/ad-engine/soundcore/backend"
	"github.com/ad-engine/soundcore/codec"
)

// fakeDevice is a minimal in-memory backend.Device for exercising the
// scheduler and cue state machine without real audio output: a small
// hand-rolled fake rather than a generated mock.
type fakeDevice struct {
	nextVoice backend.VoiceID
	nextBuffer backend.BufferID

	voices map[backend.VoiceID]*fakeVoice
	buffers map[backend.BufferID][]float32

	closed bool
}

type fakeVoice struct {
	queue []backend.BufferID
	processed int
	state backend.VoiceState
	gain float64
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		voices: make(map[backend.VoiceID]*fakeVoice),
		buffers: make(map[backend.BufferID][]float32),
	}
}

func (d *fakeDevice) GenVoices(n int) ([]backend.VoiceID, error) {
	ids := make([]backend.VoiceID, n)
	for i := 0; i < n; i++ {
		d.nextVoice++
		id := d.nextVoice
		d.voices[id] = &fakeVoice{state: backend.VoiceInitial}
		ids[i] = id
	}
	return ids, nil
}

func (d *fakeDevice) DeleteVoices(ids []backend.VoiceID) {
	for _, id := range ids {
		delete(d.voices, id)
	}
}

func (d *fakeDevice) GenBuffers(n int) ([]backend.BufferID, error) {
	ids := make([]backend.BufferID, n)
	for i := 0; i < n; i++ {
		d.nextBuffer++
		ids[i] = d.nextBuffer
	}
	return ids, nil
}

func (d *fakeDevice) DeleteBuffers(ids []backend.BufferID) {
	for _, id := range ids {
		delete(d.buffers, id)
	}
}

func (d *fakeDevice) BufferData(id backend.BufferID, format backend.Format, pcm []float32, sampleRate int) error {
	cp := append([]float32(nil), pcm...)
	d.buffers[id] = cp
	return nil
}

func (d *fakeDevice) QueueBuffers(voice backend.VoiceID, buffers []backend.BufferID) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.queue = append(v.queue, buffers...)
	return nil
}

func (d *fakeDevice) UnqueueBuffers(voice backend.VoiceID, n int) ([]backend.BufferID, error) {
	v, ok := d.voices[voice]
	if !ok {
		return nil, errors.New("fakeDevice: unknown voice")
	}
	if n > v.processed {
		return nil, errors.New("fakeDevice: not processed")
	}
	out := append([]backend.BufferID(nil), v.queue[:n]...)
	v.queue = v.queue[n:]
	v.processed -= n
	return out, nil
}

func (d *fakeDevice) ProcessedBufferCount(voice backend.VoiceID) (int, error) {
	v, ok := d.voices[voice]
	if !ok {
		return 0, errors.New("fakeDevice: unknown voice")
	}
	return v.processed, nil
}

// markProcessed is a test helper simulating the backend having finished
// rendering n buffers at the front of voice's queue.
func (d *fakeDevice) markProcessed(voice backend.VoiceID, n int) {
	v := d.voices[voice]
	v.processed += n
	if v.processed > len(v.queue) {
		v.processed = len(v.queue)
	}
}

func (d *fakeDevice) ClearQueue(voice backend.VoiceID) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.queue = nil
	v.processed = 0
	return nil
}

func (d *fakeDevice) SetGain(voice backend.VoiceID, gain float64) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.gain = gain
	return nil
}

func (d *fakeDevice) SetLooping(voice backend.VoiceID, looping bool) error { return nil }
func (d *fakeDevice) SetPosition(voice backend.VoiceID, x, y, z float64) error { return nil }
func (d *fakeDevice) SetVelocity(voice backend.VoiceID, x, y, z float64) error { return nil }
func (d *fakeDevice) SetRelative(voice backend.VoiceID, relative bool) error { return nil }

func (d *fakeDevice) Play(voice backend.VoiceID) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.state = backend.VoicePlaying
	return nil
}

func (d *fakeDevice) Pause(voice backend.VoiceID) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.state = backend.VoicePaused
	return nil
}

func (d *fakeDevice) Stop(voice backend.VoiceID) error {
	v, ok := d.voices[voice]
	if !ok {
		return errors.New("fakeDevice: unknown voice")
	}
	v.state = backend.VoiceStopped
	return nil
}

func (d *fakeDevice) State(voice backend.VoiceID) (backend.VoiceState, error) {
	v, ok := d.voices[voice]
	if !ok {
		return backend.VoiceInitial, errors.New("fakeDevice: unknown voice")
	}
	return v.state, nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// fakeDecoder hands out samples from a preloaded slice, frameSize at a
// time, so tests can control decode pacing precisely. It implements
// codec.Decoder directly.
type fakeDecoder struct {
	info codec.Info
	samples []float32
	pos int
	frameSize int
	needMore int // number of ErrNeedMoreData returns before samples flow
}

func (d *fakeDecoder) Info() codec.Info { return d.info }

func (d *fakeDecoder) DecodeFrame(dst []float32) (int, error) {
	if d.needMore > 0 {
		d.needMore--
		return 0, codec.ErrNeedMoreData
	}
	if d.pos >= len(d.samples) {
		return 0, io.EOF
	}
	n := d.frameSize
	if n > len(dst) {
		n = len(dst)
	}
	if d.pos+n > len(d.samples) {
		n = len(d.samples) - d.pos
	}
	copy(dst[:n], d.samples[d.pos:d.pos+n])
	d.pos += n
	return n, nil
}

func (d *fakeDecoder) Close() error { return nil }

// newFakeSampleData builds a streamed sampleData backed by a fakeDecoder,
// bypassing the registry/stream-open path entirely so tests can control
// exactly when samples become available.
func newFakeSampleData(id SoundId, channels, sampleRate int, samples []float32, frameSize int) *sampleData {
	dec := &fakeDecoder{
		info: codec.Info{Channels: channels, SampleRate: sampleRate},
		samples: samples,
		frameSize: frameSize,
	}
	format := backend.FormatFloatMono
	if channels == 2 {
		format = backend.FormatFloatStereo
	}
	return &sampleData{
		id: id,
		countingR: &countingReader{r: new(nopReader)},
		dec: dec,
		info: dec.info,
		format: format,
		streamed: true,
	}
}

type nopReader struct{}

func (nopReader) Read(p []byte) (int, error) { return 0, io.EOF }
