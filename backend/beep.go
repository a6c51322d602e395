package backend

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// ErrInvalidVoice and ErrNotProcessed cover the BeepDevice-specific
// failure modes of the Device contract: an unknown VoiceID, and an
// UnqueueBuffers request exceeding ProcessedBufferCount.
var (
	ErrInvalidVoice = errors.New("backend: invalid voice")
	ErrNotProcessed = errors.New("backend: buffers not yet processed")
)

// BeepDevice implements Device on top of gopxl/beep's speaker and Mixer:
// speaker.Init opens the device once at construction, voices are
// Ctrl/Volume wrapped streamers added to one shared Mixer, and Close never
// needs to tear the mixer down (beep has no explicit device-close
// primitive; the process owns the speaker for its lifetime).
type BeepDevice struct {
	mu sync.Mutex
	sampleRate beep.SampleRate
	mixer *beep.Mixer

	nextVoice VoiceID
	nextBuffer BufferID
	voices map[VoiceID]*voiceState
	buffers map[BufferID]bufferData

	closed bool
}

type bufferData struct {
	format Format
	pcm []float32
	sampleRate int
}

type voiceState struct {
	queue []BufferID
	processed int
	posInHead int // sample index into the PCM of queue[0]

	vol *effects.Volume
	ctrl *beep.Ctrl
	playing bool

	looping bool
	relative bool
}

// NewBeepDevice opens the speaker at sampleRate with a playback buffer
// holding bufferSize worth of samples (suggest ~ the audio-tick budget of,
// e.g. 10-20ms) and
// returns a ready Device.
func NewBeepDevice(sampleRate int, bufferSize time.Duration) (*BeepDevice, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(bufferSize)); err != nil {
		return nil, err
	}

	mixer := &beep.Mixer{}
	speaker.Play(mixer)

	return &BeepDevice{
		sampleRate: sr,
		mixer: mixer,
		voices: make(map[VoiceID]*voiceState),
		buffers: make(map[BufferID]bufferData),
	}, nil
}

func (d *BeepDevice) GenVoices(n int) ([]VoiceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	ids := make([]VoiceID, n)
	for i := 0; i < n; i++ {
		d.nextVoice++
		id := d.nextVoice
		vs := &voiceState{}
		vs.vol = &effects.Volume{Streamer: &voiceStreamer{dev: d, id: id}, Base: 2, Volume: 0}
		vs.ctrl = &beep.Ctrl{Streamer: vs.vol, Paused: true}
		d.voices[id] = vs
		ids[i] = id

		speaker.Lock()
		d.mixer.Add(vs.ctrl)
		speaker.Unlock()
	}
	return ids, nil
}

func (d *BeepDevice) DeleteVoices(ids []VoiceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.voices, id)
	}
}

func (d *BeepDevice) GenBuffers(n int) ([]BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	ids := make([]BufferID, n)
	for i := 0; i < n; i++ {
		d.nextBuffer++
		ids[i] = d.nextBuffer
		d.buffers[ids[i]] = bufferData{}
	}
	return ids, nil
}

func (d *BeepDevice) DeleteBuffers(ids []BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.buffers, id)
	}
}

func (d *BeepDevice) BufferData(id BufferID, format Format, pcm []float32, sampleRate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.buffers[id] = bufferData{format: format, pcm: pcm, sampleRate: sampleRate}
	return nil
}

func (d *BeepDevice) QueueBuffers(voice VoiceID, buffers []BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.queue = append(vs.queue, buffers...)
	return nil
}

func (d *BeepDevice) UnqueueBuffers(voice VoiceID, n int) ([]BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return nil, ErrInvalidVoice
	}
	if n > vs.processed {
		return nil, ErrNotProcessed
	}
	out := append([]BufferID(nil), vs.queue[:n]...)
	vs.queue = vs.queue[n:]
	vs.processed -= n
	return out, nil
}

func (d *BeepDevice) ProcessedBufferCount(voice VoiceID) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return 0, ErrInvalidVoice
	}
	return vs.processed, nil
}

func (d *BeepDevice) ClearQueue(voice VoiceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.queue = nil
	vs.processed = 0
	vs.posInHead = 0
	return nil
}

func (d *BeepDevice) SetGain(voice VoiceID, gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.vol.Volume = gainToVolume(gain)
	vs.vol.Silent = gain <= 0
	return nil
}

func (d *BeepDevice) SetLooping(voice VoiceID, looping bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.looping = looping
	return nil
}

func (d *BeepDevice) SetPosition(voice VoiceID, x, y, z float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	// beep has no panning/attenuation model; position is accepted and
	// ignored, matching the Non-goal on 3D attenuation curves.
	return nil
}

func (d *BeepDevice) SetVelocity(voice VoiceID, x, y, z float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	return nil
}

func (d *BeepDevice) SetRelative(voice VoiceID, relative bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.relative = relative
	return nil
}

func (d *BeepDevice) Play(voice VoiceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	vs.playing = true
	speaker.Lock()
	vs.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (d *BeepDevice) Pause(voice VoiceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	speaker.Lock()
	vs.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (d *BeepDevice) Stop(voice VoiceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return ErrInvalidVoice
	}
	speaker.Lock()
	vs.ctrl.Paused = true
	speaker.Unlock()
	vs.playing = false
	vs.queue = nil
	vs.processed = 0
	vs.posInHead = 0
	return nil
}

func (d *BeepDevice) State(voice VoiceID) (VoiceState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	vs, ok := d.voices[voice]
	if !ok {
		return VoiceInitial, ErrInvalidVoice
	}
	switch {
	case !vs.playing:
		return VoiceStopped, nil
	case vs.ctrl.Paused:
		return VoicePaused, nil
	default:
		return VoicePlaying, nil
	}
}

func (d *BeepDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	speaker.Clear()
	return nil
}

// gainToVolume converts a linear amplitude factor (0..1, clamped) into
// beep's logarithmic Volume units (0 = unity, negative = quieter).
func gainToVolume(gain float64) float64 {
	if gain <= 0 {
		return -10
	}
	if gain >= 1 {
		return 0
	}
	// base^Volume == gain, with base = effects.Volume's own Base (2 here);
	// log2(gain) lands exactly on that curve.
	return math.Log2(gain)
}

// voiceStreamer pulls interleaved PCM out of the device's buffer queue for
// one voice, advancing through queued buffers and marking them processed
// exactly the way an OpenAL voice drains its queue: this callback runs on
// beep's own audio goroutine, entirely outside the sound engine's
// single-threaded tick loop — the mutex below is the seam between the
// two, not a violation of it.
type voiceStreamer struct {
	dev *BeepDevice
	id VoiceID
}

func (v *voiceStreamer) Stream(samples [][2]float64) (int, bool) {
	d := v.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	vs, ok := d.voices[v.id]
	if !ok {
		return 0, false
	}

	for i := range samples {
		buf, hasHead := d.headBuffer(vs)
		if !hasHead {
			samples[i] = [2]float64{0, 0}
			continue
		}

		frameLen := channelsFor(buf.format)
		sample := vs.posInHead * frameLen
		switch buf.format {
		case FormatFloatStereo:
			samples[i][0] = float64(buf.pcm[sample])
			samples[i][1] = float64(buf.pcm[sample+1])
		default:
			v := float64(buf.pcm[sample])
			samples[i][0], samples[i][1] = v, v
		}
		vs.posInHead++

		if vs.posInHead*frameLen >= len(buf.pcm) {
			vs.posInHead = 0
			vs.processed++
		}
	}
	return len(samples), true
}

func (v *voiceStreamer) Err() error { return nil }

// headBuffer returns the PCM of the first not-yet-fully-processed buffer in
// vs's queue, if any.
func (d *BeepDevice) headBuffer(vs *voiceState) (bufferData, bool) {
	if vs.processed >= len(vs.queue) {
		return bufferData{}, false
	}
	return d.buffers[vs.queue[vs.processed]], true
}

func channelsFor(f Format) int {
	if f == FormatFloatStereo {
		return 2
	}
	return 1
}
