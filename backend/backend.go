// Package backend defines the "Audio backend" boundary of : device and
// voice lifecycle, buffer upload, and the queued-buffer contract the sound
// engine drives every tick. sound never talks to a concrete audio library
// directly, only to this interface — mirroring how original_source talks
// to OpenAL only through SoundManager.h's alCall wrappers.
package backend

import "errors"

// Format tags an uploaded buffer's channel layout. The engine always
// interleaves multi-channel PCM itself before
// calling BufferData, so the backend never needs to know anything beyond
// which of these two layouts it is receiving.
type Format int

const (
	FormatFloatMono Format = iota
	FormatFloatStereo
)

// VoiceState mirrors the states original_source queries via alGetSourcei.
type VoiceState int

const (
	VoiceInitial VoiceState = iota
	VoicePlaying
	VoicePaused
	VoiceStopped
)

// VoiceID and BufferID are opaque handles into the device's voice/buffer
// pools, the Go analogue of ALuint source/buffer names.
type VoiceID uint32
type BufferID uint32

// ErrDeviceClosed is returned by any Device method called after Close.
var ErrDeviceClosed = errors.New("backend: device closed")

// Device is the full surface of "Audio backend (consumed)". One
// Device is acquired for the lifetime of a sound.Engine and closed with it.
type Device interface {
	// GenVoices allocates n voices up front, matching original_source's
	// fixed array of MAX_SOURCES. Called once at startup.
	GenVoices(n int) ([]VoiceID, error)
	DeleteVoices(ids []VoiceID)

	// GenBuffers allocates n buffer handles for a single PlayingSound's
	// ring. Called once per PlayingSound.
	GenBuffers(n int) ([]BufferID, error)
	DeleteBuffers(ids []BufferID)

	// BufferData uploads interleaved PCM into a previously generated
	// buffer, overwriting whatever it held before. There is no byte-count
	// argument; the sample count is len(pcm).
	BufferData(id BufferID, format Format, pcm []float32, sampleRate int) error

	// QueueBuffers appends buffers to a voice's playback queue in order.
	QueueBuffers(voice VoiceID, buffers []BufferID) error
	// UnqueueBuffers removes exactly n buffers from the front of the queue,
	// provided they have already been fully rendered. It is an error to
	// request more than ProcessedBufferCount reports.
	UnqueueBuffers(voice VoiceID, n int) ([]BufferID, error)
	// ProcessedBufferCount reports how many buffers at the front of the
	// queue have finished rendering and are eligible for UnqueueBuffers.
	ProcessedBufferCount(voice VoiceID) (int, error)
	// ClearQueue drops every buffer queued on voice, rendered or not.
	ClearQueue(voice VoiceID) error

	SetGain(voice VoiceID, gain float64) error
	SetLooping(voice VoiceID, looping bool) error
	SetPosition(voice VoiceID, x, y, z float64) error
	SetVelocity(voice VoiceID, x, y, z float64) error
	SetRelative(voice VoiceID, relative bool) error

	Play(voice VoiceID) error
	Pause(voice VoiceID) error
	Stop(voice VoiceID) error
	State(voice VoiceID) (VoiceState, error)

	// Close releases the device and context. Idempotent.
	Close() error
}
