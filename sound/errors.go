package sound

import "errors"

// Sentinel errors returned by the public API: one errors.New per failure
// kind, wrapped with fmt.Errorf("%w:...") at the call site when extra
// context helps a log line.
var (
	// ErrSoundNotFound is logged when CreateCue references a SoundId that
	// was never created (or failed to create); the offending sound or
	// interrupt slot is omitted, it is not a fatal return from CreateCue.
	ErrSoundNotFound = errors.New("sound: sound not found")

	// ErrChannelMismatch is logged when a cue template's sounds do
	// not share a channel count; the offending sound is omitted, it is not
	// a fatal return from CreateCue.
	ErrChannelMismatch = errors.New("sound: channel count mismatch")

	// ErrTemplateCapReached means a template already has MaxSourcePerCue
	// live instances.
	ErrTemplateCapReached = errors.New("sound: per-template instance cap reached")

	// ErrVoicePoolExhausted means no free voice was available and no live
	// cue in the requested category was as urgent as or less urgent than the
	// incoming one.
	ErrVoicePoolExhausted = errors.New("sound: voice pool exhausted")

	// ErrInvalidHandle is returned by operations given a handle that fails
	// to resolve (stale, zero, or never minted).
	ErrInvalidHandle = errors.New("sound: invalid handle")

	// ErrStereoNotAllowed is returned by CreateData for stereo streams;
	// fully-loaded sounds are mono-only.
	ErrStereoNotAllowed = errors.New("sound: stereo not allowed for non-streamed sound")

	// ErrUnsupportedContainer means no registered codec opener recognized
	// the stream's header.
	ErrUnsupportedContainer = errors.New("sound: unsupported container")
)
