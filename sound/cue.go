package sound

import "github.com/ad-engine/soundcore/backend"

// CueState is the PlayingCue lifecycle.
type CueState int

const (
	CueNotPlaying CueState = iota
	CuePlaying
	CueStale
	CueInterrupted
)

func (s CueState) String() string {
	switch s {
	case CuePlaying:
		return "playing"
	case CueStale:
		return "stale"
	case CueInterrupted:
		return "interrupted"
	default:
		return "not_playing"
	}
}

// SoundOption is the live, per-cue knob applied every tick (the first step of updateCue).
type SoundOption struct {
	Gain float64
	Position [3]float64
	Velocity [3]float64
}

// cueSound is one (SoundId, loops) element of a CueTemplate's playlist.
type cueSound struct {
	id SoundId
	loops int
}

// cueTemplate is the immutable playback recipe behind a played cue.
type cueTemplate struct {
	category string
	priority int
	sounds []cueSound
	interruptSound SoundId
	hasInterrupt bool

	live []Handle[*playingCue]
}

// playingCue is a live instantiation of a cueTemplate bound to a voice.
type playingCue struct {
	template Handle[*cueTemplate]
	category string
	priority int
	voice backend.VoiceID
	voiceSlot int

	playingIndex int
	waitingIndex int

	sounds []*playingSound
	interrupt *playingSound
	interrupting bool

	option SoundOption
	state CueState

	paused bool
	pausedByBulk bool
}

// soundAt returns the playingSound update_cue should treat as "the
// current waiting/playing sound", which during an interruption splice is
// always the interrupt sound.
func (pc *playingCue) soundAt(i int) *playingSound {
	if pc.interrupting {
		return pc.interrupt
	}
	if i < 0 || i >= len(pc.sounds) {
		return nil
	}
	return pc.sounds[i]
}

func (pc *playingCue) waitingSound() *playingSound { return pc.soundAt(pc.waitingIndex) }
func (pc *playingCue) playingSoundNow() *playingSound { return pc.soundAt(pc.playingIndex) }
