package sound

import "github.com/ad-engine/soundcore/backend"

// CueSnapshot is one playing cue's read-only state, as exposed by Info.
type CueSnapshot struct {
	Category string
	Priority int
	State CueState
	Voice backend.VoiceID
}

// Snapshot is the read-only inspector view of info(), generalizing the
// SoundUi-style scheduler panel into plain data a caller renders however it
// likes.
type Snapshot struct {
	Cues map[Handle[*playingCue]]CueSnapshot
	Voices []backend.VoiceID
	FreeVoices int
	LoadedSounds []SoundId
}

// Info returns a snapshot of the engine's current scheduling state.
func (e *Engine) Info() Snapshot {
	snap := Snapshot{
		Cues: make(map[Handle[*playingCue]]CueSnapshot),
		Voices: append([]backend.VoiceID(nil), e.scheduler.voices...),
		FreeVoices: len(e.scheduler.freeVoices),
	}
	e.cues.Each(func(h Handle[*playingCue], pc *playingCue) {
		snap.Cues[h] = CueSnapshot{
			Category: pc.category,
			Priority: pc.priority,
			State: pc.state,
			Voice: pc.voice,
		}
	})
	for id := range e.sounds {
		snap.LoadedSounds = append(snap.LoadedSounds, id)
	}
	return snap
}
