package sound

import "github.com/ad-engine/soundcore/backend"

// playingSoundState is the per-sound lifecycle of PlayingSound.
type playingSoundState int

const (
	soundWaiting playingSoundState = iota
	soundPlaying
	soundStale
	soundFinished
)

// playingSound is a per-voice-use instantiation of one sampleData. Its
// buffer ring is partitioned into free / staged / in_flight, the three
// disjoint slices below; |free|+|staged|+|in_flight| == |ring| always.
type playingSound struct {
	data *sampleData

	ring []backend.BufferID
	free []backend.BufferID
	staged []backend.BufferID
	inFlight []backend.BufferID

	loops int
	cursor int // sample index into data.decoded (interleaved)
	state playingSoundState
}

func newPlayingSound(data *sampleData, ring []backend.BufferID, loops int) *playingSound {
	ps := &playingSound{
		data: data,
		ring: ring,
		loops: loops,
		state: soundWaiting,
	}
	ps.free = append(ps.free, ring...)
	return ps
}

func (ps *playingSound) ringInvariant() bool {
	return len(ps.free)+len(ps.staged)+len(ps.inFlight) == len(ps.ring)
}

// decodedFrontier is how many interleaved samples are currently decoded.
func (ps *playingSound) decodedFrontier() int {
	return len(ps.data.decoded)
}

// exhausted reports whether the cursor has caught up to a fully decoded
// sound with no remaining loops.
func (ps *playingSound) exhausted() bool {
	return ps.cursor >= ps.decodedFrontier() && ps.data.fullyDecoded && ps.loops <= 0
}

// bufferNext moves exactly one buffer from free to staged, filled with PCM
// from the sample store starting at cursor, following the chunk size policy.
// Returns false if free is empty or there is nothing new to stage.
func (ps *playingSound) bufferNext(engine *Engine) bool {
	if len(ps.free) == 0 {
		return false
	}
	if ps.cursor >= ps.decodedFrontier() {
		return false
	}

	channels := max(ps.data.channels(), 1)
	var nextCursor int
	if ps.data.streamed {
		step := minSamplesFor(engine.config.MinDurationExtracted, ps.data.info.SampleRate) * channels
		nextCursor = ps.cursor + step
		if nextCursor > ps.decodedFrontier() {
			nextCursor = ps.decodedFrontier()
		}
	} else {
		nextCursor = ps.decodedFrontier()
	}
	if nextCursor <= ps.cursor {
		return false
	}

	id := ps.free[len(ps.free)-1]
	ps.free = ps.free[:len(ps.free)-1]

	pcm := ps.data.decoded[ps.cursor:nextCursor]
	if err := engine.device.BufferData(id, ps.data.format, pcm, ps.data.info.SampleRate); err != nil {
		engine.logf("sound: buffer upload failed: %v", err)
		ps.free = append(ps.free, id)
		return false
	}
	ps.staged = append(ps.staged, id)
	ps.cursor = nextCursor

	if ps.cursor == ps.decodedFrontier() && ps.data.fullyDecoded {
		if ps.loops <= 0 {
			ps.state = soundStale
		} else {
			ps.loops--
			ps.cursor = 0
		}
	}
	return true
}

// reclaim moves n buffers from the front of in_flight back to free, mirroring
// the voice's processed-buffer unqueue order.
func (ps *playingSound) reclaim(ids []backend.BufferID) {
	if len(ids) == 0 {
		return
	}
	n := len(ids)
	if n > len(ps.inFlight) {
		n = len(ps.inFlight)
	}
	ps.inFlight = ps.inFlight[n:]
	ps.free = append(ps.free, ids...)
}

// submitStaged moves every staged buffer into in_flight and returns them; the
// caller then queues the returned slice on the backend voice.
func (ps *playingSound) submitStaged() []backend.BufferID {
	out := ps.staged
	ps.inFlight = append(ps.inFlight, out...)
	ps.staged = nil
	return out
}

// clearQueued returns every staged and in-flight buffer to free, for the
// interruption splice.
func (ps *playingSound) clearQueued() {
	ps.free = append(ps.free, ps.staged...)
	ps.free = append(ps.free, ps.inFlight...)
	ps.staged = nil
	ps.inFlight = nil
	ps.cursor = 0
}
