package sound

// updateCue is update_cue, run once per tick per live cue in the
// fixed order: apply live options, reclaim, retire check, playing-index
// advance, decode ahead, stage and submit.
func (e *Engine) updateCue(h Handle[*playingCue], pc *playingCue) {
	e.applyLiveOptions(pc)

	waiting := pc.waitingSound()
	if waiting != nil {
		e.reclaim(pc, waiting)
		if waiting.state == soundFinished && (pc.interrupting || pc.waitingSound() == nil) {
			pc.state = CueNotPlaying
			e.stopInternal(h, pc)
			return
		}
	}

	playing := pc.playingSoundNow()
	if playing != nil && (playing.state == soundStale || playing.state == soundFinished) {
		playing = e.advancePlayingIndex(pc)
	}

	if playing != nil && !playing.data.fullyDecoded {
		threshold := minSamplesFor(e.config.MinDurationExtracted, playing.data.info.SampleRate) * max(playing.data.channels(), 1)
		if playing.decodedFrontier()-playing.cursor <= threshold {
			e.decodeMore(playing.data, threshold)
		}
	}

	if playing != nil {
		playing.bufferNext(e)
		if len(playing.staged) > 0 {
			ids := playing.submitStaged()
			if err := e.device.QueueBuffers(pc.voice, ids); err != nil {
				e.logf("sound: QueueBuffers: %v", err)
			}
		}
	}
}

// applyLiveOptions pushes position, velocity, and composed gain to the
// voice (the first step) — the only place category gain propagates.
func (e *Engine) applyLiveOptions(pc *playingCue) {
	gain := e.composedGain(pc.option.Gain, pc.category)
	if err := e.device.SetGain(pc.voice, gain); err != nil {
		e.logf("sound: SetGain: %v", err)
	}
	p := pc.option.Position
	if err := e.device.SetPosition(pc.voice, p[0], p[1], p[2]); err != nil {
		e.logf("sound: SetPosition: %v", err)
	}
	v := pc.option.Velocity
	if err := e.device.SetVelocity(pc.voice, v[0], v[1], v[2]); err != nil {
		e.logf("sound: SetVelocity: %v", err)
	}
}

// reclaim queries the voice's processed-buffer count and returns that many
// buffers from the front of in_flight to free on the waiting sound (
// step 2). If the waiting sound is STALE and every buffer has returned, it
// becomes FINISHED and waiting_index advances.
func (e *Engine) reclaim(pc *playingCue, waiting *playingSound) {
	n, err := e.device.ProcessedBufferCount(pc.voice)
	if err != nil {
		e.logf("sound: ProcessedBufferCount: %v", err)
		n = 0
	}
	if n > 0 {
		ids, err := e.device.UnqueueBuffers(pc.voice, n)
		if err != nil {
			e.logf("sound: UnqueueBuffers: %v", err)
		} else {
			waiting.reclaim(ids)
		}
	}
	if waiting.state == soundStale && len(waiting.free) == len(waiting.ring) {
		waiting.state = soundFinished
		if !pc.interrupting {
			pc.waitingIndex++
		}
	}
}

// advancePlayingIndex moves playing_index to the next sound once the
// current one has gone STALE (or already FINISHED, when it is also the
// waiting sound), or marks the cue STALE if none remain.
// Returns the new playing sound, or nil if the cue has
// nothing left to play.
func (e *Engine) advancePlayingIndex(pc *playingCue) *playingSound {
	if pc.interrupting {
		pc.state = CueStale
		return pc.interrupt
	}
	if pc.playingIndex+1 < len(pc.sounds) {
		pc.playingIndex++
		next := pc.sounds[pc.playingIndex]
		next.state = soundPlaying
		return next
	}
	pc.state = CueStale
	return nil
}
