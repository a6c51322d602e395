package sound

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ad-engine/soundcore/backend"
	"github.com/ad-engine/soundcore/codec"
)

// Engine is the public facade of the core API. Every method must be called
// from a single goroutine; Update advances every live cue one tick.
type Engine struct {
	device backend.Device
	codecs *codec.Registry
	config EngineConfig
	logger *log.Logger

	scheduler *scheduler

	sounds map[SoundId]*sampleData
	lastSoundID SoundId

	templates *arena[*cueTemplate]
	cues *arena[*playingCue]

	categories map[string]*CategoryOption
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the default io.Discard logger with a caller-supplied
// one, taken at construction instead of using the global logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine acquires config.MaxSources voices from device and returns a
// ready Engine: voices are pre-allocated at construction.
func NewEngine(device backend.Device, config EngineConfig, opts...Option) (*Engine, error) {
	voices, err := device.GenVoices(config.MaxSources)
	if err != nil {
		return nil, fmt.Errorf("sound: GenVoices: %w", err)
	}

	e := &Engine{
		device: device,
		config: config,
		logger: log.New(io.Discard, "", 0),
		codecs: defaultRegistry(),
		sounds: make(map[SoundId]*sampleData),
		templates: newArena[*cueTemplate](),
		cues: newArena[*playingCue](),
		categories: make(map[string]*CategoryOption),
	}
	e.scheduler = newScheduler(voices)

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the engine's voices and backend device.
func (e *Engine) Close() error {
	e.device.DeleteVoices(e.scheduler.voices)
	return e.device.Close()
}

func (e *Engine) logf(format string, args...any) {
	e.logger.Output(2, fmt.Sprintf(format, args...))
}

func (e *Engine) nextSoundID() SoundId {
	e.lastSoundID++
	return e.lastSoundID
}

// CreateData loads path fully into memory, mono only.
func (e *Engine) CreateData(path string) (SoundId, error) {
	f, err := os.Open(path)
	if err != nil {
		e.logf("sound: create_data: open %s: %v", path, err)
		return 0, err
	}
	defer f.Close()
	return e.CreateDataFromStream(f)
}

// CreateDataFromStream is CreateData against an already-open stream.
func (e *Engine) CreateDataFromStream(r io.Reader) (SoundId, error) {
	id := e.nextSoundID()
	sd, err := e.createData(id, r)
	if err != nil {
		e.logf("sound: create_data: %v", err)
		return 0, err
	}
	e.sounds[id] = sd
	return id, nil
}

// CreateStreamed opens path for incremental decoding, mono or stereo.
func (e *Engine) CreateStreamed(path string) (SoundId, error) {
	f, err := os.Open(path)
	if err != nil {
		e.logf("sound: create_streamed: open %s: %v", path, err)
		return 0, err
	}
	return e.CreateStreamedFromStream(f)
}

// CreateStreamedFromStream is CreateStreamed against an already-open
// stream. The stream is kept open for the sound's lifetime.
func (e *Engine) CreateStreamedFromStream(r io.Reader) (SoundId, error) {
	id := e.nextSoundID()
	sd, err := e.createStreamed(id, r)
	if err != nil {
		e.logf("sound: create_streamed: %v", err)
		return 0, err
	}
	e.sounds[id] = sd
	return id, nil
}

// CueSoundSpec is one (SoundId, loops) element of a cue's playlist.
type CueSoundSpec struct {
	ID SoundId
	Loops int
}

// CreateCue builds an immutable playback recipe from a sound list, category,
// priority, and optional interrupt sound. Sounds with a channel
// count that disagrees with the rest of the list are logged and omitted,
// never aborting the whole cue.
func (e *Engine) CreateCue(sounds []CueSoundSpec, category string, priority int, interrupt SoundId) (Handle[*cueTemplate], error) {
	tmpl := &cueTemplate{category: category, priority: priority}

	expectedChannels := -1
	for _, spec := range sounds {
		sd, ok := e.sounds[spec.ID]
		if !ok {
			e.logf("sound: create_cue: %v: sound %d, omitted", ErrSoundNotFound, spec.ID)
			continue
		}
		if expectedChannels == -1 {
			expectedChannels = sd.channels()
		} else if sd.channels() != expectedChannels {
			e.logf("sound: create_cue: %v: sound %d, omitted", ErrChannelMismatch, spec.ID)
			continue
		}
		tmpl.sounds = append(tmpl.sounds, cueSound{id: spec.ID, loops: spec.Loops})
	}

	if interrupt != 0 {
		if sd, ok := e.sounds[interrupt]; ok {
			if expectedChannels == -1 || sd.channels() == expectedChannels {
				tmpl.interruptSound = interrupt
				tmpl.hasInterrupt = true
			} else {
				e.logf("sound: create_cue: %v: interrupt sound %d, omitted", ErrChannelMismatch, interrupt)
			}
		} else {
			e.logf("sound: create_cue: %v: interrupt sound %d, omitted", ErrSoundNotFound, interrupt)
		}
	}

	return e.templates.Insert(tmpl), nil
}

// instantiateCue builds a playingCue bound to voiceID/slot, pre-decodes the
// first sound to MinDurationBufferedOnCreation, stages and submits one
// buffer, and starts the voice.
func (e *Engine) instantiateCue(tmpl *cueTemplate, voiceID backend.VoiceID, slot int) *playingCue {
	pc := &playingCue{
		category: tmpl.category,
		priority: tmpl.priority,
		voice: voiceID,
		voiceSlot: slot,
		option: SoundOption{Gain: 1},
		state: CuePlaying,
	}

	for _, cs := range tmpl.sounds {
		sd, ok := e.sounds[cs.id]
		if !ok {
			continue
		}
		ring, err := e.device.GenBuffers(e.config.BuffersPerChannel * max(sd.channels(), 1))
		if err != nil {
			e.logf("sound: GenBuffers: %v", err)
			continue
		}
		pc.sounds = append(pc.sounds, newPlayingSound(sd, ring, cs.loops))
	}
	if len(pc.sounds) == 0 {
		pc.state = CueStale
		return pc
	}

	first := pc.sounds[0]
	first.state = soundPlaying

	minSamples := minSamplesFor(e.config.MinDurationBufferedOnCreation, first.data.info.SampleRate) * max(first.data.channels(), 1)
	e.decodeMore(first.data, minSamples)
	first.bufferNext(e)
	if len(first.staged) > 0 {
		ids := first.submitStaged()
		if err := e.device.QueueBuffers(voiceID, ids); err != nil {
			e.logf("sound: QueueBuffers: %v", err)
		}
	}
	if err := e.device.Play(voiceID); err != nil {
		e.logf("sound: Play voice: %v", err)
	}
	return pc
}

// Play allocates a voice for th and starts it.
func (e *Engine) Play(th Handle[*cueTemplate]) (Handle[*playingCue], error) {
	tmpl, ok := e.templates.Resolve(th)
	if !ok {
		return Handle[*playingCue]{}, ErrInvalidHandle
	}
	if len(tmpl.live) >= e.config.MaxSourcePerCue {
		return Handle[*playingCue]{}, ErrTemplateCapReached
	}

	voiceID, slot, ok := e.scheduler.acquireVoice()
	if !ok {
		h := e.scheduler.heapFor(tmpl.category)
		item, found := h.peekLeastUrgent()
		if !found || item.priority < tmpl.priority {
			return Handle[*playingCue]{}, ErrVoicePoolExhausted
		}
		victim, ok := e.cues.Resolve(item.handle)
		if !ok {
			h.erase(item.handle)
			return e.Play(th)
		}
		voiceID, slot = victim.voice, victim.voiceSlot
		e.stopInternal(item.handle, victim)
	}

	pc := e.instantiateCue(tmpl, voiceID, slot)
	handle := e.cues.Insert(pc)
	pc.template = th

	e.scheduler.insert(tmpl.category, handle, tmpl.priority)
	tmpl.live = append(tmpl.live, handle)
	return handle, nil
}

// stopInternal releases h's scheduler membership, backend voice, and arena
// slot. After this, h.resolve() fails forever.
func (e *Engine) stopInternal(h Handle[*playingCue], pc *playingCue) {
	e.scheduler.remove(pc.category, h)
	if err := e.device.ClearQueue(pc.voice); err != nil {
		e.logf("sound: ClearQueue: %v", err)
	}
	if err := e.device.Stop(pc.voice); err != nil {
		e.logf("sound: Stop voice: %v", err)
	}
	e.scheduler.releaseVoice(pc.voiceSlot)

	if tmpl, ok := e.templates.Resolve(pc.template); ok {
		for i, lh := range tmpl.live {
			if lh == h {
				tmpl.live = append(tmpl.live[:i], tmpl.live[i+1:]...)
				break
			}
		}
	}
	e.cues.Release(h)
}

// Stop retires h's cue and returns its voice to the free pool. Idempotent:
// a second Stop on the same handle resolves false and is a no-op.
func (e *Engine) Stop(h Handle[*playingCue]) bool {
	pc, ok := e.cues.Resolve(h)
	if !ok {
		return false
	}
	pc.state = CueNotPlaying
	e.stopInternal(h, pc)
	return true
}

// Pause pauses h's voice without releasing it. Idempotent.
func (e *Engine) Pause(h Handle[*playingCue]) bool {
	pc, ok := e.cues.Resolve(h)
	if !ok {
		return false
	}
	if pc.paused {
		return true
	}
	pc.paused = true
	if err := e.device.Pause(pc.voice); err != nil {
		e.logf("sound: Pause voice: %v", err)
	}
	return true
}

// Start resumes a previously paused cue. Idempotent.
func (e *Engine) Start(h Handle[*playingCue]) bool {
	pc, ok := e.cues.Resolve(h)
	if !ok {
		return false
	}
	if !pc.paused {
		return true
	}
	pc.paused = false
	pc.pausedByBulk = false
	if err := e.device.Play(pc.voice); err != nil {
		e.logf("sound: Play voice: %v", err)
	}
	return true
}

// Interrupt splices the template's interrupt sound onto a playing cue.
// Degenerates to Stop if the template has none.
func (e *Engine) Interrupt(h Handle[*playingCue]) bool {
	pc, ok := e.cues.Resolve(h)
	if !ok {
		return false
	}
	tmpl, ok := e.templates.Resolve(pc.template)
	if !ok || !tmpl.hasInterrupt {
		return e.Stop(h)
	}

	if waiting := pc.waitingSound(); waiting != nil {
		waiting.clearQueued()
	}
	if playing := pc.playingSoundNow(); playing != nil && playing != pc.waitingSound() {
		playing.clearQueued()
	}

	isd, ok := e.sounds[tmpl.interruptSound]
	if !ok {
		return e.Stop(h)
	}
	if pc.interrupt == nil {
		ring, err := e.device.GenBuffers(e.config.BuffersPerChannel * max(isd.channels(), 1))
		if err != nil {
			e.logf("sound: GenBuffers(interrupt): %v", err)
			return e.Stop(h)
		}
		pc.interrupt = newPlayingSound(isd, ring, 0)
	} else {
		pc.interrupt.clearQueued()
	}
	pc.interrupt.state = soundPlaying
	pc.interrupting = true
	pc.waitingIndex = 0
	pc.playingIndex = 0

	minSamples := minSamplesFor(e.config.MinDurationBufferedOnCreation, isd.info.SampleRate) * max(isd.channels(), 1)
	e.decodeMore(isd, minSamples)
	pc.interrupt.bufferNext(e)

	if err := e.device.Stop(pc.voice); err != nil {
		e.logf("sound: Stop voice: %v", err)
	}
	if err := e.device.ClearQueue(pc.voice); err != nil {
		e.logf("sound: ClearQueue: %v", err)
	}
	if len(pc.interrupt.staged) > 0 {
		ids := pc.interrupt.submitStaged()
		if err := e.device.QueueBuffers(pc.voice, ids); err != nil {
			e.logf("sound: QueueBuffers: %v", err)
		}
	}
	if err := e.device.Play(pc.voice); err != nil {
		e.logf("sound: Play voice: %v", err)
	}
	pc.state = CueInterrupted
	return true
}

// liveHandlesInCategory snapshots a category's heap membership so callers
// can mutate the scheduler (Stop) while iterating.
func (e *Engine) liveHandlesInCategory(category string) []Handle[*playingCue] {
	h := e.scheduler.heapFor(category)
	handles := make([]Handle[*playingCue], 0, len(*h))
	for _, item := range *h {
		handles = append(handles, item.handle)
	}
	return handles
}

// StopCategory stops every live cue in category.
func (e *Engine) StopCategory(category string) {
	for _, h := range e.liveHandlesInCategory(category) {
		e.Stop(h)
	}
}

// PauseCategory pauses every unpaused live cue in category and returns the
// handles it paused.
func (e *Engine) PauseCategory(category string) []Handle[*playingCue] {
	var affected []Handle[*playingCue]
	for _, h := range e.liveHandlesInCategory(category) {
		pc, ok := e.cues.Resolve(h)
		if !ok || pc.paused {
			continue
		}
		pc.paused = true
		if err := e.device.Pause(pc.voice); err != nil {
			e.logf("sound: Pause voice: %v", err)
		}
		affected = append(affected, h)
	}
	return affected
}

// StartCategory resumes every paused live cue in category and returns the
// handles it resumed.
func (e *Engine) StartCategory(category string) []Handle[*playingCue] {
	var affected []Handle[*playingCue]
	for _, h := range e.liveHandlesInCategory(category) {
		pc, ok := e.cues.Resolve(h)
		if !ok || !pc.paused {
			continue
		}
		pc.paused = false
		pc.pausedByBulk = false
		if err := e.device.Play(pc.voice); err != nil {
			e.logf("sound: Play voice: %v", err)
		}
		affected = append(affected, h)
	}
	return affected
}

func (e *Engine) liveHandles() []Handle[*playingCue] {
	var handles []Handle[*playingCue]
	e.cues.Each(func(h Handle[*playingCue], _ *playingCue) {
		handles = append(handles, h)
	})
	return handles
}

// StopAll stops every live cue.
func (e *Engine) StopAll() {
	for _, h := range e.liveHandles() {
		e.Stop(h)
	}
}

// PauseAll pauses every unpaused live cue and returns the handles it
// paused, so a matching StartAll resumes exactly those: a cue the caller
// had already paused before this call stays paused.
func (e *Engine) PauseAll() []Handle[*playingCue] {
	var affected []Handle[*playingCue]
	e.cues.Each(func(h Handle[*playingCue], pc *playingCue) {
		if pc.paused {
			return
		}
		pc.paused = true
		pc.pausedByBulk = true
		if err := e.device.Pause(pc.voice); err != nil {
			e.logf("sound: Pause voice: %v", err)
		}
		affected = append(affected, h)
	})
	return affected
}

// StartAll resumes only the cues a prior PauseAll paused.
func (e *Engine) StartAll() []Handle[*playingCue] {
	var affected []Handle[*playingCue]
	e.cues.Each(func(h Handle[*playingCue], pc *playingCue) {
		if !pc.paused || !pc.pausedByBulk {
			return
		}
		pc.paused = false
		pc.pausedByBulk = false
		if err := e.device.Play(pc.voice); err != nil {
			e.logf("sound: Play voice: %v", err)
		}
		affected = append(affected, h)
	})
	return affected
}

// Update advances every live cue one tick, in handle order.
func (e *Engine) Update() {
	for _, h := range e.liveHandles() {
		pc, ok := e.cues.Resolve(h)
		if !ok {
			continue
		}
		e.updateCue(h, pc)
	}
}
