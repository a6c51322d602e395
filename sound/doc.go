// Package sound is the core of a priority-driven, voice-scheduled realtime
// sound playback engine: a bounded pool of backend voices is shared across
// many playing cues, each cue streaming compressed audio from disk through
// a buffered double-buffering ring into the backend.
//
// The package is single-threaded cooperative: every exported method must be
// called from one goroutine, and Update must be called on a steady tick for
// playback to progress. It owns no background threads of its own; realtime
// mixing and output happen entirely inside the backend.Device it is given.
package sound
