package sound

import "time"

// Externally visible tunables. HIGHEST is the most urgent priority
// value a cue can request.
const (
	MaxSources = 5
	MaxSourcePerCue = 3
	BuffersPerChannel = 5
	HeaderBlock = 8 * 1024

	MinDurationBufferedOnCreation = 200 * time.Millisecond
	MinDurationExtracted = 500 * time.Millisecond
	MaxDurationForNonStream = 10 * time.Second

	SampleApproximation = 44100

	HIGHEST = -1
)

// ReadChunk is the input refill size of 16 KiB × MinDurationExtracted (in
// seconds) × 2, evaluated at the default of 0.5s; readChunkFor computes the
// same size for another MinDurationExtracted. decodeMore uses neither: its
// pull-style decoders read from the stream themselves on each DecodeFrame.
const ReadChunk = 16 * 1024 // bytes, at the default 0.5s MinDurationExtracted

func readChunkFor(minDurationExtracted time.Duration) int {
	const base = 16 * 1024
	return int(float64(base) * minDurationExtracted.Seconds() * 2)
}

// minSamplesFor converts a duration tunable into a sample-frame count at a
// given rate, the way original_source folds MIN_DURATION_EXTRACTED into a
// sample count via SAMPLE_APPROXIMATION when the real rate isn't yet known.
func minSamplesFor(d time.Duration, sampleRate int) int {
	if sampleRate <= 0 {
		sampleRate = SampleApproximation
	}
	return int(d.Seconds() * float64(sampleRate))
}

func maxSamplesForNonStream(sampleRate int) int {
	if sampleRate <= 0 {
		sampleRate = SampleApproximation
	}
	return int(MaxDurationForNonStream.Seconds() * float64(sampleRate))
}
