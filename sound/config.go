package sound

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the externally-visible tunables, loadable from
// SOUNDCORE_* environment variables; unparsable or out-of-range values are
// ignored and the default is kept.
type EngineConfig struct {
	MaxSources int
	MaxSourcePerCue int
	BuffersPerChannel int
	HeaderBlock int

	MinDurationBufferedOnCreation time.Duration
	MinDurationExtracted time.Duration
	MaxDurationForNonStream time.Duration

	SampleRate int
}

// DefaultEngineConfig returns the engine's stated defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxSources: MaxSources,
		MaxSourcePerCue: MaxSourcePerCue,
		BuffersPerChannel: BuffersPerChannel,
		HeaderBlock: HeaderBlock,
		MinDurationBufferedOnCreation: MinDurationBufferedOnCreation,
		MinDurationExtracted: MinDurationExtracted,
		MaxDurationForNonStream: MaxDurationForNonStream,
		SampleRate: SampleApproximation,
	}
}

// LoadEngineConfigFromEnv overlays SOUNDCORE_* environment variables onto
// DefaultEngineConfig. A variable that is unparsable, negative or zero is
// ignored and leaves the default in place; it never fails the load.
func LoadEngineConfigFromEnv() EngineConfig {
	cfg := DefaultEngineConfig()

	if v := envInt("SOUNDCORE_MAX_SOURCES", cfg.MaxSources); v > 0 {
		cfg.MaxSources = v
	}
	if v := envInt("SOUNDCORE_MAX_SOURCE_PER_CUE", cfg.MaxSourcePerCue); v > 0 {
		cfg.MaxSourcePerCue = v
	}
	if v := envInt("SOUNDCORE_BUFFERS_PER_CHANNEL", cfg.BuffersPerChannel); v > 0 {
		cfg.BuffersPerChannel = v
	}
	if v := envInt("SOUNDCORE_HEADER_BLOCK", cfg.HeaderBlock); v > 0 {
		cfg.HeaderBlock = v
	}
	if v := envFloat("SOUNDCORE_MIN_DURATION_EXTRACTED_SECS", 0); v > 0 {
		cfg.MinDurationExtracted = time.Duration(v * float64(time.Second))
	}
	if v := envInt("SOUNDCORE_SAMPLE_RATE", cfg.SampleRate); v > 0 {
		cfg.SampleRate = v
	}

	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
