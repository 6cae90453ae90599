// Package config provides configuration and CLI argument parsing for the
// streaming bridge binary.
package config

import (
	"flag"
	"fmt"

	"github.com/agalue/streambridge/internal/drift"
)

// BackendKind selects which AudioBackend/MIDIBackend implementation
// cmd/bridge wires up.
type BackendKind int

const (
	// BackendLoopback drives callbacks from an internal timer with no
	// real device, for demos and environments without a sound card.
	BackendLoopback BackendKind = iota
	// BackendMalgo opens a real audio device via gen2brain/malgo.
	BackendMalgo
)

func (k BackendKind) String() string {
	switch k {
	case BackendLoopback:
		return "loopback"
	case BackendMalgo:
		return "malgo"
	default:
		return "unknown"
	}
}

// ParseBackendKind converts a string to a BackendKind.
func ParseBackendKind(s string) (BackendKind, error) {
	switch s {
	case "loopback":
		return BackendLoopback, nil
	case "malgo":
		return BackendMalgo, nil
	default:
		return BackendLoopback, fmt.Errorf("invalid backend: %s (must be 'loopback' or 'malgo')", s)
	}
}

// Config holds the streaming bridge's full in-process configuration,
// populated from CLI flags or defaults.
type Config struct {
	Backend BackendKind

	SampleRate   uint32
	Channels     int
	PeriodMillis uint32

	RingCapacity int

	PID                   drift.Settings
	CompensationThreshold uint64
	LowWatermark          int
	StartupWindowMillis   int

	Verbose bool
}

// DefaultConfig returns a configuration with sensible defaults, grounded
// on the PID defaults spec.md §3 lists.
func DefaultConfig() *Config {
	pid := drift.DefaultSettings()
	return &Config{
		Backend:               BackendLoopback,
		SampleRate:            48000,
		Channels:              2,
		PeriodMillis:          0,
		RingCapacity:          4096,
		PID:                   pid,
		CompensationThreshold: pid.CompensationThreshold,
		LowWatermark:          256,
		StartupWindowMillis:   500,
		Verbose:               false,
	}
}

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	var backendStr string
	flag.StringVar(&backendStr, "backend", cfg.Backend.String(), "Audio backend: 'loopback' or 'malgo'")

	sampleRate := flag.Uint("sample-rate", uint(cfg.SampleRate), "Nominal device sample rate in Hz")
	channels := flag.Int("channels", cfg.Channels, "Channel count (interleaved)")
	periodMillis := flag.Uint("period-ms", uint(cfg.PeriodMillis), "Device callback period in milliseconds (0 = backend default)")
	ringCapacity := flag.Int("ring-capacity", cfg.RingCapacity, "SPSC ring capacity in interleaved samples")

	propFactor := flag.Float64("pid-prop", cfg.PID.PropFactor, "PID proportional factor")
	integFactor := flag.Float64("pid-integ", cfg.PID.IntegFactor, "PID integral factor")
	derivFactor := flag.Float64("pid-deriv", cfg.PID.DerivFactor, "PID derivative factor")
	minFactor := flag.Float64("pid-min-factor", cfg.PID.MinFactor, "Minimum clamped PID factor (log2 of ratio)")
	maxFactor := flag.Float64("pid-max-factor", cfg.PID.MaxFactor, "Maximum clamped PID factor (log2 of ratio)")
	factorLastInterp := flag.Float64("pid-ratio-lerp", cfg.PID.FactorLastInterp, "Lerp weight applied to each ratio update")
	threshold := flag.Uint64("compensation-threshold", cfg.CompensationThreshold, "Xrun count that arms resampling compensation")

	lowWatermark := flag.Int("low-watermark", cfg.LowWatermark, "Source-side ring free-slot threshold below which the consumer is considered lagging")
	startupWindow := flag.Int("startup-window-ms", cfg.StartupWindowMillis, "Milliseconds after stream start during which xruns are not counted")

	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging")

	flag.Parse()

	backend, err := ParseBackendKind(backendStr)
	if err != nil {
		return nil, err
	}
	cfg.Backend = backend

	cfg.SampleRate = uint32(*sampleRate)
	cfg.Channels = *channels
	cfg.PeriodMillis = uint32(*periodMillis)
	cfg.RingCapacity = *ringCapacity

	cfg.PID.PropFactor = *propFactor
	cfg.PID.IntegFactor = *integFactor
	cfg.PID.DerivFactor = *derivFactor
	cfg.PID.MinFactor = *minFactor
	cfg.PID.MaxFactor = *maxFactor
	cfg.PID.FactorLastInterp = *factorLastInterp
	cfg.PID.CompensationThreshold = *threshold
	cfg.CompensationThreshold = *threshold

	cfg.LowWatermark = *lowWatermark
	cfg.StartupWindowMillis = *startupWindow

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.RingCapacity <= 0 || c.RingCapacity%c.Channels != 0 {
		return fmt.Errorf("ring-capacity must be a positive multiple of channels, got %d for %d channels", c.RingCapacity, c.Channels)
	}
	if c.SampleRate == 0 {
		return fmt.Errorf("sample-rate must be positive")
	}
	if c.PID.MinFactor > c.PID.MaxFactor {
		return fmt.Errorf("pid-min-factor (%v) must not exceed pid-max-factor (%v)", c.PID.MinFactor, c.PID.MaxFactor)
	}
	return nil
}
