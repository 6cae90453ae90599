package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.validate())
}

func TestParseBackendKindRejectsUnknown(t *testing.T) {
	_, err := ParseBackendKind("nonexistent")
	require.Error(t, err)
}

func TestParseBackendKindRoundTripsKnownValues(t *testing.T) {
	for _, k := range []BackendKind{BackendLoopback, BackendMalgo} {
		got, err := ParseBackendKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestValidateRejectsNonMultipleRingCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = 3
	cfg.RingCapacity = 100 // not a multiple of 3
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsInvertedPIDFactorBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PID.MinFactor = 1
	cfg.PID.MaxFactor = -1
	assert.Error(t, cfg.validate())
}
