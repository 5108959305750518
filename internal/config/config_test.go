package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

// chdirTemp switches into a fresh empty directory for the duration of
// the test, restoring the original working directory on cleanup, so
// Load never picks up this repository's own config.json (there isn't
// one today, but tests should not depend on that).
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadWithoutConfigFileReturnsDefaults(t *testing.T) {
	resetViper(t)
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Detector.ChunkSize)
	assert.InDelta(t, 0.88, cfg.Arbitration.MinConfidenceThreshold, 1e-9)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	resetViper(t)
	chdirTemp(t)
	t.Setenv("CHARSOUP_HOST", "127.0.0.1")
	t.Setenv("CHARSOUP_PORT", "9000")
	t.Setenv("CHARSOUP_CHUNK_SIZE", "1234")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 1234, cfg.Detector.ChunkSize)
}

func TestLoadIgnoresMalformedEnvOverrides(t *testing.T) {
	resetViper(t)
	chdirTemp(t)
	t.Setenv("CHARSOUP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8085, cfg.Server.Port)
}

func TestDetectorConfigConversionRoundTrips(t *testing.T) {
	dc := DetectorConfig{
		MaxLength:               1000,
		ChunkSize:               200,
		EnoughTextLength:        50,
		EntropyThreshold:        2.5,
		MaxEntropyForConfidence: 6.0,
	}
	converted := dc.ToDetectorConfig()
	assert.Equal(t, 1000, converted.MaxLength)
	assert.Equal(t, 200, converted.ChunkSize)
	assert.Equal(t, 50, converted.EnoughTextLength)
	assert.InDelta(t, 2.5, converted.EntropyThreshold, 1e-9)
	assert.InDelta(t, 6.0, converted.MaxEntropyForConfidence, 1e-9)
}

func TestArbitrationConfigConversionRoundTrips(t *testing.T) {
	ac := ArbitrationConfig{MinConfidenceThreshold: 0.75, MaxJunkRatio: 0.2}
	converted := ac.ToArbitrationConfig()
	assert.InDelta(t, 0.75, converted.MinConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.2, converted.MaxJunkRatio, 1e-9)
}
