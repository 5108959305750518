package detector

// Config holds every tunable named in the specification's configuration
// section. Zero-value fields are never valid on their own; use
// DefaultConfig and override individual fields.
type Config struct {
	MaxLength               int
	ChunkSize               int
	EnoughTextLength        int
	EntropyThreshold        float64
	MaxEntropyForConfidence float64
}

// DefaultConfig returns the specification's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxLength:               100000,
		ChunkSize:               5000,
		EnoughTextLength:        10000,
		EntropyThreshold:        3.5,
		MaxEntropyForConfidence: 7.0,
	}
}
