// Package config loads charsoupd's runtime configuration from a JSON
// file (searched in the working directory, ./config, and the user's
// home directory) with CHARSOUP_*-prefixed environment overrides,
// falling back to documented defaults when no config file is found.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/agentx/charsoup/internal/arbitration"
	"github.com/agentx/charsoup/internal/detector"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration for charsoupd.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Model       ModelConfig       `json:"model"`
	Detector    DetectorConfig    `json:"detector"`
	Arbitration ArbitrationConfig `json:"arbitration"`
}

// ServerConfig holds the HTTP/websocket listener settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ModelConfig names the LDM1 artifact(s) to load at startup. MetaPath is
// only used when WeightsPath and MetaPath are loaded as a split pair;
// leave it empty to load WeightsPath as a single combined LDM1 file.
type ModelConfig struct {
	WeightsPath     string `json:"weights_path" mapstructure:"weights_path"`
	MetaPath        string `json:"meta_path" mapstructure:"meta_path"`
	MMap            bool   `json:"mmap"`
	IncludeTrigrams bool   `json:"include_trigrams" mapstructure:"include_trigrams"`
}

// DetectorConfig mirrors detector.Config for JSON/env configurability.
type DetectorConfig struct {
	MaxLength               int     `json:"max_length" mapstructure:"max_length"`
	ChunkSize               int     `json:"chunk_size" mapstructure:"chunk_size"`
	EnoughTextLength        int     `json:"enough_text_length" mapstructure:"enough_text_length"`
	EntropyThreshold        float64 `json:"entropy_threshold" mapstructure:"entropy_threshold"`
	MaxEntropyForConfidence float64 `json:"max_entropy_for_confidence" mapstructure:"max_entropy_for_confidence"`
}

// ToDetectorConfig converts to the detector package's own Config type.
func (d DetectorConfig) ToDetectorConfig() detector.Config {
	return detector.Config{
		MaxLength:               d.MaxLength,
		ChunkSize:               d.ChunkSize,
		EnoughTextLength:        d.EnoughTextLength,
		EntropyThreshold:        d.EntropyThreshold,
		MaxEntropyForConfidence: d.MaxEntropyForConfidence,
	}
}

// ArbitrationConfig mirrors arbitration.Config for JSON/env configurability.
type ArbitrationConfig struct {
	MinConfidenceThreshold float64 `json:"min_confidence_threshold" mapstructure:"min_confidence_threshold"`
	MaxJunkRatio           float64 `json:"max_junk_ratio" mapstructure:"max_junk_ratio"`
}

// ToArbitrationConfig converts to the arbitration package's own Config type.
func (a ArbitrationConfig) ToArbitrationConfig() arbitration.Config {
	return arbitration.Config{
		MinConfidenceThreshold: a.MinConfidenceThreshold,
		MaxJunkRatio:           a.MaxJunkRatio,
	}
}

// Load reads config.json from the working directory, ./config, or
// ~/.charsoup, applying CHARSOUP_*-prefixed environment overrides on
// top. A missing config file is not an error: the documented defaults
// are returned instead.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".charsoup"))
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	loadEnvOverrides(&cfg)
	return &cfg, nil
}

func setDefaults() {
	d := defaultConfig()
	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("model.weights_path", d.Model.WeightsPath)
	viper.SetDefault("model.meta_path", d.Model.MetaPath)
	viper.SetDefault("model.mmap", d.Model.MMap)
	viper.SetDefault("model.include_trigrams", d.Model.IncludeTrigrams)
	viper.SetDefault("detector.max_length", d.Detector.MaxLength)
	viper.SetDefault("detector.chunk_size", d.Detector.ChunkSize)
	viper.SetDefault("detector.enough_text_length", d.Detector.EnoughTextLength)
	viper.SetDefault("detector.entropy_threshold", d.Detector.EntropyThreshold)
	viper.SetDefault("detector.max_entropy_for_confidence", d.Detector.MaxEntropyForConfidence)
	viper.SetDefault("arbitration.min_confidence_threshold", d.Arbitration.MinConfidenceThreshold)
	viper.SetDefault("arbitration.max_junk_ratio", d.Arbitration.MaxJunkRatio)
}

func defaultConfig() *Config {
	dc := detector.DefaultConfig()
	ac := arbitration.DefaultConfig()
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8085},
		Model:  ModelConfig{WeightsPath: "model.ldm1"},
		Detector: DetectorConfig{
			MaxLength:               dc.MaxLength,
			ChunkSize:               dc.ChunkSize,
			EnoughTextLength:        dc.EnoughTextLength,
			EntropyThreshold:        dc.EntropyThreshold,
			MaxEntropyForConfidence: dc.MaxEntropyForConfidence,
		},
		Arbitration: ArbitrationConfig{
			MinConfidenceThreshold: ac.MinConfidenceThreshold,
			MaxJunkRatio:           ac.MaxJunkRatio,
		},
	}
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("CHARSOUP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("CHARSOUP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if path := os.Getenv("CHARSOUP_MODEL_PATH"); path != "" {
		cfg.Model.WeightsPath = path
	}
	if path := os.Getenv("CHARSOUP_MODEL_META_PATH"); path != "" {
		cfg.Model.MetaPath = path
	}
	if mmap := os.Getenv("CHARSOUP_MODEL_MMAP"); mmap != "" {
		if v, err := strconv.ParseBool(mmap); err == nil {
			cfg.Model.MMap = v
		}
	}
	if chunk := os.Getenv("CHARSOUP_CHUNK_SIZE"); chunk != "" {
		if v, err := strconv.Atoi(chunk); err == nil {
			cfg.Detector.ChunkSize = v
		}
	}
	if threshold := os.Getenv("CHARSOUP_ENTROPY_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Detector.EntropyThreshold = v
		}
	}
}

// Save persists the currently loaded viper state back to its config file.
func (c *Config) Save() error {
	return viper.WriteConfig()
}
