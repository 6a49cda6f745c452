package config

import (
	"fmt"
	"os"
	"time"

	"github.com/longregen/gepa-optimize/internal/gepa"
	"gopkg.in/yaml.v3"
)

// GatewayConfig configures the LLM backend.
type GatewayConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// RunFileConfig is the YAML shape of a run configuration file, before env
// overrides are applied. Mirrors the nested-struct-with-tags idiom this
// package previously used, scaled down to this run's scope.
type RunFileConfig struct {
	Gateway GatewayConfig `yaml:"gateway"`

	MaxEvaluations           int     `yaml:"max_evaluations"`
	SubsampleSize            int     `yaml:"subsample_size"`
	MaxConcurrentEvaluations int     `yaml:"max_concurrent_evaluations"`
	EvaluationModel          string  `yaml:"evaluation_model"`
	GenerationModel          string  `yaml:"generation_model"`
	MinAccuracy              float64 `yaml:"min_accuracy"`
	AccuracyWeight           float64 `yaml:"accuracy_weight"`
	SelectionTemperature     float64 `yaml:"selection_temperature"`
	SelectionPolicy          string  `yaml:"selection_policy"`
	Seed                     int64   `yaml:"seed"`
}

// Load reads a YAML run-config file from path, applying
// gepa.DefaultRunConfig for any field the file does not set (a field set
// explicitly to zero in the file stays zero), then overlays environment
// variable overrides (GEPA_* prefix) on top.
func Load(path string) (RunFileConfig, error) {
	cfg := defaultFileConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return RunFileConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return RunFileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultFileConfig() RunFileConfig {
	d := gepa.DefaultRunConfig()
	return RunFileConfig{
		MaxEvaluations:           d.MaxEvaluations,
		SubsampleSize:            d.SubsampleSize,
		MaxConcurrentEvaluations: d.MaxConcurrentEvaluations,
		MinAccuracy:              d.MinAccuracy,
		AccuracyWeight:           d.AccuracyWeight,
		SelectionTemperature:     d.SelectionTemperature,
		SelectionPolicy:          string(d.SelectionPolicy),
		Gateway:                  GatewayConfig{Timeout: 60 * time.Second},
	}
}

func applyEnvOverrides(cfg *RunFileConfig) {
	cfg.Gateway.BaseURL = getEnv("GEPA_GATEWAY_BASE_URL", cfg.Gateway.BaseURL)
	if key := os.Getenv("GEPA_GATEWAY_API_KEY"); key != "" {
		cfg.Gateway.APIKey = key
	}
	cfg.Gateway.Timeout = getEnvDuration("GEPA_GATEWAY_TIMEOUT", cfg.Gateway.Timeout)

	cfg.MaxEvaluations = getEnvInt("GEPA_MAX_EVALUATIONS", cfg.MaxEvaluations)
	cfg.SubsampleSize = getEnvInt("GEPA_SUBSAMPLE_SIZE", cfg.SubsampleSize)
	cfg.MaxConcurrentEvaluations = getEnvInt("GEPA_MAX_CONCURRENT_EVALUATIONS", cfg.MaxConcurrentEvaluations)
	cfg.EvaluationModel = getEnv("GEPA_EVALUATION_MODEL", cfg.EvaluationModel)
	cfg.GenerationModel = getEnv("GEPA_GENERATION_MODEL", cfg.GenerationModel)
	cfg.MinAccuracy = getEnvFloat("GEPA_MIN_ACCURACY", cfg.MinAccuracy)
	cfg.AccuracyWeight = getEnvFloat("GEPA_ACCURACY_WEIGHT", cfg.AccuracyWeight)
	cfg.SelectionTemperature = getEnvFloat("GEPA_SELECTION_TEMPERATURE", cfg.SelectionTemperature)
	cfg.SelectionPolicy = getEnv("GEPA_SELECTION_POLICY", cfg.SelectionPolicy)
}

// APIKeyOrFatal returns the configured gateway API key, exiting the
// process if none is set anywhere. Used by the CLI entrypoint only —
// library callers should read cfg.Gateway.APIKey directly and handle a
// missing key themselves.
func (c RunFileConfig) APIKeyOrFatal() string {
	if c.Gateway.APIKey != "" {
		return c.Gateway.APIKey
	}
	return mustEnv("GEPA_GATEWAY_API_KEY")
}

// ToRunConfig converts the file config into the engine's gepa.RunConfig.
func (c RunFileConfig) ToRunConfig() gepa.RunConfig {
	return gepa.RunConfig{
		MaxEvaluations:           c.MaxEvaluations,
		SubsampleSize:            c.SubsampleSize,
		MaxConcurrentEvaluations: c.MaxConcurrentEvaluations,
		EvaluationModel:          c.EvaluationModel,
		GenerationModel:          c.GenerationModel,
		MinAccuracy:              c.MinAccuracy,
		AccuracyWeight:           c.AccuracyWeight,
		SelectionTemperature:     c.SelectionTemperature,
		SelectionPolicy:          gepa.SelectionPolicy(c.SelectionPolicy),
		Seed:                     c.Seed,
	}
}
