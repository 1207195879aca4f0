// Package config loads the tunable constants of the rating engine from
// YAML, following the same viper-backed double-hop used by the teacher's
// reinforcement-learning trainer: viper reads a loosely-typed outer
// document, which is re-marshaled to YAML and then unmarshaled over the
// concrete Config struct's defaults. Only the YAML file is read; no
// environment variables or flags are bound.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config carries every constant the rating engine needs to assemble and run
// a contest's belief-propagation graph, plus the defaults used to seed a
// player's first rating.
type Config struct {
	// Beta is the performance noise standard deviation: how much a
	// player's single-contest performance can vary around their true
	// skill.
	Beta float64 `yaml:"beta"`
	// Eps is the tie tolerance: each team's performance is tied to its
	// place's aggregate within Eps, and consecutive places are separated by
	// a gap of at least 2*Eps.
	Eps float64 `yaml:"eps"`
	// DefaultMu and DefaultSigma seed a player's belief the first time
	// they appear in a contest.
	DefaultMu    float64 `yaml:"default_mu"`
	DefaultSigma float64 `yaml:"default_sigma"`
	// SigmaGrowthPerSecond and SigmaCap control how a rating's
	// uncertainty grows with time between contests.
	SigmaGrowthPerSecond float64 `yaml:"sigma_growth_per_second"`
	SigmaCap             float64 `yaml:"sigma_cap"`
	// ConvergenceEps is the fixed-point loop's termination threshold:
	// the loop stops once no tracked edge moves by more than this amount.
	ConvergenceEps float64 `yaml:"convergence_eps"`
	// MaxRounds is a runaway-loop backstop: reaching it without
	// convergence is treated as a numerical failure.
	MaxRounds int `yaml:"max_rounds"`
}

// Default returns the constants used if no YAML config is supplied, matching
// the original rating system's constants (mu=1500, sigma=mu/3, beta=200).
func Default() Config {
	return Config{
		Beta:                 200,
		Eps:                  0.736,
		DefaultMu:            1500,
		DefaultSigma:         500,
		SigmaGrowthPerSecond: 1e5,
		SigmaCap:             500,
		ConvergenceEps:       2e-4,
		MaxRounds:            100000,
	}
}

// outerConfig is what viper actually decodes: a loosely-typed document that
// may be sparse, its fields overlaid onto Default() below.
type outerConfig struct {
	Def map[string]interface{} `mapstructure:",remain"`
}

// FromYaml loads a Config from the YAML file at path, overlaying any
// present fields onto Default(). A missing file is not an error: it simply
// yields the default configuration.
func FromYaml(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var outer outerConfig
	if err := v.Unmarshal(&outer); err != nil {
		return cfg, fmt.Errorf("config: decoding %q via viper: %w", path, err)
	}

	raw, err := yaml.Marshal(outer.Def)
	if err != nil {
		return cfg, fmt.Errorf("config: re-marshaling %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshaling %q into Config: %w", path, err)
	}
	return cfg, nil
}
