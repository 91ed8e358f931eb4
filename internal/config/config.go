package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete estimator configuration.
// Values are layered: built-in defaults, then the YAML config file if present,
// then EFFORT_* environment variables.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Estimation EstimationConfig `yaml:"estimation" envconfig:"ESTIMATION"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// EstimationConfig contains the optimizer, variance, and model settings.
type EstimationConfig struct {
	// Optimizer settings
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"gte=1"`
	Tolerance     float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`

	// Finite-difference step for scores and the Hessian
	GradStep float64 `yaml:"grad_step" envconfig:"GRAD_STEP" validate:"gt=0"`

	// Effort task bounds used for censoring
	EffortMin float64 `yaml:"effort_min" envconfig:"EFFORT_MIN" validate:"gte=0"`
	EffortMax float64 `yaml:"effort_max" envconfig:"EFFORT_MAX" validate:"gtfield=EffortMin"`

	// Starting values for the parameter search
	Start StartValues `yaml:"start" envconfig:"START"`

	// Bootstrap settings; zero reps disables the bootstrap
	BootstrapReps    int `yaml:"bootstrap_reps" envconfig:"BOOTSTRAP_REPS" validate:"gte=0"`
	BootstrapWorkers int `yaml:"bootstrap_workers" envconfig:"BOOTSTRAP_WORKERS" validate:"gte=1"`
}

// StartValues holds the optimizer starting point for the structural parameters.
type StartValues struct {
	Beta    float64 `yaml:"beta" envconfig:"BETA" validate:"gt=0"`
	BetaHat float64 `yaml:"betahat" envconfig:"BETAHAT" validate:"gt=0"`
	Delta   float64 `yaml:"delta" envconfig:"DELTA" validate:"gt=0"`
	Gamma   float64 `yaml:"gamma" envconfig:"GAMMA" validate:"gt=1"`
	Phi     float64 `yaml:"phi" envconfig:"PHI" validate:"gt=0"`
	Alpha   float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=-1"`
	Sigma   float64 `yaml:"sigma" envconfig:"SIGMA" validate:"gt=0"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/estimator.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
		Estimation: EstimationConfig{
			MaxIterations: 2000,
			Tolerance:     1e-9,
			GradStep:      1e-5,
			EffortMin:     0,
			EffortMax:     100,
			Start: StartValues{
				Beta:    1.0,
				BetaHat: 1.0,
				Delta:   1.0,
				Gamma:   2.0,
				Phi:     500.0,
				Alpha:   0.0,
				Sigma:   40.0,
			},
			BootstrapReps:    0,
			BootstrapWorkers: 4,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file, and
// EFFORT-prefixed environment variables, in that order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("EFFORT", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML file values onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// resolvePaths makes relative paths absolute against the working directory.
func (c *Config) resolvePaths() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	for _, p := range []*string{&c.Paths.DataDir, &c.Paths.ReportsDir, &c.Paths.LogsDir, &c.Logging.FilePath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(wd, *p)
		}
	}
	return nil
}
