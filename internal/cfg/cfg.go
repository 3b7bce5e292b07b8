// Package cfg loads service configuration from a YAML file with
// environment-variable overrides, falling back to environment variables
// alone when no file is given.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"m6apred/internal/common"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	ModelPath      string
	RemoteModelURL string
	Threshold      float64
	InputPath      string
	OutputPath     string
	DataPath       string
	ServerPort     int
	MetricsPort    int
	PredictTimeout time.Duration
	LogLevel       string
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Model struct {
		Path      string  `yaml:"path"`
		RemoteURL string  `yaml:"remoteURL"`
		Threshold float64 `yaml:"threshold"`
		Timeout   string  `yaml:"timeout"`
	} `yaml:"model"`

	IO struct {
		Input    string `yaml:"input"`
		Output   string `yaml:"output"`
		DataPath string `yaml:"dataPath"`
	} `yaml:"io"`

	System struct {
		ServerPort  int    `yaml:"serverPort"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE when set, otherwise from
// environment variables with defaults.
func Load() (Settings, error) {
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout, err := time.ParseDuration(config.Model.Timeout)
	if err != nil {
		timeout, _ = time.ParseDuration(common.DefaultPredictTimeout)
	}

	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, config.Model.Path),
		RemoteModelURL: getEnvOrDefault(common.EnvRemoteModelURL, config.Model.RemoteURL),
		Threshold:      getFloatFromEnvOrConfig(common.EnvThreshold, config.Model.Threshold),
		InputPath:      getEnvOrDefault(common.EnvInputPath, config.IO.Input),
		OutputPath:     getEnvOrDefault(common.EnvOutputPath, config.IO.Output),
		DataPath:       getEnvOrDefault(common.EnvDataPath, config.IO.DataPath),
		ServerPort:     getIntFromEnvOrConfig(common.EnvServerPort, config.System.ServerPort),
		MetricsPort:    getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort),
		PredictTimeout: timeout,
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, config.System.LogLevel),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		RemoteModelURL: os.Getenv(common.EnvRemoteModelURL),
		Threshold:      getFloatOrDefault(common.EnvThreshold, common.DefaultThreshold),
		InputPath:      os.Getenv(common.EnvInputPath),
		OutputPath:     os.Getenv(common.EnvOutputPath),
		DataPath:       os.Getenv(common.EnvDataPath), // optional
		ServerPort:     getIntOrDefault(common.EnvServerPort, common.DefaultServerPort),
		MetricsPort:    getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		PredictTimeout: getDurationOrDefault(common.EnvPredictTimeout, 10*time.Second),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.ModelPath == "" {
		s.ModelPath = common.DefaultModelPath
	}
	if s.Threshold == 0 {
		s.Threshold = common.DefaultThreshold
	}
	if s.ServerPort == 0 {
		s.ServerPort = common.DefaultServerPort
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = common.DefaultMetricsPort
	}
	if s.LogLevel == "" {
		s.LogLevel = common.DefaultLogLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings rejects configurations that would only fail later, with
// a message naming the offending value.
func validateSettings(s *Settings) error {
	if s.ModelPath == "" && s.RemoteModelURL == "" {
		return fmt.Errorf("either a model path or a remote model URL is required")
	}
	if s.Threshold <= 0 || s.Threshold >= 1 {
		return fmt.Errorf("probability threshold must be in (0, 1), got %f", s.Threshold)
	}
	if s.ServerPort < common.MinPort || s.ServerPort > common.MaxPort {
		return fmt.Errorf("server port must be between %d and %d, got %d", common.MinPort, common.MaxPort, s.ServerPort)
	}
	if s.MetricsPort < common.MinPort || s.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, s.MetricsPort)
	}
	if s.ServerPort == s.MetricsPort {
		return fmt.Errorf("server and metrics ports must differ, both are %d", s.ServerPort)
	}
	if s.PredictTimeout < time.Second || s.PredictTimeout > 5*time.Minute {
		return fmt.Errorf("predict timeout must be between 1s and 5m, got %v", s.PredictTimeout)
	}
	switch s.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", s.LogLevel)
	}
	return nil
}
