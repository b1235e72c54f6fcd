// Package cfg loads scoring-service configuration from a YAML file with
// environment-variable overrides, or from the environment alone when no
// file is configured.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	ModelPath      string        // ONNX artifact for the sidecar classifier
	ScoringURL     string        // remote scoring service; takes precedence over ModelPath
	Threshold      float64       // decision threshold for the Positive call
	SidecarTimeout time.Duration // per-invocation sidecar timeout
	RESTTimeout    time.Duration // remote scoring client timeout
	DataPath       string        // bbolt prediction store location, empty disables persistence
	ReportPath     string        // batch report output directory, empty disables reports
	ListenPort     int           // scoring API port
	MetricsPort    int           // Prometheus endpoint port
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	ML struct {
		ModelPath      string  `yaml:"modelPath"`
		ScoringURL     string  `yaml:"scoringURL"`
		Threshold      float64 `yaml:"threshold"`
		SidecarTimeout string  `yaml:"sidecarTimeout"`
		RESTTimeout    string  `yaml:"restTimeout"`
	} `yaml:"ml"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		ReportPath  string `yaml:"reportPath"`
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings. A .env file is honored when present, then a
// YAML file named by CONFIG_FILE, then environment variables on top.
func Load() (Settings, error) {
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
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

	sidecarTimeout, err := time.ParseDuration(config.ML.SidecarTimeout)
	if err != nil {
		sidecarTimeout = 5 * time.Second
	}
	restTimeout, err := time.ParseDuration(config.ML.RESTTimeout)
	if err != nil {
		restTimeout = 5 * time.Second
	}

	threshold := config.ML.Threshold
	if threshold == 0 {
		threshold = 0.5
	}

	settings := Settings{
		ModelPath:      getEnvOrDefault("MODEL_PATH", config.ML.ModelPath),
		ScoringURL:     getEnvOrDefault("SCORING_URL", config.ML.ScoringURL),
		Threshold:      getFloatFromEnvOrConfig("PROB_THRESHOLD", threshold),
		SidecarTimeout: getDurationOrDefault("SIDECAR_TIMEOUT", sidecarTimeout),
		RESTTimeout:    getDurationOrDefault("REST_TIMEOUT", restTimeout),
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		ReportPath:     getEnvOrDefault("REPORT_PATH", config.System.ReportPath),
		ListenPort:     getIntFromEnvOrConfig("LISTEN_PORT", config.System.ListenPort),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
	}
	applyPortDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:      getEnvOrDefault("MODEL_PATH", "model.onnx"),
		ScoringURL:     os.Getenv("SCORING_URL"), // optional
		Threshold:      getFloatOrDefault("PROB_THRESHOLD", 0.5),
		SidecarTimeout: getDurationOrDefault("SIDECAR_TIMEOUT", 5*time.Second),
		RESTTimeout:    getDurationOrDefault("REST_TIMEOUT", 5*time.Second),
		DataPath:       os.Getenv("DATA_PATH"),   // optional
		ReportPath:     os.Getenv("REPORT_PATH"), // optional
		ListenPort:     getIntOrDefault("LISTEN_PORT", 8080),
		MetricsPort:    getIntOrDefault("METRICS_PORT", 9090),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyPortDefaults(s *Settings) {
	if s.ListenPort == 0 {
		s.ListenPort = 8080
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 9090
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

// validateSettings checks every resolved value against its legal range.
func validateSettings(settings *Settings) error {
	if settings.ModelPath == "" && settings.ScoringURL == "" {
		return fmt.Errorf("either a model path or a scoring URL is required")
	}
	if settings.Threshold < 0 || settings.Threshold > 1 {
		return fmt.Errorf("probability threshold must be between 0 and 1, got %f", settings.Threshold)
	}
	if settings.SidecarTimeout < 100*time.Millisecond || settings.SidecarTimeout > time.Minute {
		return fmt.Errorf("sidecar timeout must be between 100ms and 1m, got %v", settings.SidecarTimeout)
	}
	if settings.RESTTimeout < 100*time.Millisecond || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 100ms and 1m, got %v", settings.RESTTimeout)
	}
	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}
	return nil
}
