package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/fintrace/ringwatch/internal/detector"
	"github.com/vanshika/fintrace/ringwatch/internal/scoring"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Graph     GraphConfig
	Logging   LoggingConfig
	Detection detector.Thresholds
	Scoring   scoring.Weights
	Persist   PersistConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	MaxUploadBytes    int64
}

// GraphConfig describes connectivity to the Neo4j graph database.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// PersistConfig controls how analysis results are written to the graph.
type PersistConfig struct {
	Enabled bool
	Workers int
}

// fileConfig is the shape of the optional YAML file.
type fileConfig struct {
	Detection *detector.Thresholds `yaml:"detection"`
	Scoring   *scoring.Weights     `yaml:"scoring"`
}

// ErrInvalidDetection reports detector thresholds that cannot be honoured.
var ErrInvalidDetection = errors.New("invalid detection thresholds")

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxUploadBytes  = 64 << 20
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultGraphMaxConns   = 10
	defaultPersistWorkers  = 4
)

// Load reads configuration from environment variables, applying defaults.
// When RINGWATCH_CONFIG names a YAML file, its detection and scoring blocks
// override the built-in policy.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxUploadBytes:  int64(parseIntWithDefault("SERVER_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxConns),
		},
		Detection: detector.DefaultThresholds(),
		Scoring:   scoring.DefaultWeights(),
		Persist: PersistConfig{
			Enabled: parseBoolWithDefault("PERSIST_RESULTS", false),
			Workers: parseIntWithDefault("PERSIST_WORKERS", defaultPersistWorkers),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	if path := os.Getenv("RINGWATCH_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := ValidateThresholds(cfg.Detection); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile overlays the detection and scoring blocks of a YAML file. Fields
// absent from the file keep their current values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	fc := fileConfig{Detection: &c.Detection, Scoring: &c.Scoring}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ValidateThresholds rejects detector settings that would make a detector
// meaningless or unbounded.
func ValidateThresholds(t detector.Thresholds) error {
	switch {
	case t.CycleMinLength < 1 || t.CycleMaxLength < t.CycleMinLength:
		return fmt.Errorf("%w: cycle length range [%d,%d]", ErrInvalidDetection, t.CycleMinLength, t.CycleMaxLength)
	case t.ShellMinHops < 1 || t.ShellMaxHops < t.ShellMinHops:
		return fmt.Errorf("%w: shell hop range [%d,%d]", ErrInvalidDetection, t.ShellMinHops, t.ShellMaxHops)
	case t.ShellMaxInteriorDegree < 0:
		return fmt.Errorf("%w: shell interior degree %d", ErrInvalidDetection, t.ShellMaxInteriorDegree)
	case t.SmurfingMinTransactions < 1:
		return fmt.Errorf("%w: smurfing transaction count %d", ErrInvalidDetection, t.SmurfingMinTransactions)
	case t.SmurfingWindow <= 0:
		return fmt.Errorf("%w: smurfing window %s", ErrInvalidDetection, t.SmurfingWindow)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
