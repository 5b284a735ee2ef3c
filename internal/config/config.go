package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Values come from
// defaults, then the YAML file, then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Weather   WeatherConfig   `yaml:"weather"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls HTTP server settings.
type ServerConfig struct {
	Address         string        `yaml:"address" env:"MCP_ADDRESS"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"MCP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"MCP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"MCP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MCP_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"MCP_MAX_BODY_BYTES"`
	ManifestPath    string        `yaml:"manifest_path" env:"MCP_MANIFEST_PATH"`
	PIDFile         string        `yaml:"pid_file" env:"MCP_PID_FILE"`
}

// WeatherConfig configures the get_weather upstream.
type WeatherConfig struct {
	APIKey  string            `yaml:"api_key" env:"OPENWEATHER_API_KEY"`
	BaseURL string            `yaml:"base_url" env:"OPENWEATHER_BASE_URL"`
	Lang    string            `yaml:"lang" env:"OPENWEATHER_LANG"`
	Units   string            `yaml:"units" env:"OPENWEATHER_UNITS"`
	Timeout time.Duration     `yaml:"timeout" env:"OPENWEATHER_TIMEOUT"`
	Cache   CacheConfig       `yaml:"cache"`
	Limit   RateLimiterConfig `yaml:"rate_limiter"`
}

// CacheConfig configures ristretto caching of weather reports.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled" env:"WEATHER_CACHE_ENABLED"`
	NumCounters int64         `yaml:"num_counters"`
	MaxCost     int64         `yaml:"max_cost"`
	BufferItems int64         `yaml:"buffer_items"`
	TTL         time.Duration `yaml:"ttl" env:"WEATHER_CACHE_TTL"`
}

// RateLimiterConfig bounds outbound weather calls.
type RateLimiterConfig struct {
	Enabled           bool    `yaml:"enabled" env:"WEATHER_RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"WEATHER_RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"WEATHER_RATE_LIMIT_BURST"`
}

// AuditConfig configures request auditing.
type AuditConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_AUDIT_ENABLED"`
}

// TelemetryConfig configures OpenTelemetry export. An empty endpoint
// disables it.
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Enabled reports whether traces and metrics should be exported.
func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Load reads configuration from the supplied path or returns defaults,
// then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshal config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at runtime.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Weather.Timeout <= 0 {
		errs = append(errs, errors.New("weather.timeout must be positive"))
	}
	if c.Weather.Limit.Enabled && (c.Weather.Limit.RequestsPerSecond <= 0 || c.Weather.Limit.Burst <= 0) {
		errs = append(errs, errors.New("weather.rate_limiter needs positive requests_per_second and burst"))
	}
	if c.Weather.Cache.Enabled && c.Weather.Cache.TTL <= 0 {
		errs = append(errs, errors.New("weather.cache.ttl must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or text", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         "localhost:9292",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			PIDFile:         "/tmp/mcp-server.pid",
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Lang:    "ja",
			Units:   "metric",
			Timeout: 5 * time.Second,
			Cache: CacheConfig{
				Enabled:     true,
				NumCounters: 10000,
				MaxCost:     1 << 20,
				BufferItems: 64,
				TTL:         5 * time.Minute,
			},
			Limit: RateLimiterConfig{
				Enabled:           true,
				RequestsPerSecond: 1,
				Burst:             5,
			},
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "mcp-http-server",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
