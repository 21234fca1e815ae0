package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Primary   Primary         `koanf:"primary" validate:"required"`
	Server    ServerConfig    `koanf:"server" validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry" validate:"required"`
	RateLimit RateLimitConfig `koanf:"rate_limit" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
	// LogDir holds the active and rotated log files for every category.
	LogDir string `koanf:"log_dir" validate:"required"`
	// Active file names per category, relative to LogDir.
	ApplicationLog string `koanf:"application_log" validate:"required"`
	TransportLog   string `koanf:"transport_log" validate:"required"`
	DatabaseLog    string `koanf:"database_log" validate:"required"`
	// RotateMaxBytes is the active-file size ceiling that triggers rotation.
	RotateMaxBytes int64 `koanf:"rotate_max_bytes" validate:"required"`
}

type RateLimitConfig struct {
	WindowSeconds int `koanf:"window_seconds" validate:"required"`
	Ceiling       int `koanf:"ceiling" validate:"required"`
	// LogDenials controls whether rate-limit denials are logged at warn
	// level. Denials are never written to the telemetry log store either way.
	LogDenials bool `koanf:"log_denials"`
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			LogDir:         "logs",
			ApplicationLog: "application.log",
			TransportLog:   "transport.log",
			DatabaseLog:    "database.log",
			RotateMaxBytes: 10 << 20,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			Ceiling:       10,
			LogDenials:    true,
		},
	}
}

// LoadConfig loads the configuration from defaults overlaid with
// BROWSERLOG_-prefixed environment variables using koanf.
func LoadConfig() (mainConfig *Config, err error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	if err = k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		logger.Fatal().Err(err).Msg("could not load default config")
	}
	err = k.Load(env.Provider("BROWSERLOG_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "BROWSERLOG_")), "__", ".")
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	mainConfig = &Config{}
	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal mainconfig")
	}

	validate := validator.New()
	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not validate the struct")
	}

	return
}
