package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/cthai/internal/auth"
	"github.com/davidbz/cthai/internal/provider/fal"
	"github.com/davidbz/cthai/internal/provider/grok"
	"github.com/davidbz/cthai/internal/provider/openai"
	"github.com/davidbz/cthai/internal/provider/replicate"
	"github.com/davidbz/cthai/internal/state"
	"github.com/davidbz/cthai/internal/storage/cloudinary"
)

// Config represents the service configuration.
type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	Store      StoreConfig
	Grok       grok.Config
	Vision     openai.Config
	Replicate  replicate.Config
	FAL        fal.Config
	Cloudinary cloudinary.Config
	Redis      state.RedisConfig
	Auth       auth.Config
}

// ServerConfig contains HTTP server settings.
// WriteTimeout does not apply to the chat relay, which streams for as long as
// the upstream does.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// StoreConfig selects where artifact metadata is kept.
type StoreConfig struct {
	Driver       string `env:"STORE_DRIVER"        envDefault:"sqlite"`
	SQLitePath   string `env:"STORE_SQLITE_PATH"   envDefault:"data/cthai.db"`
	PostgresDSN  string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"STORE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"STORE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnLifetime int    `env:"STORE_CONN_LIFETIME"  envDefault:"30"`
}

// DepConfig is used for dependency injection with dig.
// Several packages name their settings type Config, so fields are named.
type DepConfig struct {
	dig.Out

	Server     *ServerConfig
	CORS       *CORSConfig
	Store      *StoreConfig
	Grok       *grok.Config
	Vision     *openai.Config
	Replicate  *replicate.Config
	FAL        *fal.Config
	Cloudinary *cloudinary.Config
	Redis      *state.RedisConfig
	Auth       *auth.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:     &cfg.Server,
		CORS:       &cfg.CORS,
		Store:      &cfg.Store,
		Grok:       &cfg.Grok,
		Vision:     &cfg.Vision,
		Replicate:  &cfg.Replicate,
		FAL:        &cfg.FAL,
		Cloudinary: &cfg.Cloudinary,
		Redis:      &cfg.Redis,
		Auth:       &cfg.Auth,
	}
}
