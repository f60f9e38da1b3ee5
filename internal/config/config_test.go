package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 300, cfg.Server.WriteTimeout)
		require.Equal(t, "https://api.x.ai/v1", cfg.Grok.BaseURL)
		require.Empty(t, cfg.Grok.APIKey)
		require.Equal(t, "https://api.x.ai/v1", cfg.Vision.BaseURL)
		require.Equal(t, 60, cfg.Vision.Timeout)
		require.Equal(t, "https://fal.run", cfg.FAL.BaseURL)
		require.Equal(t, "sqlite", cfg.Store.Driver)
		require.Equal(t, "data/cthai.db", cfg.Store.SQLitePath)
		require.Equal(t, "authenticated", cfg.Auth.Audience)
		require.Empty(t, cfg.Redis.Addr)
		require.False(t, cfg.Cloudinary.Enabled())
		require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("GROK_API_KEY", "xai-test-key")
		t.Setenv("GROK_BASE_URL", "https://grok.test/v1")
		t.Setenv("REPLICATE_API_TOKEN", "r8_test")
		t.Setenv("FAL_API_KEY", "fal-test")
		t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
		t.Setenv("CLOUDINARY_API_KEY", "key")
		t.Setenv("CLOUDINARY_API_SECRET", "secret")
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/cthai")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "xai-test-key", cfg.Grok.APIKey)
		require.Equal(t, "https://grok.test/v1", cfg.Grok.BaseURL)
		require.Equal(t, "r8_test", cfg.Replicate.APIToken)
		require.Equal(t, "fal-test", cfg.FAL.APIKey)
		require.True(t, cfg.Cloudinary.Enabled())
		require.Equal(t, "postgres", cfg.Store.Driver)
		require.Equal(t, "postgres://localhost/cthai", cfg.Store.PostgresDSN)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	})
}

func TestParseDependenciesConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Grok.APIKey = "k"

	deps := config.ParseDependenciesConfig(cfg)

	require.Same(t, &cfg.Grok, deps.Grok)
	require.Same(t, &cfg.Server, deps.Server)
	require.Same(t, &cfg.Auth, deps.Auth)
	require.Same(t, &cfg.Vision, deps.Vision)
}
