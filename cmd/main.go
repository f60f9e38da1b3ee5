package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/davidbz/cthai/internal/auth"
	"github.com/davidbz/cthai/internal/config"
	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/httpserver"
	"github.com/davidbz/cthai/internal/httpserver/middleware"
	"github.com/davidbz/cthai/internal/observability"
	"github.com/davidbz/cthai/internal/provider/fal"
	"github.com/davidbz/cthai/internal/provider/grok"
	"github.com/davidbz/cthai/internal/provider/openai"
	"github.com/davidbz/cthai/internal/provider/registry"
	"github.com/davidbz/cthai/internal/provider/replicate"
	"github.com/davidbz/cthai/internal/state"
	"github.com/davidbz/cthai/internal/storage/cloudinary"
	"github.com/davidbz/cthai/internal/store/postgres"
	"github.com/davidbz/cthai/internal/store/sqlite"
)

const shutdownTimeout = 15 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server failed to start: %v", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server shutdown failed: %v", err)
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Invoke(func() error {
		_, err := observability.InitLogger()
		return err
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Grok Provider. Always registered: a missing key is reported per request.
	if err := container.Provide(func(cfg *grok.Config) *grok.Provider {
		return grok.NewProvider(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide Grok provider: %v", err)
	}

	// Register providers with registry (invoked for side effects)
	if err := container.Invoke(func(reg domain.ProviderRegistry, grokProvider *grok.Provider) error {
		if err := reg.Register(context.Background(), grokProvider); err != nil {
			return fmt.Errorf("failed to register Grok provider: %w", err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	provideMediaVendors(container)
	provideStores(container)

	// Authentication. Without a secret every authenticated route answers 401.
	if err := container.Provide(func(cfg *auth.Config) *auth.Verifier {
		verifier, err := auth.NewVerifier(*cfg)
		if err != nil {
			logNotConfigured("auth", err)
			return nil
		}
		return verifier
	}); err != nil {
		log.Fatalf("Failed to provide auth verifier: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewRelayService); err != nil {
		log.Fatalf("Failed to provide relay service: %v", err)
	}
	if err := container.Provide(domain.NewMediaService); err != nil {
		log.Fatalf("Failed to provide media service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpserver.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// provideMediaVendors registers the generation vendors. An unconfigured vendor
// is provided as a nil interface so its endpoint answers 503.
func provideMediaVendors(container *dig.Container) {
	if err := container.Provide(func(cfg *replicate.Config) (domain.ImageGenerator, domain.VideoGenerator) {
		generator, err := replicate.NewGenerator(*cfg)
		if err != nil {
			logNotConfigured("replicate", err)
			return nil, nil
		}
		return generator, generator
	}); err != nil {
		log.Fatalf("Failed to provide Replicate generator: %v", err)
	}

	if err := container.Provide(func(cfg *fal.Config) domain.SpeechSynthesizer {
		synthesizer, err := fal.NewSynthesizer(*cfg)
		if err != nil {
			logNotConfigured("fal", err)
			return nil
		}
		return synthesizer
	}); err != nil {
		log.Fatalf("Failed to provide FAL synthesizer: %v", err)
	}

	if err := container.Provide(func(cfg *openai.Config) domain.VisionAnalyzer {
		analyzer, err := openai.NewAnalyzer(*cfg)
		if err != nil {
			logNotConfigured("vision", err)
			return nil
		}
		return analyzer
	}); err != nil {
		log.Fatalf("Failed to provide vision analyzer: %v", err)
	}

	if err := container.Provide(func(cfg *cloudinary.Config) domain.ObjectStorage {
		storage, err := cloudinary.NewStorage(*cfg)
		if err != nil {
			logNotConfigured("cloudinary", err)
			return nil
		}
		return storage
	}); err != nil {
		log.Fatalf("Failed to provide Cloudinary storage: %v", err)
	}
}

// provideStores registers the artifact store and the state store.
func provideStores(container *dig.Container) {
	if err := container.Provide(func(cfg *config.StoreConfig) (domain.ArtifactStore, error) {
		switch cfg.Driver {
		case "postgres":
			return postgres.New(cfg.PostgresDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnLifetime)
		case "sqlite", "":
			return sqlite.New(cfg.SQLitePath)
		default:
			return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
		}
	}); err != nil {
		log.Fatalf("Failed to provide artifact store: %v", err)
	}

	if err := container.Provide(func(cfg *state.RedisConfig) (state.Store, error) {
		if cfg.Addr == "" {
			return state.NewMemoryStore(), nil
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return state.NewRedisStore(client), nil
	}); err != nil {
		log.Fatalf("Failed to provide state store: %v", err)
	}
}

func logNotConfigured(component string, err error) {
	observability.FromContext(context.Background()).Warn("component not configured",
		observability.String("component", component),
		observability.Error(err),
	)
}
