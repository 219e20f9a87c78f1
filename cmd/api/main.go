package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"promptpix/internal/http/handlers"
	httpapi "promptpix/internal/http/httpapi"
	"promptpix/internal/imagegen"
	"promptpix/internal/infra"
	"promptpix/internal/infra/credentials"
	"promptpix/internal/infra/geoip"
	"promptpix/internal/metrics"
	providerimage "promptpix/internal/providers/image"
	"promptpix/internal/providers/prompt"
	"promptpix/internal/render"
	"promptpix/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	secrets, err := credentials.NewStore(cfg.SecretsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credentials")
	}
	hfToken, _ := secrets.Token(ctx, credentials.ProviderHuggingFace)
	deepAIKey, _ := secrets.Token(ctx, credentials.ProviderDeepAI)
	replicateToken, _ := secrets.Token(ctx, credentials.ProviderReplicate)
	logger.Info().Strs("configured", secrets.Configured(ctx)).Msg("provider credentials resolved")

	blobs := storage.NewBlobStore(cfg.BlobBaseURL())
	recorder := metrics.NewRecorder()

	chain := providerimage.NewChain(&logger, recorder,
		providerimage.NewPollinationsAdapter(providerimage.PollinationsOptions{
			Endpoint:       cfg.PollinationsEndpoint,
			Model:          cfg.PollinationsModel,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		providerimage.NewHuggingFaceAdapter(providerimage.HuggingFaceOptions{
			Token:          hfToken,
			Endpoint:       cfg.HuggingFaceEndpoint,
			Models:         cfg.HuggingFaceModels,
			Blobs:          blobs,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		providerimage.NewDeepAIAdapter(providerimage.DeepAIOptions{
			APIKey:         deepAIKey,
			Endpoint:       cfg.DeepAIEndpoint,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		providerimage.NewReplicateAdapter(providerimage.ReplicateOptions{
			Token:          replicateToken,
			Endpoint:       cfg.ReplicateEndpoint,
			Version:        cfg.ReplicateVersion,
			PollInterval:   cfg.ReplicatePollInterval,
			MaxPolls:       cfg.ReplicateMaxPolls,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		providerimage.NewLocalAdapter(render.NewRenderer(render.Options{}), &logger),
	)

	studio := imagegen.NewStudio(chain, imagegen.Options{
		MaxPromptLength: cfg.MaxPromptLength,
		MaxRetries:      cfg.MaxRetries,
		HistoryLimit:    cfg.HistoryLimit,
		Observer:        recorder,
		Logger:          &logger,
	})

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	app := &handlers.App{
		Studio:    studio,
		Enhancer:  prompt.NewStaticEnhancer(nil),
		Blobs:     blobs,
		Providers: chain.Providers(),
		Logger:    &logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   geo.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		Metrics:         recorder.Handler(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Strs("providers", chain.Providers()).Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
