package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"jo3qma.com/pokedex/internal/config"
	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/domain/repository"
	"jo3qma.com/pokedex/internal/handler"
	"jo3qma.com/pokedex/internal/infrastructure/pokeapi"
	"jo3qma.com/pokedex/internal/infrastructure/sqlite"
	"jo3qma.com/pokedex/internal/observability"
	"jo3qma.com/pokedex/internal/usecase"
)

func main() {
	configPath := flag.String("config", os.Getenv("POKEDEX_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := observability.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Error("failed to init sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// 依存関係の組み立て（依存性注入）
	// 取得元APIの前にキャッシュを挟むことで、上流の呼び出しを抑えます
	var repo repository.CatalogRepository = pokeapi.NewClient(pokeapi.Config{
		BaseURL:        cfg.PokeAPI.BaseURL,
		RequestTimeout: cfg.PokeAPI.RequestTimeout,
		RatePerSecond:  cfg.PokeAPI.RatePerSecond,
		Burst:          cfg.PokeAPI.Burst,
	}, logger)

	if cfg.Cache.DSN != "" {
		store, err := sqlite.Open(cfg.Cache.DSN)
		if err != nil {
			logger.Error("failed to open cache", "dsn", cfg.Cache.DSN, "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		if n, err := store.Purge(context.Background(), cfg.Cache.TTL); err != nil {
			logger.Warn("failed to purge cache", "error", err)
		} else if n > 0 {
			logger.Info("purged expired cache entries", "count", n)
		}
		repo = sqlite.NewCachedCatalog(repo, store, cfg.Cache.TTL, logger)
	}

	uc := usecase.NewCatalogUsecase(repo, logger)
	transformer := model.EntryTransformer{ImageURLTemplate: cfg.Catalog.ImageURLTemplate}

	loaderOpts := []usecase.LoaderOption{
		usecase.WithPageSize(cfg.Catalog.PageSize),
		usecase.WithTransformer(transformer),
		usecase.WithLogger(logger),
	}
	if cfg.Catalog.LegacyEndDetection {
		loaderOpts = append(loaderOpts, usecase.WithLegacyEndDetection())
	}
	sessions := usecase.NewSessionRegistry(func() *usecase.ListLoader {
		return usecase.NewListLoader(uc, loaderOpts...)
	}, cfg.Session.IdleTimeout, logger)

	h := handler.NewPokedexHandler(uc, sessions, transformer, cfg.Catalog.PageSize, logger)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.NewRouter(h, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PokeAPI.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンの設定
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// シグナル待機（Ctrl+Cなど）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server exited")
}
