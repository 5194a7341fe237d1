package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/config"
	"github.com/kitbuilder587/websearch/internal/metrics"
	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/ratelimit"
	"github.com/kitbuilder587/websearch/internal/repository"
	"github.com/kitbuilder587/websearch/internal/repository/postgres"
	"github.com/kitbuilder587/websearch/internal/service"
	"github.com/kitbuilder587/websearch/internal/tool"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "websearch",
	Short: "SSRF-safe multi-provider web search",
	Long:  "websearch queries google, brave and xai in fallback order and drops results pointing at private or internal hosts.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(historyCmd)
}

func setVersionInfo(version, commit string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("websearch %s (commit: %s)\n", version, commit))
}

// app - всё, что собирается из конфига, общее для команд.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	registry *provider.Registry
	db       *postgres.DB
	logs     repository.SearchLogRepository
	svc      service.WebSearchService
	tool     *tool.WebSearch
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	// .env не обязателен, переменные могут прийти из окружения
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	for _, name := range cfg.Providers.Ignored {
		logger.Warn("unknown provider in WEB_SEARCH_PROVIDERS ignored", zap.String("provider", name))
	}

	return cfg, logger, nil
}

func newApp(ctx context.Context, withDB bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	a.registry = provider.NewRegistry(cfg.Providers.Credentials, cfg.Providers.Settings(), logger)

	if withDB && cfg.Database.URL != "" {
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
		a.logs = postgres.NewSearchLogRepo(db)
		logger.Info("search log enabled")
	}

	deps := service.WebSearchDeps{
		Registry: a.registry,
		Limiter: ratelimit.New(ratelimit.Config{
			MaxTokens:  cfg.RateLimit.MaxTokens,
			RefillRate: cfg.RateLimit.RefillPerSec,
		}),
		Logs:    a.logs,
		Logger:  logger,
		Metrics: a.metrics,
		Order:   cfg.Providers.Order,
	}
	a.svc = service.NewWebSearchService(deps)
	a.tool = tool.NewWebSearch(a.svc, logger, tool.Options{})

	configured := a.registry.Configured(nil)
	if len(configured) == 0 {
		logger.Warn("no search provider configured", zap.Strings("hints", provider.Hints()))
	} else {
		logger.Info("search providers configured", zap.Any("providers", configured))
	}

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Sync()
}
