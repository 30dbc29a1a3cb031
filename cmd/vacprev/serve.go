package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/vacprev/internal/api"
	"github.com/terraincognita07/vacprev/internal/config"
	"github.com/terraincognita07/vacprev/internal/db"
	"github.com/terraincognita07/vacprev/internal/i18n"
	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"github.com/terraincognita07/vacprev/internal/services"
	"github.com/terraincognita07/vacprev/internal/upstream"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	rules, origin, err := loadRules(cfg, log)
	if err != nil {
		return err
	}
	normalization, err := services.NewNormalizationService(normalize.New(rules), cfg.NormalizeCacheSize)
	if err != nil {
		return err
	}

	client, closeClient, err := buildForecastClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeClient()

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(api.Dependencies{
		Forecasts:     services.NewForecastService(client, log),
		Normalization: normalization,
		I18n:          i18nManager,
		Logger:        log,
		RuleOrigin:    origin,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(handler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("vacprev listening",
		zap.String("addr", "0.0.0.0:"+cfg.Port),
		zap.String("db", cfg.DBPath),
		zap.String("rules_origin", origin),
		zap.Int("rules", rules.Len()),
		zap.Bool("upstream_configured", client != nil))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func newApp(handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "vacprev",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	app.Use(handler.LanguageMiddleware)

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

// loadRules reads the rule table from the sqlite store, falling back to the
// mappings file.
func loadRules(cfg config.Config, log *zap.Logger) (*normalize.RuleTable, string, error) {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		_ = db.CloseSQLite(database)
	}()

	repositories := db.NewRepositories(database)
	return services.NewRuleService(repositories.Rules, cfg.MappingsPath, log).Load()
}

// buildForecastClient chains the direct database client, when reachable,
// before the REST client. It returns a nil client when neither is
// configured.
func buildForecastClient(ctx context.Context, cfg config.Config, log *zap.Logger) (services.ForecastClient, func(), error) {
	closeClient := func() {}
	clients := make([]upstream.Client, 0, 2)

	if cfg.Postgres.Configured() {
		direct, err := upstream.NewPostgresClient(ctx, cfg.Postgres, cfg.Supabase.RPCName, log)
		if err != nil {
			log.Warn("direct database client unavailable", zap.Error(err))
		} else {
			clients = append(clients, direct)
			closeClient = direct.Close
		}
	}

	if cfg.Supabase.Configured() {
		rest, err := upstream.NewRESTClient(cfg.Supabase, log)
		if err != nil {
			closeClient()
			return nil, func() {}, err
		}
		clients = append(clients, rest)
	}

	if len(clients) == 0 {
		log.Warn("forecast upstream is not configured; /previsao will answer 500")
		return nil, closeClient, nil
	}
	return upstream.NewChainClient(log, clients...), closeClient, nil
}
