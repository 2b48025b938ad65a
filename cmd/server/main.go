// Package main is the entry point for the portfolio analysis and
// rebalancing server. It wires the sqlite databases, the market data
// clients, the background refresh jobs and the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JoaoToni12/analise-investimentos/internal/clients/brapi"
	"github.com/JoaoToni12/analise-investimentos/internal/clients/tesouro"
	"github.com/JoaoToni12/analise-investimentos/internal/config"
	"github.com/JoaoToni12/analise-investimentos/internal/database"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/history"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/optimization"
	optimizationhandlers "github.com/JoaoToni12/analise-investimentos/internal/modules/optimization/handlers"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
	portfoliohandlers "github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio/handlers"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/rebalancing"
	rebalancinghandlers "github.com/JoaoToni12/analise-investimentos/internal/modules/rebalancing/handlers"
	zoneshandlers "github.com/JoaoToni12/analise-investimentos/internal/modules/zones/handlers"
	"github.com/JoaoToni12/analise-investimentos/internal/scheduler"
	"github.com/JoaoToni12/analise-investimentos/internal/server"
	"github.com/JoaoToni12/analise-investimentos/pkg/logger"
)

const (
	// Quotes refresh every 15 minutes during B3 trading hours, history
	// backfills nightly after close.
	quoteRefreshSchedule = "*/15 10-18 * * MON-FRI"
	historySyncSchedule  = "0 23 * * MON-FRI"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting analise-investimentos")

	// Portfolio state lives in the standard-profile database; daily
	// prices live in their own cache database on a separate driver.
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	if err := portfolioDB.Migrate(portfolio.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate portfolio database")
	}
	if err := portfolioDB.Migrate(rebalancing.RecommendationSchema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate recommendations table")
	}

	historyDB, err := history.OpenDB(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	positionRepo := portfolio.NewPositionRepository(portfolioDB.Conn(), log)
	recommendationRepo := rebalancing.NewRecommendationRepository(portfolioDB.Conn())
	priceStore := history.NewPriceStore(historyDB, log)

	brapiClient := brapi.NewClient(cfg.BrapiBaseURL, cfg.BrapiToken, log)
	tesouroClient := tesouro.NewClient("", log)

	optimizationService := optimization.NewService(cfg.Engine.TradingDaysPerYear, log)
	rebalancingService := rebalancing.NewService(positionRepo, recommendationRepo, cfg.Engine, log)

	sched := scheduler.New(log)
	quoteJob := scheduler.NewQuoteRefreshJob(positionRepo, brapiClient, tesouroClient, log)
	historyJob := scheduler.NewHistorySyncJob(positionRepo, brapiClient, priceStore, "2y", log)
	if err := sched.AddJob(quoteRefreshSchedule, quoteJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}
	if err := sched.AddJob(historySyncSchedule, historyJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register history sync job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Handlers: []server.RouteRegistrar{
			portfoliohandlers.NewHandler(positionRepo, log),
			zoneshandlers.NewHandler(positionRepo, cfg.Engine, log),
			optimizationhandlers.NewHandler(optimizationService, positionRepo, priceStore, cfg.Engine, log),
			rebalancinghandlers.NewHandler(rebalancingService, log),
			server.NewSystemHandlers(
				map[string]*database.DB{"portfolio": portfolioDB},
				priceStore,
				sched,
				quoteJob,
				log,
			),
		},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
