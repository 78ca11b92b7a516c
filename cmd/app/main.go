package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/configs"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/database"
	delivery "github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/delivery/http"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/infra"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/repository"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/service"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := configs.Load()
	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	settingsRepo := repository.NewSystemSettingsRepository(db)

	// Initialize services
	marketData := service.NewMarketDataService()
	catalog := service.NewAssetCatalogService()
	if cfg.Catalog.Refresh {
		if err := catalog.Refresh(ctx); err != nil {
			log.Printf("[WARN] %v (using packaged asset list)", err)
		}
	}

	locks := infra.NewAccountLocks()
	valuation := service.NewValuationService(marketData)
	tradingService := usecase.NewTradingService(accountRepo, marketData, catalog, locks, cfg.Trading.MinInitialBalance)
	monitor := service.NewStopMonitorService(accountRepo, settingsRepo, marketData, locks, cfg.Monitor.Interval)

	// Replay the monitoring intervals missed while the process was down.
	// This must finish before the first live sweep and before any trade is
	// accepted, so nobody trades against a stop that already fired.
	if err := monitor.CatchUp(ctx); err != nil {
		log.Fatalf("Failed to catch up missed stop checks: %v", err)
	}

	scheduler := infra.NewScheduler(monitor, cfg.Monitor.Interval)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start stop-trigger monitor: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:      delivery.NewAuthHandler(accountRepo, tradingService, cfg.Trading.DefaultCommissionPercent),
		PortfolioHandler: delivery.NewPortfolioHandler(accountRepo, marketData, catalog, valuation),
		TradeHandler:     delivery.NewTradeHandler(tradingService),
		AssetHandler:     delivery.NewAssetHandler(catalog, marketData),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("FindUrCapitalKrooker starting on %s", addr)
	log.Printf("Environment: %s", cfg.Server.Env)
	log.Printf("Minimum initial balance: $%.2f", cfg.Trading.MinInitialBalance)
	log.Printf("Monitor interval: %s", cfg.Monitor.Interval)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
