package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"microbank/internal/config"
	"microbank/internal/handler"
	"microbank/internal/logging"
	"microbank/internal/middleware"
	"microbank/internal/repository"
	"microbank/internal/service"
	"microbank/internal/service/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("microbank-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(cfg, db),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func buildHandler(cfg *config.Config, db *sql.DB) http.Handler {
	customerRepo := repository.NewCustomerRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	openingBalance := decimal.NewFromInt(cfg.OpeningBalance)
	jwtExpiry := time.Duration(cfg.TokenExpiryMinutes) * time.Minute

	customerSvc := service.NewCustomerService(customerRepo, accountRepo, db, openingBalance)
	accountSvc := service.NewAccountService(accountRepo, customerRepo, db, openingBalance, cfg.MaxAccountsPerCustomer)
	transferSvc := transfer.NewService(accountRepo, transactionRepo, db)

	customerHandler := handler.NewCustomerHandler(customerSvc, customerRepo, cfg.JWTSecret, jwtExpiry)
	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(transferSvc)
	healthHandler := handler.NewHealthHandler(db)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", healthHandler.Root)
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/customers/register", customerHandler.Register)
	mux.HandleFunc("POST /api/customers/login", customerHandler.Login)
	mux.HandleFunc("GET /api/customers", customerHandler.List)
	mux.Handle("GET /api/customers/me", authed(http.HandlerFunc(customerHandler.Me)))
	mux.Handle("DELETE /api/customers/{customerId}", authed(http.HandlerFunc(customerHandler.Delete)))

	mux.Handle("POST /api/accounts/create", authed(http.HandlerFunc(accountHandler.Create)))
	mux.Handle("GET /api/accounts/{customerId}", authed(http.HandlerFunc(accountHandler.List)))
	mux.Handle("GET /api/accounts/accountId/{accountId}", authed(http.HandlerFunc(accountHandler.Get)))
	mux.Handle("DELETE /api/accounts/{customerId}/{accountId}", authed(http.HandlerFunc(accountHandler.Delete)))

	mux.Handle("POST /api/transactions", authed(http.HandlerFunc(transactionHandler.Create)))
	mux.Handle("GET /api/transactions/{accountNumber}", authed(http.HandlerFunc(transactionHandler.List)))

	return middleware.RequestID(middleware.Logging(middleware.Recovery(mux)))
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
