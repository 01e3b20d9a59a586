package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/expense-service/internal/config"
	"github.com/Dan9191/expense-service/internal/database"
	"github.com/Dan9191/expense-service/internal/digest"
	"github.com/Dan9191/expense-service/internal/handler"
	"github.com/Dan9191/expense-service/internal/repository"
	"github.com/Dan9191/expense-service/internal/repository/memstore"
	"github.com/Dan9191/expense-service/internal/service"
	"github.com/Dan9191/expense-service/internal/utils/email"
	"github.com/Dan9191/expense-service/web"
	"github.com/sirupsen/logrus"
)

type userStore interface {
	service.UserStore
	digest.UserLister
}

type expenseStore interface {
	service.ExpenseStore
	digest.TotalsSource
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize storage
	var (
		users    userStore
		expenses expenseStore
		db       *sql.DB
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memstore.New()
		users, expenses = store, store
	default:
		db, err = database.Open(context.Background(), database.Options{
			DSN:          cfg.DBConn,
			MaxOpenConns: cfg.DBMaxConns,
			InitTimeout:  cfg.DBInitTimeout,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(context.Background(), db, cfg.DBInitTimeout, logger); err != nil {
			logger.Fatalf("Failed to initialize schema: %v", err)
		}
		users, expenses = repository.NewUserRepository(db), repository.NewExpenseRepository(db)
	}

	// Initialize layers
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.JWTExpire)
	authSvc := service.NewAuthService(users, tokens, logger)
	expenseSvc := service.NewExpenseService(expenses, logger)
	h := handler.NewHandler(authSvc, expenseSvc)

	// Weekly digest
	if cfg.DigestEnabled() {
		job := digest.NewJob(users, expenses, email.NewSender(cfg, logger), logger)
		scheduler, err := digest.Schedule(cfg.DigestSchedule, job, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule digest: %v", err)
		}
		defer scheduler.Stop()
		logger.Infof("Weekly digest scheduled: %s", cfg.DigestSchedule)
	}

	// Setup router
	router := handler.NewRouter(h, handler.RouterConfig{
		Tokens:         tokens,
		Static:         web.Static(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Fatalf("Server failed: %v", err)
	case sig := <-stop:
		logger.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
