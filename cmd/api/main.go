package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/foreverweb/auth-api/internal/config"
	"github.com/foreverweb/auth-api/internal/infrastructure/dynamo"
	"github.com/foreverweb/auth-api/internal/infrastructure/memory"
	"github.com/foreverweb/auth-api/internal/infrastructure/smtp"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
	transporthttp "github.com/foreverweb/auth-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	var accountRepo transporthttp.AccountRepository
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Println("WARN: using in-memory account store; accounts will not survive a restart")
		accountRepo = memory.NewAccountRepo()
	case config.DriverDynamo:
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.AccountsTable)
		accountRepo = dynamo.NewAccountRepo(client, cfg.AccountsTable)
	default:
		log.Fatalf("unknown storage driver %q", cfg.StorageDriver)
	}

	deps := &transporthttp.Deps{
		AccountRepo: accountRepo,
		Mailer:      smtp.NewMailer(cfg),
		Hasher:      hash.New(cfg.HashIterations),
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := transporthttp.NewRouter(rootCtx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
