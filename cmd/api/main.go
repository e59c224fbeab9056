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
	"github.com/staff-directory-api/internal/config"
	"github.com/staff-directory-api/internal/email"
	"github.com/staff-directory-api/internal/infrastructure/dynamo"
	"github.com/staff-directory-api/internal/infrastructure/mail"
	transporthttp "github.com/staff-directory-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Email templates are required — without them no recovery mail can go out.
	templates, err := email.Load(cfg.TemplatesDir)
	if err != nil {
		log.Fatalf("load email templates: %v", err)
	}

	deps := &transporthttp.Deps{
		StaffRepo:      dynamo.NewStaffRepo(dynamoClient, cfg.DynamoTables.Staff),
		OTPRepo:        dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		ResetTokenRepo: dynamo.NewResetTokenRepo(dynamoClient, cfg.DynamoTables.ResetTokens),
		Sender:         mail.NewSender(cfg),
		Templates:      templates,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
