package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meehighlov/reventor/internal/bot"
	"github.com/meehighlov/reventor/internal/database"
	"github.com/meehighlov/reventor/internal/handlers"
	"github.com/meehighlov/reventor/internal/services"
	"github.com/meehighlov/reventor/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("Required environment variable TELEGRAM_BOT_TOKEN is not set")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	st := store.New(database.GetDB())

	b, err := bot.New(token, st)
	if err != nil {
		log.Fatal("Failed to connect to Telegram:", err)
	}

	interval := services.DefaultScanInterval
	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid SCAN_INTERVAL %q: %v", v, err)
		}
		interval = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background due-event scanner
	scanner := services.NewScanner(st, b, interval)
	scanner.Start(ctx)

	// Optional ops status server
	if addr := os.Getenv("STATUS_ADDR"); addr != "" {
		router := handlers.NewRouter(st, time.Now())
		go func() {
			log.Println("Status server listening on", addr)
			if err := router.Run(addr); err != nil {
				log.Fatal(err)
			}
		}()
	}

	log.Printf("Starting reminder bot @%s...", b.Username())
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
