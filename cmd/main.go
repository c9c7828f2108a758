package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; flags and real environment still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	Execute(ctx)
}
