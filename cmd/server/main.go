package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shakeout/server/internal/app"
	"shakeout/server/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := app.Run(ctx, app.Config{Settings: settings}); err != nil {
		log.Fatalf("%v", err)
	}
}
