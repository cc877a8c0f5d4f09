package main

import (
	"context"
	"log"

	"github.com/samifathi/invoice-api/internal/server"
	"github.com/samifathi/invoice-api/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	app.Run(ctx)
}
