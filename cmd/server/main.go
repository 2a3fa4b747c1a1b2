package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/avolkov/diaryvault/internal/server"
	"github.com/avolkov/diaryvault/internal/server/config"
)

func main() {
	// .env is optional; absence is the normal case in production.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
