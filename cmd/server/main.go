package main

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app"
	"github.com/eliasJakobi123/sellable-sub001/app/config"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	built, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}
	defer built.Close()

	addr := net.JoinHostPort("0.0.0.0", cfg.Port)
	built.Logger.Info("listening", zap.String("addr", addr))
	if err := built.Router.Run(addr); err != nil {
		built.Logger.Fatal("server stopped", zap.Error(err))
	}
}
