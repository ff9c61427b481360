package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/dandyworld/dandy-world-server/core"
	"github.com/dandyworld/dandy-world-server/model"
	"github.com/joho/godotenv"
)

var (
	version  = "dev"
	revision = "unknown"
	build    = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
	configPath := flag.String("c", "./config/default.yml", "path to config file")
	flag.Parse()

	config, err := model.LoadFromPath(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		config.Server.Authentication.Secret = secret
	}

	core.SetVersion(version, revision, build)
	server, err := core.NewServer(*config)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	server.Run()
}
