package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/htakit/ceam/cmd/ceam/commands"
)

func main() {
	// Optional .env for local defaults (CEAM_LOG_LEVEL, CEAM_SCENARIO_DIR).
	// Missing file is fine.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("CEAM_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	commands.Execute()
}
