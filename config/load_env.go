package config

import (
	"log/slog"

	"github.com/subosito/gotenv"
)

// LoadEnv layers a per-environment dotenv file over the OS environment.
func LoadEnv(env string) {
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		slog.Warn("No .env file found, using OS environment",
			slog.String("file", envFile))
	}
}
