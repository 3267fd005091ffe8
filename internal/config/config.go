package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/ekstre-csv/internal/logging"

	"github.com/joho/godotenv"
)

var (
	envOnce sync.Once
	envFile string
)

// LoadEnv loads a .env file from the working directory or its parent, once
// per process, and returns the file it loaded ("" when none was found).
// Variables already set in the environment win.
func LoadEnv() string {
	envOnce.Do(func() {
		for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := godotenv.Load(candidate); err == nil {
				envFile = candidate
			}
			return
		}
	})
	return envFile
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *Config) logging.Logger {
	if cfg == nil {
		return logging.NewLogrusAdapter("info", "text")
	}
	return logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
}
