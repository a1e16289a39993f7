package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultPort      = "3000"
	defaultClientDir = "public"
)

// Config is the process bootstrap configuration
type Config struct {
	Addr      string // HTTP listen address
	ClientDir string // static client bundle
	DBPath    string // event journal; empty disables it
}

// LoadConfig reads an optional .env file, then the environment
// (PORT, CLIENT_DIR, ARENA_DB), then command-line flags, later sources
// overriding earlier ones.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	flags := flag.NewFlagSet("bumpzone", flag.ContinueOnError)
	addr := flags.String("addr", ":"+envOr("PORT", defaultPort), "HTTP listen address")
	clientDir := flags.String("client", envOr("CLIENT_DIR", defaultClientDir), "Path to client directory")
	dbPath := flags.String("db", os.Getenv("ARENA_DB"), "SQLite event journal path (empty disables)")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		Addr:      *addr,
		ClientDir: *clientDir,
		DBPath:    *dbPath,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
