// Package config reads server settings from flags, falling back to
// CHESS_* environment variables and then to built-in defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr          string
	AllowOrigins  string
	SaveDir       string
	ClockLimit    time.Duration
	MatchInterval time.Duration
	MatchWait     time.Duration
	DevLog        bool
}

func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)

	clockSeconds, err := getenvInt("CHESS_CLOCK_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	matchInterval, err := getenvDuration("CHESS_MATCH_INTERVAL", time.Second)
	if err != nil {
		return Config{}, err
	}

	matchWait, err := getenvDuration("CHESS_MATCH_WAIT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	addr := fs.String("addr", getenv("CHESS_ADDR", ":3000"), "listen address")
	origins := fs.String("allow-origins", getenv("CHESS_ALLOW_ORIGINS", "http://localhost:5173"), "comma-separated CORS origins")
	saveDir := fs.String("save-dir", getenv("CHESS_SAVE_DIR", "saved_games"), "directory for saved games")
	clock := fs.Int("clock-seconds", clockSeconds, "initial time per player in seconds")
	interval := fs.Duration("match-interval", matchInterval, "how often the matchmaking queue is paired")
	wait := fs.Duration("match-wait", matchWait, "how long a matchmaking request waits for an opponent, 0 to answer at once")
	devLog := fs.Bool("dev-log", getenb("CHESS_DEV_LOG", false), "human readable debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:          *addr,
		AllowOrigins:  *origins,
		SaveDir:       *saveDir,
		ClockLimit:    time.Duration(*clock) * time.Second,
		MatchInterval: *interval,
		MatchWait:     *wait,
		DevLog:        *devLog,
	}
	if cfg.ClockLimit <= 0 {
		return Config{}, fmt.Errorf("clock-seconds must be positive, got %d", *clock)
	}
	if cfg.MatchInterval <= 0 {
		return Config{}, fmt.Errorf("match-interval must be positive, got %s", cfg.MatchInterval)
	}
	if cfg.MatchWait < 0 {
		return Config{}, fmt.Errorf("match-wait must not be negative, got %s", cfg.MatchWait)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
