package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSetting is returned by Validate when a required setting is empty.
var ErrMissingSetting = errors.New("missing required setting")

type Config struct {
	SearchURL  string
	WebhookURL string
	Headless   bool

	WarmupURL      string
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	UserDataDir    string
	SeenFile       string
	SnapshotDir    string
	MaxListings    int

	NavigationTimeout time.Duration
	StructuredTimeout time.Duration
	CardsTimeout      time.Duration
	NotifyTimeout     time.Duration
	ChallengeWait     time.Duration

	MinInterval    time.Duration
	MaxInterval    time.Duration
	MinNotifyPause time.Duration
	MaxNotifyPause time.Duration

	BotName   string
	AvatarURL string
}

func DefaultConfig() *Config {
	return &Config{
		Headless:       false,
		WarmupURL:      "https://www.leboncoin.fr/",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		UserDataDir:    "./user_data",
		SeenFile:       "annonces_vues.json",
		SnapshotDir:    "debug",
		MaxListings:    15,

		NavigationTimeout: 60 * time.Second,
		StructuredTimeout: 5 * time.Second,
		CardsTimeout:      10 * time.Second,
		NotifyTimeout:     10 * time.Second,
		ChallengeWait:     30 * time.Second,

		MinInterval:    480 * time.Second,
		MaxInterval:    900 * time.Second,
		MinNotifyPause: 1 * time.Second,
		MaxNotifyPause: 2 * time.Second,

		BotName:   "Alerte Immo",
		AvatarURL: "https://upload.wikimedia.org/wikipedia/commons/a/ae/Leboncoin_Logo.png",
	}
}

// FromEnv loads .env (if present) and overlays the environment on DefaultConfig.
func FromEnv() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.SearchURL = strings.TrimSpace(os.Getenv("SEARCH_URL"))
	cfg.WebhookURL = strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL"))
	cfg.Headless = getEnvBool("HEADLESS", cfg.Headless)
	return cfg
}

// Validate reports the first required setting that is not set.
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return fmt.Errorf("%w: SEARCH_URL", ErrMissingSetting)
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("%w: DISCORD_WEBHOOK_URL", ErrMissingSetting)
	}
	return nil
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
