// internal/config/config.go
//
// Server configuration from the environment.
// A .env file in the working directory is loaded first (development);
// real environment variables take precedence over it.
//
// Environment variables (defaults in brackets):
//   PORT [5175]                   LOG_LEVEL [info]
//   TRIVIA_SOURCE [remote]        remote | offline (embedded pack)
//   TRIVIA_BASE_URL [jeopardy API]
//   TRIVIA_POOL_SIZE [100]        category ids fetched before sampling
//   TRIVIA_RATE_PER_SEC [10]      outbound request cap, 0 = unlimited
//   TRIVIA_FETCH_TIMEOUT [8s]     per remote call
//   NUM_CATEGORIES [6]            board width
//   CLUES_PER_CATEGORY [5]        board height
//   CACHE_DSN []                  SQLite file for the category cache, empty = off
//   CACHE_TTL [24h]
//   SESSION_SECRET [dev secret]   HS256 key for session tokens
//   SESSION_TTL [2h]              idle sessions are dropped after this
//   NODE_ENV []                   "production" marks cookies Secure
//   DAILY_SALT [local_dev_salt]   keys the board of the day
//   CLIENT_ORIGIN [http://localhost:5173]

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/trivia"
)

const devSecret = "dev_secret_change_me"

// Config is read once at startup and never changes afterwards.
type Config struct {
	Port     string
	LogLevel string

	TriviaSource       string
	TriviaBaseURL      string
	TriviaPoolSize     int
	TriviaRatePerSec   float64
	TriviaFetchTimeout time.Duration

	NumCategories    int
	CluesPerCategory int

	CacheDSN string
	CacheTTL time.Duration

	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	DailySalt     string

	ClientOrigin string
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function (os.Getenv in production).
// Unparseable numbers fall back to their defaults with a warning.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env(getenv)
	c := Config{
		Port:               e.get("PORT", "5175"),
		LogLevel:           e.get("LOG_LEVEL", "info"),
		TriviaSource:       e.get("TRIVIA_SOURCE", "remote"),
		TriviaBaseURL:      e.get("TRIVIA_BASE_URL", trivia.DefaultBaseURL),
		TriviaPoolSize:     e.getInt("TRIVIA_POOL_SIZE", 100),
		TriviaRatePerSec:   e.getFloat("TRIVIA_RATE_PER_SEC", 10),
		TriviaFetchTimeout: e.getDur("TRIVIA_FETCH_TIMEOUT", 8*time.Second),
		NumCategories:      e.getInt("NUM_CATEGORIES", 6),
		CluesPerCategory:   e.getInt("CLUES_PER_CATEGORY", 5),
		CacheDSN:           e.get("CACHE_DSN", ""),
		CacheTTL:           e.getDur("CACHE_TTL", 24*time.Hour),
		SessionSecret:      e.get("SESSION_SECRET", devSecret),
		SessionTTL:         e.getDur("SESSION_TTL", 2*time.Hour),
		SecureCookies:      e.get("NODE_ENV", "") == "production",
		DailySalt:          e.get("DAILY_SALT", "local_dev_salt"),
		ClientOrigin:       e.get("CLIENT_ORIGIN", "http://localhost:5173"),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	if c.SessionSecret == devSecret {
		log.Warn().Msg("SESSION_SECRET not set, using development secret")
	}
	return c, nil
}

// Validate rejects values no game could be built with.
func (c Config) Validate() error {
	switch {
	case c.NumCategories <= 0:
		return fmt.Errorf("config: NUM_CATEGORIES must be positive, got %d", c.NumCategories)
	case c.CluesPerCategory <= 0:
		return fmt.Errorf("config: CLUES_PER_CATEGORY must be positive, got %d", c.CluesPerCategory)
	case c.TriviaPoolSize < c.NumCategories:
		return fmt.Errorf("config: TRIVIA_POOL_SIZE %d smaller than NUM_CATEGORIES %d", c.TriviaPoolSize, c.NumCategories)
	case c.TriviaSource != "remote" && c.TriviaSource != "offline":
		return fmt.Errorf("config: TRIVIA_SOURCE must be remote or offline, got %q", c.TriviaSource)
	}
	return nil
}

// env wraps a lookup function with typed getters.
type env func(string) string

func (e env) get(k, def string) string {
	if v := e(k); v != "" {
		return v
	}
	return def
}

func (e env) getInt(k string, def int) int {
	v := e(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("invalid integer, using default")
		return def
	}
	return n
}

func (e env) getFloat(k string, def float64) float64 {
	v := e(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Float64("default", def).Msg("invalid number, using default")
		return def
	}
	return f
}

func (e env) getDur(k string, def time.Duration) time.Duration {
	v := e(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}
