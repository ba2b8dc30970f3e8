package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/cache"
	"github.com/robalobadob/jeopardy/internal/config"
	"github.com/robalobadob/jeopardy/internal/httpserver"
	"github.com/robalobadob/jeopardy/internal/session"
	"github.com/robalobadob/jeopardy/internal/store"
	"github.com/robalobadob/jeopardy/internal/trivia"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	src, closeSrc, err := buildSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up trivia source")
	}
	defer closeSrc()

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, src, httpserver.Options{
		Session: session.Config{
			NumCategories:    cfg.NumCategories,
			CluesPerCategory: cfg.CluesPerCategory,
			PoolSize:         cfg.TriviaPoolSize,
			FetchTimeout:     cfg.TriviaFetchTimeout,
		},
		Secret:        cfg.SessionSecret,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.SecureCookies,
		DailySalt:     cfg.DailySalt,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweepSessions(ctx, mem, cfg.SessionTTL)

	log.Info().Str("port", cfg.Port).Str("source", cfg.TriviaSource).
		Int("categories", cfg.NumCategories).Int("clues", cfg.CluesPerCategory).Msg("starting go-server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// buildSource picks the trivia source and wraps it in the SQLite cache when configured.
func buildSource(cfg config.Config) (trivia.Source, func(), error) {
	var src trivia.Source
	if cfg.TriviaSource == "offline" {
		off, err := trivia.LoadOffline()
		if err != nil {
			return nil, nil, err
		}
		src = off
	} else {
		src = trivia.NewClient(cfg.TriviaBaseURL, trivia.WithRateLimit(cfg.TriviaRatePerSec))
	}

	if cfg.CacheDSN == "" {
		return src, func() {}, nil
	}
	c, err := cache.Open(cfg.CacheDSN, cfg.CacheTTL, src)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dsn", cfg.CacheDSN).Dur("ttl", cfg.CacheTTL).Msg("category cache enabled")
	return c, func() { _ = c.Close() }, nil
}

// sweepSessions drops idle sessions every minute until ctx is done.
func sweepSessions(ctx context.Context, mem *store.Memory, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if removed := mem.Sweep(now, ttl); len(removed) > 0 {
				log.Info().Int("count", len(removed)).Msg("swept idle sessions")
			}
		}
	}
}
