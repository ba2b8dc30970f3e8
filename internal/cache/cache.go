// Package cache keeps fetched trivia categories in SQLite so repeated games
// do not refetch the same category from the remote service.
//
// Only the service's category replies are stored. Boards, sessions and
// reveal state are never written here.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/trivia"
)

// upstreamTimeout bounds a shared upstream fetch, which no single caller can cancel.
const upstreamTimeout = 30 * time.Second

// Source is a read-through cache in front of another trivia.Source.
type Source struct {
	next  trivia.Source
	db    *sql.DB
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

// Open opens the cache database at dsn, applies migrations and wraps next.
// Entries older than ttl are refetched; ttl <= 0 keeps entries forever.
func Open(dsn string, ttl time.Duration, next trivia.Source) (*Source, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Source{next: next, db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the database.
func (s *Source) Close() error { return s.db.Close() }

// CategoryIDs is passed straight through; the pool must stay random upstream.
func (s *Source) CategoryIDs(ctx context.Context, poolSize int) ([]trivia.CategoryID, error) {
	return s.next.CategoryIDs(ctx, poolSize)
}

// Category serves a fresh cached entry, or fetches and stores one.
// If the fetch fails and a stale entry exists, the stale entry is served.
// Concurrent misses for one id share a single upstream call; a caller whose
// ctx ends stops waiting without cancelling the call for the others.
func (s *Source) Category(ctx context.Context, id trivia.CategoryID) (trivia.CategoryDetail, error) {
	cached, fetchedAt, err := s.load(ctx, id)
	hit := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Warn().Err(err).Int64("category", int64(id)).Msg("cache read failed")
	}
	if hit && (s.ttl <= 0 || s.now().Sub(fetchedAt) < s.ttl) {
		return cached, nil
	}

	ch := s.group.DoChan(strconv.FormatInt(int64(id), 10), func() (any, error) {
		// Shared by every waiter, so it must outlive any one caller's ctx.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()
		d, err := s.next.Category(fctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.store(fctx, d); err != nil {
			log.Warn().Err(err).Int64("category", int64(id)).Msg("cache write failed")
		}
		return d, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return trivia.CategoryDetail{}, ctx.Err()
	}
	if err := res.Err; err != nil {
		if hit {
			log.Warn().Err(err).Int64("category", int64(id)).Msg("serving stale category")
			return cached, nil
		}
		return trivia.CategoryDetail{}, err
	}
	d := res.Val.(trivia.CategoryDetail)
	d.Clues = append(d.Clues[:0:0], d.Clues...)
	return d, nil
}

func (s *Source) load(ctx context.Context, id trivia.CategoryID) (trivia.CategoryDetail, time.Time, error) {
	var (
		d       = trivia.CategoryDetail{ID: id}
		raw     string
		fetched string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, clues_json, fetched_at FROM categories WHERE id=?`, int64(id),
	).Scan(&d.Title, &raw, &fetched)
	if err != nil {
		return d, time.Time{}, err
	}
	if err := json.Unmarshal([]byte(raw), &d.Clues); err != nil {
		return d, time.Time{}, fmt.Errorf("decode clues for %d: %w", id, err)
	}
	t, err := time.Parse(time.RFC3339Nano, fetched)
	if err != nil {
		return d, time.Time{}, fmt.Errorf("parse fetched_at for %d: %w", id, err)
	}
	return d, t, nil
}

func (s *Source) store(ctx context.Context, d trivia.CategoryDetail) error {
	clues := d.Clues
	if clues == nil {
		clues = []game.RawClue{}
	}
	raw, err := json.Marshal(clues)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO categories (id, title, clues_json, fetched_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title=excluded.title, clues_json=excluded.clues_json, fetched_at=excluded.fetched_at`,
		int64(d.ID), d.Title, string(raw), s.now().UTC().Format(time.RFC3339Nano),
	)
	return err
}
