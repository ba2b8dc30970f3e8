// Package daily derives the shared "board of the day": every daily game
// started on the same UTC date samples from the same random seed.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/jeopardy/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic seed for a date using HMAC(salt, YYYY-MM-DD).
// The salt keeps upcoming boards unpredictable to clients.
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes are plenty of entropy for a math/rand seed
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// Sampler returns a sampler seeded for date.
func Sampler(date time.Time, salt string) *game.Sampler {
	return game.NewSampler(Seed(date, salt))
}
