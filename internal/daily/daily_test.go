package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/jeopardy/internal/game"
)

func TestDateKeyUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	assert.Equal(t, "2026-03-01", DateKey(time.Date(2026, 3, 2, 5, 0, 0, 0, loc)))
}

func TestSeedStablePerDay(t *testing.T) {
	morning := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	nextDay := morning.Add(24 * time.Hour)

	assert.Equal(t, Seed(morning, "salt"), Seed(evening, "salt"))
	assert.NotEqual(t, Seed(morning, "salt"), Seed(nextDay, "salt"))
	assert.NotEqual(t, Seed(morning, "salt"), Seed(morning, "pepper"))
}

func TestSamplerSameBoardSameDay(t *testing.T) {
	day := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	a, err := game.SampleWith(Sampler(day, "s"), items, 6)
	require.NoError(t, err)
	b, err := game.SampleWith(Sampler(day.Add(time.Hour), "s"), items, 6)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
