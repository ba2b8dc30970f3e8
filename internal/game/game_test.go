package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawClues(prefix string, n int) []RawClue {
	out := make([]RawClue, n)
	for i := range out {
		out[i] = RawClue{
			Question: fmt.Sprintf("%s question %d", prefix, i),
			Answer:   fmt.Sprintf("%s answer %d", prefix, i),
		}
	}
	return out
}

func details(numCats, cluesEach int) []CategoryDetail {
	out := make([]CategoryDetail, numCats)
	for i := range out {
		title := fmt.Sprintf("Category %d", i)
		out[i] = CategoryDetail{Title: title, Clues: rawClues(title, cluesEach)}
	}
	return out
}

// ------------------------------ sampling -----------------------------------

func TestSampleDistinctPositions(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	rnd := rand.New(rand.NewSource(7))

	for k := 0; k <= len(items); k++ {
		got, err := Sample(rnd, items, k)
		require.NoError(t, err)
		require.Len(t, got, k)

		seen := make(map[int]bool, k)
		for _, v := range got {
			assert.False(t, seen[v], "position %d drawn twice (k=%d)", v, k)
			seen[v] = true
		}
	}
}

func TestSampleDuplicateValuesAreDistinctPositions(t *testing.T) {
	items := []string{"a", "a", "a"}
	got, err := Sample(rand.New(rand.NewSource(1)), items, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "a"}, got)
}

func TestSampleTooMany(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, k := range []int{4, 5, 100} {
		_, err := Sample(rnd, []int{1, 2, 3}, k)
		assert.ErrorIs(t, err, ErrInvalidSampleSize)
	}
	_, err := Sample(rnd, []int{1}, -1)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestSampleDeterministicForSeed(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	a, err := Sample(rand.New(rand.NewSource(42)), items, 4)
	require.NoError(t, err)
	b, err := Sample(rand.New(rand.NewSource(42)), items, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampleDoesNotMutateInput(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	_, err := Sample(rand.New(rand.NewSource(3)), items, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

// ------------------------------ clue state ---------------------------------

func TestAdvanceLifecycle(t *testing.T) {
	c := &Clue{Question: "2+2", Answer: "4"}
	assert.Equal(t, HiddenText, c.DisplayText())

	assert.Equal(t, "2+2", Advance(c))
	assert.Equal(t, Question, c.State)
	assert.Equal(t, "2+2", c.DisplayText())

	assert.Equal(t, "4", Advance(c))
	assert.Equal(t, Answer, c.State)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "4", Advance(c))
		assert.Equal(t, Answer, c.State)
		assert.Equal(t, "4", c.DisplayText())
	}
}

func TestRevealStateJSON(t *testing.T) {
	b, err := json.Marshal(CellView{Text: "?", State: Hidden})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"?","state":"hidden"}`, string(b))

	var s RevealState
	require.NoError(t, s.UnmarshalText([]byte("answer")))
	assert.Equal(t, Answer, s)
	assert.Error(t, s.UnmarshalText([]byte("showing")))
}

// ------------------------------- board -------------------------------------

func TestBuildDimensions(t *testing.T) {
	cs, err := Build(details(6, 9), 5, NewSampler(1))
	require.NoError(t, err)
	require.Equal(t, 6, cs.Len())

	for i := 0; i < cs.Len(); i++ {
		cat, err := cs.Category(i)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Category %d", i), cat.Title)
		assert.Equal(t, 5, cat.Clues())
		for j := 0; j < 5; j++ {
			c, err := cs.ClueAt(i, j)
			require.NoError(t, err)
			assert.Equal(t, Hidden, c.State)
			assert.NotEmpty(t, c.Question)
			assert.NotEmpty(t, c.Answer)
		}
	}
}

func TestBuildExactlyEnoughClues(t *testing.T) {
	cs, err := Build(details(2, 5), 5, NewSampler(9))
	require.NoError(t, err)
	assert.Equal(t, 2, cs.Len())
}

func TestBuildInsufficientClues(t *testing.T) {
	in := details(6, 5)
	in[3].Clues = in[3].Clues[:4]

	_, err := Build(in, 5, NewSampler(1))
	assert.ErrorIs(t, err, ErrInsufficientClues)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestBuildRejectsEmptyText(t *testing.T) {
	in := details(1, 5)
	in[0].Title = "  "
	_, err := Build(in, 5, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	in = details(1, 5)
	for i := range in[0].Clues {
		in[0].Clues[i].Answer = ""
	}
	_, err = Build(in, 5, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestClueAtOutOfRange(t *testing.T) {
	cs, err := Build(details(6, 5), 5, NewSampler(1))
	require.NoError(t, err)

	for _, tc := range [][2]int{{-1, 0}, {6, 0}, {0, -1}, {0, 5}, {100, 100}} {
		_, err := cs.ClueAt(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "coordinate %v", tc)
	}
}

func TestClueAtMutatesInPlace(t *testing.T) {
	cs, err := Build(details(6, 5), 5, NewSampler(1))
	require.NoError(t, err)

	c, err := cs.ClueAt(2, 3)
	require.NoError(t, err)
	q := Advance(c)

	again, err := cs.ClueAt(2, 3)
	require.NoError(t, err)
	assert.Equal(t, Question, again.State)

	v := cs.View()
	assert.Equal(t, q, v.Columns[2].Cells[3].Text)
	assert.Equal(t, HiddenText, v.Columns[2].Cells[2].Text)
}

func TestViewIsDetached(t *testing.T) {
	cs, err := Build(details(1, 5), 5, NewSampler(1))
	require.NoError(t, err)
	cs.WithGeneration(4)

	v := cs.View()
	assert.EqualValues(t, 4, v.Generation)
	v.Columns[0].Cells[0].Text = "changed"

	c, err := cs.ClueAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, HiddenText, c.DisplayText())
}
