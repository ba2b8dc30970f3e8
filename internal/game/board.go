// internal/game/board.go
//
// Board assembly for a single game.
// Responsibilities:
//   - Build a CategorySet from fetched category details, sampling a fixed
//     number of clues per category and starting every clue Hidden.
//   - Resolve (categoryIndex, clueIndex) coordinates to clue references.
//   - Produce a JSON-friendly view of the board for presentation.
//
// A CategorySet never changes shape after Build. A new game gets a new set;
// the previous one is dropped wholesale, so no reveal state survives a restart.

package game

import (
	"fmt"
	"strings"
)

// CategorySet is the full board for one game: ordered columns of clues.
type CategorySet struct {
	generation uint64
	categories []Category
}

// Build assembles a board from details, one column per detail in order.
// Each column gets cluesPerCategory clues sampled from the raw clues.
//
// Errors:
//   - ErrInsufficientClues (wrapping ErrInvalidSampleSize) when a category has
//     fewer raw clues than cluesPerCategory.
//   - ErrInvalidCategory when a title, question or answer is empty.
func Build(details []CategoryDetail, cluesPerCategory int, s *Sampler) (*CategorySet, error) {
	cats := make([]Category, 0, len(details))
	for i, d := range details {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: category %d has no title", ErrInvalidCategory, i)
		}
		picked, err := SampleWith(s, d.Clues, cluesPerCategory)
		if err != nil {
			return nil, fmt.Errorf("%w: category %q: %w", ErrInsufficientClues, title, err)
		}
		clues := make([]Clue, len(picked))
		for j, rc := range picked {
			if rc.Question == "" || rc.Answer == "" {
				return nil, fmt.Errorf("%w: category %q has an empty clue", ErrInvalidCategory, title)
			}
			clues[j] = Clue{Question: rc.Question, Answer: rc.Answer, State: Hidden}
		}
		cats = append(cats, Category{Title: title, clues: clues})
	}
	return &CategorySet{categories: cats}, nil
}

// WithGeneration tags the set with the build attempt that produced it.
func (cs *CategorySet) WithGeneration(gen uint64) *CategorySet {
	cs.generation = gen
	return cs
}

// Generation returns the build tag, 0 if untagged.
func (cs *CategorySet) Generation() uint64 { return cs.generation }

// Len returns the number of categories (board width).
func (cs *CategorySet) Len() int { return len(cs.categories) }

// Category returns the column at i.
func (cs *CategorySet) Category(i int) (*Category, error) {
	if i < 0 || i >= len(cs.categories) {
		return nil, fmt.Errorf("%w: category %d of %d", ErrIndexOutOfRange, i, len(cs.categories))
	}
	return &cs.categories[i], nil
}

// ClueAt returns a reference to the clue at the given coordinate.
func (cs *CategorySet) ClueAt(categoryIndex, clueIndex int) (*Clue, error) {
	cat, err := cs.Category(categoryIndex)
	if err != nil {
		return nil, err
	}
	if clueIndex < 0 || clueIndex >= len(cat.clues) {
		return nil, fmt.Errorf("%w: clue %d of %d in category %d",
			ErrIndexOutOfRange, clueIndex, len(cat.clues), categoryIndex)
	}
	return &cat.clues[clueIndex], nil
}

// ------------------------------- view --------------------------------------

// CellView is one rendered cell.
type CellView struct {
	Text  string      `json:"text"`
	State RevealState `json:"state"`
}

// ColumnView is one rendered category.
type ColumnView struct {
	Title string     `json:"title"`
	Cells []CellView `json:"cells"`
}

// BoardView is a snapshot of the whole board for rendering.
// Columns are categories; Cells within a column are top to bottom.
type BoardView struct {
	Generation uint64       `json:"generation"`
	Columns    []ColumnView `json:"columns"`
}

// View snapshots the board. The result shares no memory with cs.
func (cs *CategorySet) View() BoardView {
	v := BoardView{Generation: cs.generation, Columns: make([]ColumnView, len(cs.categories))}
	for i, cat := range cs.categories {
		col := ColumnView{Title: cat.Title, Cells: make([]CellView, len(cat.clues))}
		for j := range cat.clues {
			col.Cells[j] = CellView{Text: cat.clues[j].DisplayText(), State: cat.clues[j].State}
		}
		v.Columns[i] = col
	}
	return v
}
