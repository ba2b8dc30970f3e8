// internal/game/types.go
//
// Core type definitions for the trivia board.
// Defines:
//   - RevealState: lifecycle of a single clue's display (hidden/question/answer).
//   - Clue, Category, CategorySet: the board model for one game.
//   - CategoryDetail, RawClue: the input a board is assembled from.
//   - Sentinel errors for sampling, assembly and coordinate lookup.

package game

import (
	"errors"
	"fmt"
)

// HiddenText is shown in a cell whose clue has not been revealed yet.
const HiddenText = "?"

var (
	// ErrInvalidSampleSize is returned when more items are requested than exist.
	ErrInvalidSampleSize = errors.New("invalid sample size")
	// ErrInsufficientClues is returned when a category cannot fill its column.
	ErrInsufficientClues = errors.New("insufficient clues")
	// ErrInvalidCategory is returned for empty titles, questions or answers.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrIndexOutOfRange is returned for a coordinate outside the board.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// RevealState represents how much of a clue is currently shown.
// Possible values:
//   - Hidden:   nothing shown, the cell displays "?".
//   - Question: the question text is shown.
//   - Answer:   the answer text is shown (terminal).
type RevealState uint8

const (
	Hidden RevealState = iota
	Question
	Answer
)

func (s RevealState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Question:
		return "question"
	case Answer:
		return "answer"
	default:
		return fmt.Sprintf("RevealState(%d)", uint8(s))
	}
}

// MarshalText encodes the state as its lowercase name.
func (s RevealState) MarshalText() ([]byte, error) {
	switch s {
	case Hidden, Question, Answer:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("game: unknown reveal state %d", uint8(s))
}

// UnmarshalText decodes a lowercase state name.
func (s *RevealState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "hidden":
		*s = Hidden
	case "question":
		*s = Question
	case "answer":
		*s = Answer
	default:
		return fmt.Errorf("game: unknown reveal state %q", b)
	}
	return nil
}

// Clue is one question/answer pair with its reveal state.
type Clue struct {
	Question string
	Answer   string
	State    RevealState
}

// Category is a titled, fixed-size column of clues.
type Category struct {
	Title string
	clues []Clue
}

// Clues returns the number of clues in the column.
func (c *Category) Clues() int { return len(c.clues) }

// RawClue is a clue as delivered by the trivia source, before selection.
type RawClue struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CategoryDetail is a category as delivered by the trivia source.
type CategoryDetail struct {
	Title string    `json:"title"`
	Clues []RawClue `json:"clues"`
}
