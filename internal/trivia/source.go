// internal/trivia/source.go
//
// Contract for the remote trivia service that supplies categories and clues.
// Implementations:
//   - Client:  HTTP client for the jeopardy API (client.go).
//   - Offline: embedded category pack for development and tests (offline.go).
//   - cache.Source (internal/cache) wraps any Source with a SQLite cache.

package trivia

import (
	"context"
	"errors"

	"github.com/robalobadob/jeopardy/internal/game"
)

var (
	// ErrRemoteServiceUnavailable covers transport failures and 5xx replies.
	ErrRemoteServiceUnavailable = errors.New("trivia: remote service unavailable")
	// ErrCategoryNotFound is returned for an unknown category id.
	ErrCategoryNotFound = errors.New("trivia: category not found")
	// ErrBadResponse is returned when a reply cannot be decoded.
	ErrBadResponse = errors.New("trivia: bad response")
)

// CategoryID identifies a category on the trivia service.
type CategoryID int64

// CategoryDetail is a category with every clue the service knows for it.
type CategoryDetail struct {
	ID    CategoryID     `json:"id"`
	Title string         `json:"title"`
	Clues []game.RawClue `json:"clues"`
}

// Board converts d into the input expected by game.Build.
func (d CategoryDetail) Board() game.CategoryDetail {
	return game.CategoryDetail{Title: d.Title, Clues: d.Clues}
}

// Source is the remote collaborator the session controller depends on.
type Source interface {
	// CategoryIDs returns up to poolSize category ids to sample a board from.
	CategoryIDs(ctx context.Context, poolSize int) ([]CategoryID, error)

	// Category returns the title and all clues of one category.
	Category(ctx context.Context, id CategoryID) (CategoryDetail, error)
}
