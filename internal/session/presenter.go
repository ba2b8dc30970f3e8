package session

import "github.com/robalobadob/jeopardy/internal/game"

// Presenter is the presentation layer a Controller reports to.
//
// Calls are made while the controller holds its lock so they arrive in the
// order the changes happened. Implementations must not block and must not
// call back into the Controller.
type Presenter interface {
	// SessionStateChanged reports a transition (show/hide loading, show error).
	SessionStateChanged(snap Snapshot)
	// Render delivers a full board after a successful start.
	Render(board game.BoardView)
	// CellChanged delivers the new text of one activated cell.
	CellChanged(cell CellResult)
}

// NopPresenter ignores every notification.
type NopPresenter struct{}

func (NopPresenter) SessionStateChanged(Snapshot) {}
func (NopPresenter) Render(game.BoardView)        {}
func (NopPresenter) CellChanged(CellResult)       {}
