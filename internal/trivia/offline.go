package trivia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/robalobadob/jeopardy/assets"
)

// Offline serves categories from an in-memory pack. It never touches the network.
type Offline struct {
	order []CategoryID
	byID  map[CategoryID]CategoryDetail
}

// NewOffline builds an Offline source from details, keeping their order.
func NewOffline(details []CategoryDetail) *Offline {
	o := &Offline{byID: make(map[CategoryID]CategoryDetail, len(details))}
	for _, d := range details {
		if _, dup := o.byID[d.ID]; !dup {
			o.order = append(o.order, d.ID)
		}
		o.byID[d.ID] = d
	}
	return o
}

// LoadOffline builds an Offline source from the embedded category pack.
func LoadOffline() (*Offline, error) {
	raw, err := assets.CategoryPack()
	if err != nil {
		return nil, fmt.Errorf("read category pack: %w", err)
	}
	var details []CategoryDetail
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("parse category pack: %w", err)
	}
	return NewOffline(details), nil
}

// CategoryIDs returns the first poolSize ids of the pack.
func (o *Offline) CategoryIDs(ctx context.Context, poolSize int) ([]CategoryID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := min(poolSize, len(o.order))
	if n < 0 {
		n = 0
	}
	return append([]CategoryID(nil), o.order[:n]...), nil
}

// Category returns a copy of one category from the pack.
func (o *Offline) Category(ctx context.Context, id CategoryID) (CategoryDetail, error) {
	if err := ctx.Err(); err != nil {
		return CategoryDetail{}, err
	}
	d, ok := o.byID[id]
	if !ok {
		return CategoryDetail{}, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	d.Clues = append(d.Clues[:0:0], d.Clues...)
	return d, nil
}
