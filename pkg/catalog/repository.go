package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Lookup for unknown item ids.
var ErrNotFound = errors.New("catalog: item not found")

// Filter narrows a catalog listing. Empty fields impose no constraint.
type Filter struct {
	Category string
	City     string
}

// Repository is the read-only contract the pricing engine depends on.
type Repository interface {
	// Lookup returns the item with the given id or ErrNotFound.
	Lookup(ctx context.Context, id string) (Item, error)
	// Filter returns the items matching f in catalog order.
	Filter(ctx context.Context, f Filter) ([]Item, error)
}

// Matches applies f to it: the category must contain f.Category
// (case-insensitively) and the item must serve f.City.
func (f Filter) Matches(it Item) bool {
	if c := Fold(f.Category); c != "" && !strings.Contains(Fold(it.Category), c) {
		return false
	}
	if strings.TrimSpace(f.City) != "" && !it.ServesCity(f.City) {
		return false
	}
	return true
}
