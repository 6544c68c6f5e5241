package catalog

import "context"

// MemoryRepository is an immutable in-process catalog. It is safe for
// concurrent use because nothing mutates it after construction.
type MemoryRepository struct {
	order []string
	items map[string]Item
}

// NewMemoryRepository builds a catalog from items. Later duplicates of an id
// replace earlier ones but keep the first position.
func NewMemoryRepository(items ...Item) *MemoryRepository {
	r := &MemoryRepository{items: make(map[string]Item, len(items))}
	for _, it := range items {
		if _, seen := r.items[it.ID]; !seen {
			r.order = append(r.order, it.ID)
		}
		r.items[it.ID] = it.Clone()
	}
	return r
}

func (r *MemoryRepository) Lookup(_ context.Context, id string) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it.Clone(), nil
}

func (r *MemoryRepository) Filter(_ context.Context, f Filter) ([]Item, error) {
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		if it := r.items[id]; f.Matches(it) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// Len returns the number of items.
func (r *MemoryRepository) Len() int { return len(r.order) }
