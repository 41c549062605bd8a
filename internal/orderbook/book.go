package orderbook

import "github.com/iminoaru/zaphft/internal/domain"

// Book holds the most recent snapshot and counts updates.
type Book struct {
	current *domain.Snapshot
	updates int
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{}
}

// Update replaces the current snapshot.
func (b *Book) Update(snap *domain.Snapshot) {
	b.current = snap
	b.updates++
}

// Current returns a view over the current snapshot, or false when empty.
func (b *Book) Current() (View, bool) {
	if b.current == nil {
		return View{}, false
	}
	return NewView(b.current), true
}

// UpdateCount returns the number of updates applied.
func (b *Book) UpdateCount() int {
	return b.updates
}

// IsEmpty reports whether no snapshot has been applied yet.
func (b *Book) IsEmpty() bool {
	return b.current == nil
}
