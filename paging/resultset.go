// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package paging

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownID is returned when a cursor or index refers to an item
	// that is not part of the result set.
	ErrUnknownID = errors.New("paging: unknown item id")

	// ErrDuplicateID is returned when a result set is constructed from a
	// collection in which two items share an id.
	ErrDuplicateID = errors.New("paging: duplicate item id")

	// ErrInvalidArgument is returned when a caller violates a windowing
	// precondition such as requesting fewer than one item.
	ErrInvalidArgument = errors.New("paging: invalid argument")

	// ErrRange is returned when an index is outside the bounds of the
	// result set.
	ErrRange = errors.New("paging: index out of range")

	// ErrInvalidRequest is returned when a paging request fails structural
	// validation.
	ErrInvalidRequest = errors.New("paging: invalid paging request")
)

// Item is one member of a result set. Implementations must return an
// identifier that is opaque, stable, and unique within the set.
type Item interface {
	ID() string
}

// ResultSet is an immutable ordered collection of uniquely identified
// items supporting windowed retrieval by index, by cursor, or from either
// edge. Once constructed it is never modified and may be read
// concurrently without synchronization.
type ResultSet[T Item] struct {
	items []T
	pos   map[string]int
}

// NewResultSet constructs a result set from items. If less is non-nil the
// items are ordered by it (stably); otherwise the order given is kept.
// Construction fails if any item is nil or if two items share an id.
func NewResultSet[T Item](items []T, less func(a, b T) bool) (*ResultSet[T], error) {
	set := &ResultSet[T]{
		items: make([]T, len(items)),
		pos:   make(map[string]int, len(items)),
	}
	copy(set.items, items)
	if less != nil {
		sort.SliceStable(set.items, func(i, j int) bool {
			return less(set.items[i], set.items[j])
		})
	}
	for i, item := range set.items {
		if any(item) == nil {
			return nil, fmt.Errorf("%w: nil item at position %d", ErrInvalidArgument, i)
		}
		id := item.ID()
		if _, ok := set.pos[id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		set.pos[id] = i
	}
	return set, nil
}

// Len returns the number of items in the set.
func (s *ResultSet[T]) Len() int {
	return len(s.items)
}

// Item returns the item at position i.
func (s *ResultSet[T]) Item(i int) (T, error) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrRange, i)
	}
	return s.items[i], nil
}

// Index returns the position of the item identified by id.
func (s *ResultSet[T]) Index(id string) (int, error) {
	i, ok := s.pos[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return i, nil
}

// Page returns up to max items starting at position from. The window is
// truncated, never padded, when fewer than max items remain; if from is at
// or past the end of the set the page is empty.
func (s *ResultSet[T]) Page(from, max int) ([]T, error) {
	if from < 0 {
		return nil, fmt.Errorf("%w: negative start %d", ErrInvalidArgument, from)
	}
	if max < 1 {
		return nil, fmt.Errorf("%w: non-positive page size %d", ErrInvalidArgument, max)
	}
	if from >= len(s.items) {
		return nil, nil
	}
	end := from + max
	if end > len(s.items) || end < 0 {
		end = len(s.items)
	}
	page := make([]T, end-from)
	copy(page, s.items[from:end])
	return page, nil
}

// First returns the first max items of the set.
func (s *ResultSet[T]) First(max int) ([]T, error) {
	return s.Page(0, max)
}

// Last returns a window of up to max items ending at the last item of the
// set.
func (s *ResultSet[T]) Last(max int) ([]T, error) {
	if max < 1 {
		return nil, fmt.Errorf("%w: non-positive page size %d", ErrInvalidArgument, max)
	}
	from := len(s.items) - max
	if from < 0 {
		from = 0
	}
	return s.Page(from, max)
}

// After returns up to max items starting immediately after the item
// identified by id (exclusive). A cursor on the final item yields an empty
// page.
func (s *ResultSet[T]) After(id string, max int) ([]T, error) {
	if max < 1 {
		return nil, fmt.Errorf("%w: non-positive page size %d", ErrInvalidArgument, max)
	}
	i, err := s.Index(id)
	if err != nil {
		return nil, err
	}
	return s.Page(i+1, max)
}

// Before returns a window of up to max items ending immediately before the
// item identified by id (exclusive). If fewer than max items precede it
// the window starts at the beginning of the set; a cursor on the first
// item yields an empty page.
func (s *ResultSet[T]) Before(id string, max int) ([]T, error) {
	if max < 1 {
		return nil, fmt.Errorf("%w: non-positive page size %d", ErrInvalidArgument, max)
	}
	i, err := s.Index(id)
	if err != nil {
		return nil, err
	}
	from := i - max
	if from < 0 {
		from = 0
	}
	if from == i {
		return nil, nil
	}
	page := make([]T, i-from)
	copy(page, s.items[from:i])
	return page, nil
}
