// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package paging implements result set management: windowed retrieval over
// ordered collections of uniquely identified items and the wire form of
// the paging requests and responses that drive it.
package paging // import "mellium.im/koine/paging"

import (
	"encoding/xml"
	"fmt"
	"math"

	"mellium.im/xmlstream"
)

// Namespaces used by this package.
const (
	NS = "http://jabber.org/protocol/rsm"
)

// Apply validates req and returns the page of the set that it addresses.
//
// A request with Max of zero yields an empty page; pair it with Response
// to report the total count without returning items. An index selector
// resolves against the current bounds of the set, so an index past the end
// is a range error rather than an empty page.
func (s *ResultSet[T]) Apply(req *Request) ([]T, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Max == 0 {
		return nil, nil
	}
	max := math.MaxInt
	if req.Max < uint64(math.MaxInt) {
		max = int(req.Max)
	}

	switch {
	case req.Index != nil:
		if *req.Index == 0 {
			return s.First(max)
		}
		if *req.Index > uint64(s.Len()) {
			return nil, fmt.Errorf("%w: %d", ErrRange, *req.Index)
		}
		// The item just before the requested offset anchors the window.
		anchor, err := s.Item(int(*req.Index) - 1)
		if err != nil {
			return nil, err
		}
		return s.After(anchor.ID(), max)
	case req.Before != nil:
		if *req.Before == "" {
			return s.Last(max)
		}
		return s.Before(*req.Before, max)
	case req.After != "":
		return s.After(req.After, max)
	}
	return s.First(max)
}

// Response builds the metadata describing a page previously returned by
// Apply. The count is always present; the first and last ids are included
// only when the page is non-empty.
func (s *ResultSet[T]) Response(page []T) *Set {
	count := uint64(s.Len())
	set := &Set{Count: &count}
	if len(page) == 0 {
		return set
	}
	set.First.ID = page[0].ID()
	if i, err := s.Index(set.First.ID); err == nil {
		index := uint64(i)
		set.First.Index = &index
	}
	set.Last = page[len(page)-1].ID()
	return set
}

// Iter provides a mechanism for iterating over the children of an XML
// element. Successive calls to Next will step through each child,
// returning its start element and a reader that is limited to the
// remainder of the child.
//
// If one of the children is a paging set, it is skipped and the paging
// methods will return requests that can be used to fetch the next and/or
// previous pages.
type Iter struct {
	iter *xmlstream.Iter
	next *Request
	prev *Request
	cur  *Set
	err  error
	max  uint64
}

// NewIter returns a new iterator that iterates over the children of the
// most recent start element already consumed from r.
func NewIter(r xml.TokenReader, max uint64) *Iter {
	return WrapIter(xmlstream.NewIter(r), max)
}

// WrapIter returns a new iterator that supports paging from an existing
// xmlstream.Iter.
func WrapIter(iter *xmlstream.Iter, max uint64) *Iter {
	return &Iter{
		iter: iter,
		max:  max,
	}
}

// Close indicates that we are finished with the given iterator. Calling it
// multiple times has no effect.
//
// If the underlying TokenReader is also an io.Closer, Close calls the
// readers Close method.
func (i *Iter) Close() error {
	return i.iter.Close()
}

// Current returns a reader over the most recent child.
func (i *Iter) Current() (*xml.StartElement, xml.TokenReader) {
	return i.iter.Current()
}

// Err returns the last error encountered by the iterator (if any).
func (i *Iter) Err() error {
	if i.err != nil {
		return i.err
	}
	return i.iter.Err()
}

// Next returns true if there are more items to decode.
func (i *Iter) Next() bool {
	if i.err != nil {
		return false
	}
	hasNext := i.iter.Next()
	if hasNext {
		start, r := i.iter.Current()
		if start != nil && start.Name.Local == "set" && start.Name.Space == NS {
			i.next = nil
			i.prev = nil
			i.cur = &Set{}
			i.err = xml.NewTokenDecoder(xmlstream.MultiReader(xmlstream.Token(*start), r)).Decode(i.cur)
			if i.err != nil {
				return false
			}
			if i.cur.First.ID != "" {
				before := i.cur.First.ID
				i.prev = &Request{
					Before: &before,
					Max:    i.max,
				}
			}
			if i.cur.Last != "" {
				i.next = &Request{
					After: i.cur.Last,
					Max:   i.max,
				}
			}
			return i.Next()
		}
	}
	return hasNext
}

// NextPage returns a request that queries for the page after the one that
// was iterated over.
//
// It is only guaranteed to be set once iteration is finished, or when the
// iterator is closed without error and may be nil.
func (i *Iter) NextPage() *Request {
	return i.next
}

// PreviousPage returns a request that queries for the page before the one
// that was iterated over.
//
// It is only guaranteed to be set once iteration is finished, or when the
// iterator is closed without error and may be nil.
func (i *Iter) PreviousPage() *Request {
	return i.prev
}

// CurrentPage returns information about the current page.
//
// It is only guaranteed to be set once iteration is finished, or when the
// iterator is closed without error and may be nil.
func (i *Iter) CurrentPage() *Set {
	return i.cur
}
