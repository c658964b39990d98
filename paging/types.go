// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package paging

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"mellium.im/xmlstream"
)

// Request is a paging directive: a page size plus at most one of the three
// positional selectors.
//
// A Max of zero requests a count of the items without returning any of
// them. After selects the page starting just past the item it names;
// Before selects the page ending just short of the item it names, or, if
// it points at an empty string, the last page; Index selects the page
// starting at an absolute position.
type Request struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/rsm set"`
	Max     uint64
	After   string
	Before  *string
	Index   *uint64
}

// Validate checks that at most one of the positional selectors is set.
func (req *Request) Validate() error {
	var selectors int
	if req.After != "" {
		selectors++
	}
	if req.Before != nil {
		selectors++
	}
	if req.Index != nil {
		selectors++
	}
	if selectors > 1 {
		return fmt.Errorf("%w: more than one of after, before, and index", ErrInvalidRequest)
	}
	return nil
}

// TokenReader implements xmlstream.Marshaler.
func (req *Request) TokenReader() xml.TokenReader {
	payloads := []xml.TokenReader{xmlstream.Wrap(
		xmlstream.Token(xml.CharData(strconv.FormatUint(req.Max, 10))),
		xml.StartElement{Name: xml.Name{Local: "max"}},
	)}
	if req.After != "" {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(req.After)),
			xml.StartElement{Name: xml.Name{Local: "after"}},
		))
	}
	if req.Before != nil {
		// An empty before element is meaningful: it requests the last page.
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(*req.Before)),
			xml.StartElement{Name: xml.Name{Local: "before"}},
		))
	}
	if req.Index != nil {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(strconv.FormatUint(*req.Index, 10))),
			xml.StartElement{Name: xml.Name{Local: "index"}},
		))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(payloads...),
		xml.StartElement{Name: xml.Name{Space: NS, Local: "set"}},
	)
}

// WriteXML implements xmlstream.WriterTo.
func (req *Request) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, req.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (req *Request) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := req.WriteXML(e)
	return err
}

// UnmarshalXML implements xml.Unmarshaler. Decoding is strict: a child
// element other than max, after, before, or index, a repeated child, a
// missing or non-numeric max, a non-numeric index, or more than one
// selector all make the element invalid.
func (req *Request) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*req = Request{XMLName: start.Name}
	var sawMax, sawAfter, sawBefore, sawIndex bool
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		var child xml.StartElement
		switch t := tok.(type) {
		case xml.StartElement:
			child = t
		case xml.EndElement:
			if !sawMax {
				return fmt.Errorf("%w: missing max element", ErrInvalidRequest)
			}
			return req.Validate()
		default:
			continue
		}

		if child.Name.Space != "" && child.Name.Space != NS {
			return fmt.Errorf("%w: unexpected child element %q", ErrInvalidRequest, child.Name.Local)
		}
		var v struct {
			Data string `xml:",chardata"`
		}
		if err := d.DecodeElement(&v, &child); err != nil {
			return err
		}
		data := strings.TrimSpace(v.Data)

		switch child.Name.Local {
		case "max":
			if sawMax {
				return fmt.Errorf("%w: repeated max element", ErrInvalidRequest)
			}
			sawMax = true
			n, err := strconv.ParseUint(data, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: max is not a non-negative integer: %q", ErrInvalidRequest, data)
			}
			req.Max = n
		case "after":
			if sawAfter {
				return fmt.Errorf("%w: repeated after element", ErrInvalidRequest)
			}
			sawAfter = true
			req.After = v.Data
		case "before":
			if sawBefore {
				return fmt.Errorf("%w: repeated before element", ErrInvalidRequest)
			}
			sawBefore = true
			before := v.Data
			req.Before = &before
		case "index":
			if sawIndex {
				return fmt.Errorf("%w: repeated index element", ErrInvalidRequest)
			}
			sawIndex = true
			n, err := strconv.ParseUint(data, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: index is not a non-negative integer: %q", ErrInvalidRequest, data)
			}
			req.Index = &n
		default:
			return fmt.Errorf("%w: unexpected child element %q", ErrInvalidRequest, child.Name.Local)
		}
	}
}

// Set describes a page of a result set: the total number of items and, for
// non-empty pages, the ids of the first and last item returned together
// with the absolute position of the first.
type Set struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/rsm set"`
	First   struct {
		ID    string  `xml:",chardata"`
		Index *uint64 `xml:"index,attr,omitempty"`
	} `xml:"first"`
	Last  string  `xml:"last"`
	Count *uint64 `xml:"count"`
}

// TokenReader implements xmlstream.Marshaler. The first and last elements
// are omitted when the page was empty.
func (s *Set) TokenReader() xml.TokenReader {
	var payloads []xml.TokenReader
	if s.First.ID != "" {
		start := xml.StartElement{Name: xml.Name{Local: "first"}}
		if s.First.Index != nil {
			start.Attr = append(start.Attr, xml.Attr{
				Name:  xml.Name{Local: "index"},
				Value: strconv.FormatUint(*s.First.Index, 10),
			})
		}
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(s.First.ID)),
			start,
		))
	}
	if s.Last != "" {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(s.Last)),
			xml.StartElement{Name: xml.Name{Local: "last"}},
		))
	}
	if s.Count != nil {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(strconv.FormatUint(*s.Count, 10))),
			xml.StartElement{Name: xml.Name{Local: "count"}},
		))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(payloads...),
		xml.StartElement{Name: xml.Name{Space: NS, Local: "set"}},
	)
}

// WriteXML implements xmlstream.WriterTo.
func (s *Set) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, s.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (s *Set) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := s.WriteXML(e)
	return err
}
