// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"fmt"

	"mellium.im/koine/jid"
)

// IQ ("Information Query") is used as a general request response
// mechanism. IQ's are one-to-one, provide get and set semantics, and
// always require a response in the form of a result or an error.
type IQ struct {
	XMLName xml.Name `xml:"iq"`
	ID      string   `xml:"id,attr"`
	Inner   string   `xml:",innerxml"`
	To      jid.JID  `xml:"to,attr"`
	From    jid.JID  `xml:"from,attr"`
	Lang    string   `xml:"http://www.w3.org/XML/1998/namespace lang,attr,omitempty"`
	Type    IQType   `xml:"type,attr"`
}

// Result returns a new result IQ addressed back to the sender of iq with
// the same id.
func (iq IQ) Result() IQ {
	return IQ{
		ID:   iq.ID,
		To:   iq.From,
		From: iq.To,
		Lang: iq.Lang,
		Type: ResultIQ,
	}
}

// IQType is the type of an IQ stanza.
// It should normally be one of the constants defined in this package.
type IQType int

const (
	// GetIQ is used to query another entity for information.
	GetIQ IQType = iota

	// SetIQ is used to provide data to another entity, set new values, and
	// replace existing values.
	SetIQ

	// ResultIQ is sent in response to a successful get or set IQ.
	ResultIQ

	// ErrorIQ is sent to report that an error occurred during the delivery
	// or processing of a get or set IQ.
	ErrorIQ
)

// The wire names of each IQ type. The inverse table is derived from this
// one at init time so the two directions cannot drift apart.
var iqTypeNames = map[IQType]string{
	GetIQ:    "get",
	SetIQ:    "set",
	ResultIQ: "result",
	ErrorIQ:  "error",
}

var iqTypeValues = make(map[string]IQType, len(iqTypeNames))

func init() {
	for t, name := range iqTypeNames {
		iqTypeValues[name] = t
	}
}

// String returns the wire representation of the IQ type.
func (t IQType) String() string {
	return iqTypeNames[t]
}

// MarshalXMLAttr satisfies the xml.MarshalerAttr interface.
func (t IQType) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	s, ok := iqTypeNames[t]
	if !ok {
		return xml.Attr{}, fmt.Errorf("stanza: invalid iq type %d", int(t))
	}
	return xml.Attr{Name: name, Value: s}, nil
}

// UnmarshalXMLAttr satisfies the xml.UnmarshalerAttr interface.
func (t *IQType) UnmarshalXMLAttr(attr xml.Attr) error {
	v, ok := iqTypeValues[attr.Value]
	if !ok {
		return fmt.Errorf("stanza: invalid iq type %q", attr.Value)
	}
	*t = v
	return nil
}
