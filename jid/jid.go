// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"mellium.im/koine/prep"
)

var (
	// ErrMalformed is returned when a string cannot be split into the parts
	// of an address.
	ErrMalformed = errors.New("jid: malformed address")

	// ErrNoResource is returned when the full form of an address without a
	// resourcepart is requested.
	ErrNoResource = errors.New("jid: address has no resourcepart")
)

// JID represents an XMPP address comprising a localpart, domainpart, and
// resourcepart. The zero value is not a valid address. JIDs are immutable
// once constructed and safe for concurrent use.
type JID struct {
	localpart    string
	domainpart   string
	resourcepart string
}

// Unsafe constructs a JID from parts that are already known to be in
// canonical form, for example because they were read back from a value
// this package produced earlier. No preparation or validation is
// performed.
func Unsafe(localpart, domainpart, resourcepart string) JID {
	return JID{
		localpart:    localpart,
		domainpart:   domainpart,
		resourcepart: resourcepart,
	}
}

// Localpart gets the localpart of a JID (eg. "username").
func (j JID) Localpart() string {
	return j.localpart
}

// Domainpart gets the domainpart of a JID (eg. "example.net").
func (j JID) Domainpart() string {
	return j.domainpart
}

// Resourcepart gets the resourcepart of a JID.
func (j JID) Resourcepart() string {
	return j.resourcepart
}

// Bare returns a copy of the JID without a resourcepart. This is sometimes
// called a "bare" JID.
//
// If the localpart is absent the bare form is the domainpart alone, with
// no "@" separator, so that the rendered form always parses back to an
// equal JID.
func (j JID) Bare() JID {
	return JID{
		localpart:  j.localpart,
		domainpart: j.domainpart,
	}
}

// Domain returns a copy of the JID without a localpart or resourcepart.
func (j JID) Domain() JID {
	return JID{domainpart: j.domainpart}
}

// String converts a JID to its string representation,
// [localpart@]domainpart[/resourcepart].
func (j JID) String() string {
	var b strings.Builder
	b.Grow(len(j.localpart) + len(j.domainpart) + len(j.resourcepart) + 2)
	if j.localpart != "" {
		b.WriteString(j.localpart)
		b.WriteByte('@')
	}
	b.WriteString(j.domainpart)
	if j.resourcepart != "" {
		b.WriteByte('/')
		b.WriteString(j.resourcepart)
	}
	return b.String()
}

// Full converts a JID to its full string representation, which always
// includes the resourcepart. It returns ErrNoResource if the resourcepart
// is absent.
func (j JID) Full() (string, error) {
	if j.resourcepart == "" {
		return "", ErrNoResource
	}
	return j.String(), nil
}

// Network satisfies the net.Addr interface by returning the name of the
// network ("xmpp").
func (JID) Network() string {
	return "xmpp"
}

// Equal reports whether two JIDs have the same canonical parts.
func (j JID) Equal(j2 JID) bool {
	return j == j2
}

// Compare orders two JIDs, comparing the domainpart first, then the
// localpart, then the resourcepart. An absent part sorts before any
// present part. It returns -1, 0, or 1 when j sorts before, equal to, or
// after j2.
func (j JID) Compare(j2 JID) int {
	if c := strings.Compare(j.domainpart, j2.domainpart); c != 0 {
		return c
	}
	if c := strings.Compare(j.localpart, j2.localpart); c != 0 {
		return c
	}
	return strings.Compare(j.resourcepart, j2.resourcepart)
}

// MarshalXML satisfies the xml.Marshaler interface and marshals the JID as
// XML chardata.
func (j JID) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeToken(xml.CharData(j.String())); err != nil {
		return err
	}
	if err := e.EncodeToken(start.End()); err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface and unmarshals the
// JID from the element's chardata.
func (j *JID) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	data := struct {
		CharData string `xml:",chardata"`
	}{}
	if err := d.DecodeElement(&data, &start); err != nil {
		return err
	}
	j2, err := Parse(data.CharData)
	if err != nil {
		return err
	}
	*j = j2
	return nil
}

// MarshalXMLAttr satisfies the xml.MarshalerAttr interface and marshals
// the JID as an XML attribute. The zero JID marshals to no attribute at
// all.
func (j JID) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if j.domainpart == "" {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: j.String()}, nil
}

// UnmarshalXMLAttr satisfies the xml.UnmarshalerAttr interface and
// unmarshals an XML attribute into a valid JID (or returns an error). An
// empty attribute leaves the JID untouched.
func (j *JID) UnmarshalXMLAttr(attr xml.Attr) error {
	if attr.Value == "" {
		return nil
	}
	j2, err := Parse(attr.Value)
	if err != nil {
		return err
	}
	*j = j2
	return nil
}

// SplitString splits out the localpart, domainpart, and resourcepart from
// a string representation of an address. The parts are not prepared or
// validated beyond the split itself.
//
// Separators are matched before any canonicalization is applied, since
// preparation may decompose code points into the separator characters. A
// trailing dot on the domainpart is ignored. The resourcepart may be
// returned empty; constructing a JID treats an empty resourcepart as
// absent.
func SplitString(s string) (localpart, domainpart, resourcepart string, err error) {
	// Strip off the resourcepart first: everything from the first '/' to
	// the end of the string.
	if sep := strings.Index(s, "/"); sep != -1 {
		resourcepart = s[sep+1:]
		s = s[:sep]
	}

	// Then the localpart: everything up to the first '@'.
	switch sep := strings.Index(s, "@"); sep {
	case -1:
		domainpart = s
	case 0:
		return "", "", "", fmt.Errorf("%w: empty localpart", ErrMalformed)
	default:
		localpart = s[:sep]
		domainpart = s[sep+1:]
	}

	// A final label separator (dot) on the domainpart is stripped before
	// the address is used for comparison or routing.
	domainpart = strings.TrimSuffix(domainpart, ".")

	if domainpart == "" {
		return "", "", "", fmt.Errorf("%w: empty domainpart", ErrMalformed)
	}
	return localpart, domainpart, resourcepart, nil
}

// RFC 7622 §3.3.1 lists characters that are still not allowed in a
// localpart even though the profile it is prepared with permits them.
const forbiddenLocalpart = `"&'/:<>@`

func commonChecks(localpart, domainpart, resourcepart string) error {
	if len(localpart) > prep.MaxPartLen {
		return fmt.Errorf("%w: localpart is larger than %d bytes", ErrMalformed, prep.MaxPartLen)
	}
	if strings.ContainsAny(localpart, forbiddenLocalpart) {
		return fmt.Errorf("%w: localpart contains forbidden characters", ErrMalformed)
	}
	if len(resourcepart) > prep.MaxPartLen {
		return fmt.Errorf("%w: resourcepart is larger than %d bytes", ErrMalformed, prep.MaxPartLen)
	}
	if l := len(domainpart); l < 1 || l > prep.MaxPartLen {
		return fmt.Errorf("%w: domainpart must be between 1 and %d bytes", ErrMalformed, prep.MaxPartLen)
	}
	return nil
}
