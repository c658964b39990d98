// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"

	"mellium.im/koine/internal/ns"
	"mellium.im/koine/jid"
)

// ErrorType is the type of a stanza error payload.
// It should normally be one of the constants defined in this package.
type ErrorType string

const (
	// Cancel indicates that the error cannot be remedied and the operation
	// should not be retried.
	Cancel ErrorType = "cancel"

	// Auth indicates that an operation should be retried after providing
	// credentials.
	Auth ErrorType = "auth"

	// Continue indicates that the operation can proceed (the condition was
	// only a warning).
	Continue ErrorType = "continue"

	// Modify indicates that the operation can be retried after changing
	// the data sent.
	Modify ErrorType = "modify"

	// Wait indicates that an error is temporary and may be retried.
	Wait ErrorType = "wait"
)

// Condition represents a more specific stanza error condition that can be
// encapsulated by an <error/> element.
type Condition string

// A list of stanza error conditions defined in RFC 6120 §8.3.3.
const (
	// BadRequest is returned for stanzas containing XML that does not
	// conform to the appropriate schema or cannot be processed.
	BadRequest Condition = "bad-request"

	// Conflict indicates that a resource already exists with the same name
	// or address.
	Conflict Condition = "conflict"

	// FeatureNotImplemented indicates that the feature represented in the
	// stanza is not implemented by the recipient.
	FeatureNotImplemented Condition = "feature-not-implemented"

	// Forbidden indicates that the requesting entity does not possess the
	// necessary permissions to perform the action.
	Forbidden Condition = "forbidden"

	// Gone indicates that the recipient can no longer be contacted at this
	// address, typically permanently.
	Gone Condition = "gone"

	// InternalServerError indicates a misconfiguration or other internal
	// error on the server.
	InternalServerError Condition = "internal-server-error"

	// ItemNotFound indicates that the addressed JID or item requested
	// cannot be found.
	ItemNotFound Condition = "item-not-found"

	// JIDMalformed is returned when a provided XMPP address violates the
	// rules of the mellium.im/koine/jid package.
	JIDMalformed Condition = "jid-malformed"

	// NotAcceptable indicates that the request does not meet criteria
	// defined by the recipient or server.
	NotAcceptable Condition = "not-acceptable"

	// NotAllowed indicates that no entity is allowed to perform the
	// action.
	NotAllowed Condition = "not-allowed"

	// NotAuthorized indicates that the sender needs to provide credentials
	// before being allowed to perform the action.
	NotAuthorized Condition = "not-authorized"

	// PolicyViolation indicates that some local service policy was
	// violated.
	PolicyViolation Condition = "policy-violation"

	// RecipientUnavailable indicates that the intended recipient is
	// temporarily unavailable.
	RecipientUnavailable Condition = "recipient-unavailable"

	// Redirect indicates that requests for this information are being
	// redirected to another entity, typically temporarily.
	Redirect Condition = "redirect"

	// RegistrationRequired indicates that prior registration is necessary
	// before the requested service can be accessed.
	RegistrationRequired Condition = "registration-required"

	// RemoteServerNotFound indicates that a remote server or service
	// specified in the address could not be resolved.
	RemoteServerNotFound Condition = "remote-server-not-found"

	// RemoteServerTimeout indicates that a remote server or service could
	// be resolved but communications could not be established in a
	// reasonable amount of time.
	RemoteServerTimeout Condition = "remote-server-timeout"

	// ResourceConstraint indicates that the server or recipient is busy or
	// lacks the resources necessary to service the request.
	ResourceConstraint Condition = "resource-constraint"

	// ServiceUnavailable indicates that the server or recipient does not
	// currently provide the requested service.
	ServiceUnavailable Condition = "service-unavailable"

	// SubscriptionRequired indicates that a prior subscription is
	// necessary before the requested service can be accessed.
	SubscriptionRequired Condition = "subscription-required"

	// UndefinedCondition may be associated with any error type and should
	// be used in conjunction with an application specific condition.
	UndefinedCondition Condition = "undefined-condition"

	// UnexpectedRequest indicates that the request was understood but not
	// expected at this time, eg. because it was out of order.
	UnexpectedRequest Condition = "unexpected-request"
)

// conditionTypes maps each condition to the error type RFC 6120
// recommends for it. Conditions for which the RFC recommends several
// types map to the first one it lists.
var conditionTypes = map[Condition]ErrorType{
	BadRequest:            Modify,
	Conflict:              Cancel,
	FeatureNotImplemented: Cancel,
	Forbidden:             Auth,
	Gone:                  Cancel,
	InternalServerError:   Cancel,
	ItemNotFound:          Cancel,
	JIDMalformed:          Modify,
	NotAcceptable:         Modify,
	NotAllowed:            Cancel,
	NotAuthorized:         Auth,
	PolicyViolation:       Modify,
	RecipientUnavailable:  Wait,
	Redirect:              Modify,
	RegistrationRequired:  Auth,
	RemoteServerNotFound:  Cancel,
	RemoteServerTimeout:   Wait,
	ResourceConstraint:    Wait,
	ServiceUnavailable:    Cancel,
	SubscriptionRequired:  Auth,
	UndefinedCondition:    Cancel,
	UnexpectedRequest:     Wait,
}

// DefaultType returns the error type recommended for the condition, or
// Cancel for conditions this package does not know about.
func (c Condition) DefaultType() ErrorType {
	if t, ok := conditionTypes[c]; ok {
		return t
	}
	return Cancel
}

// Error is an implementation of error intended to be marshalable and
// unmarshalable as XML.
type Error struct {
	XMLName   xml.Name
	By        jid.JID
	Type      ErrorType
	Condition Condition
	Text      map[string]string
}

// Error satisfies the error interface by returning the condition.
func (se Error) Error() string {
	return string(se.Condition)
}

// TokenReader satisfies the xmlstream.Marshaler interface for Error.
func (se Error) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Local: "error"},
	}
	typ := se.Type
	if typ == "" {
		typ = se.Condition.DefaultType()
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(typ)})
	a, err := se.By.MarshalXMLAttr(xml.Name{Local: "by"})
	if err == nil && a.Value != "" {
		start.Attr = append(start.Attr, a)
	}

	var text xml.TokenReader = xmlstream.ReaderFunc(func() (xml.Token, error) {
		return nil, io.EOF
	})
	for lang, data := range se.Text {
		if data == "" {
			continue
		}
		var attrs []xml.Attr
		// xml:lang attribute is optional, don't include it if it's empty.
		if lang != "" {
			attrs = []xml.Attr{{
				Name:  xml.Name{Space: ns.XML, Local: "lang"},
				Value: lang,
			}}
		}
		text = xmlstream.Wrap(
			xmlstream.ReaderFunc(func() (xml.Token, error) {
				return xml.CharData(data), io.EOF
			}),
			xml.StartElement{
				Name: xml.Name{Space: ns.Stanza, Local: "text"},
				Attr: attrs,
			},
		)
	}

	return xmlstream.Wrap(
		xmlstream.MultiReader(
			xmlstream.Wrap(
				nil,
				xml.StartElement{
					Name: xml.Name{Space: ns.Stanza, Local: string(se.Condition)},
				},
			),
			text,
		),
		start,
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (se Error) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, se.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for Error.
func (se Error) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := se.WriteXML(e)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for Error.
func (se *Error) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	decoded := struct {
		Condition struct {
			XMLName xml.Name
		} `xml:",any"`
		Type ErrorType `xml:"type,attr"`
		By   jid.JID   `xml:"by,attr"`
		Text []struct {
			Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
			Data string `xml:",chardata"`
		} `xml:"urn:ietf:params:xml:ns:xmpp-stanzas text"`
	}{}
	if err := d.DecodeElement(&decoded, &start); err != nil {
		return err
	}
	se.Type = decoded.Type
	se.By = decoded.By
	if decoded.Condition.XMLName.Space == ns.Stanza {
		se.Condition = Condition(decoded.Condition.XMLName.Local)
	}

	for _, text := range decoded.Text {
		if text.Data == "" {
			continue
		}
		if se.Text == nil {
			se.Text = make(map[string]string)
		}
		se.Text[text.Lang] = text.Data
	}
	return nil
}
