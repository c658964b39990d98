// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are shared between the
// packages in this module.
package ns // import "mellium.im/koine/internal/ns"

// List of commonly used namespaces.
const (
	Client = "jabber:client"
	Server = "jabber:server"
	Stanza = "urn:ietf:params:xml:ns:xmpp-stanzas"
	XML    = "http://www.w3.org/XML/1998/namespace"
)
