// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jid implements XMPP addresses (historically called "Jabber ID's"
// or "JID's").
//
// An address has the form [localpart@]domainpart[/resourcepart]. Each part
// is canonicalized before it is stored, so comparing two JIDs built by
// this package compares their canonical forms. Canonicalization is
// expensive; callers on a hot path should build a Prepper around a set of
// prep.Caches and parse through it instead of calling Parse directly.
package jid // import "mellium.im/koine/jid"
