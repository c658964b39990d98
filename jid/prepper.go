// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"mellium.im/koine/prep"
)

// Prepper builds JIDs, running each part through a shared set of
// preparation caches. The zero value is valid and prepares every part from
// scratch on every call; a Prepper constructed with NewPrepper amortizes
// preparation across addresses.
//
// A Prepper is safe for concurrent use. It is normally constructed once
// and owned by whatever component handles addresses, rather than kept as
// process-wide state, so that tests can use small isolated caches.
type Prepper struct {
	caches *prep.Caches
}

// NewPrepper returns a Prepper that prepares address parts through the
// given caches.
func NewPrepper(caches *prep.Caches) *Prepper {
	return &Prepper{caches: caches}
}

// Parse constructs a new JID from the given string representation.
func (p *Prepper) Parse(s string) (JID, error) {
	localpart, domainpart, resourcepart, err := SplitString(s)
	if err != nil {
		return JID{}, err
	}
	return p.New(localpart, domainpart, resourcepart)
}

// MustParse is like Parse but panics if the address cannot be parsed. It
// simplifies safe initialization of JIDs from known-good constant strings.
func (p *Prepper) MustParse(s string) JID {
	j, err := p.Parse(s)
	if err != nil {
		if strconv.CanBackquote(s) {
			s = "`" + s + "`"
		} else {
			s = strconv.Quote(s)
		}
		panic(`jid: Parse(` + s + `): ` + err.Error())
	}
	return j
}

// New constructs a new JID from the given localpart, domainpart, and
// resourcepart. The domainpart is required; an empty localpart or
// resourcepart is treated as absent. Each present part is prepared with
// its profile, through the Prepper's caches if it has any, and any
// preparation failure is reported together with the attempted address.
func (p *Prepper) New(localpart, domainpart, resourcepart string) (JID, error) {
	j, err := p.build(localpart, domainpart, resourcepart)
	if err != nil {
		return JID{}, fmt.Errorf("jid: invalid address %q: %w", Unsafe(localpart, domainpart, resourcepart).String(), err)
	}
	return j, nil
}

func (p *Prepper) build(localpart, domainpart, resourcepart string) (JID, error) {
	if !utf8.ValidString(localpart) || !utf8.ValidString(domainpart) || !utf8.ValidString(resourcepart) {
		return JID{}, fmt.Errorf("%w: address contains invalid UTF-8", ErrMalformed)
	}
	if domainpart == "" {
		return JID{}, fmt.Errorf("%w: empty domainpart", ErrMalformed)
	}

	domainpart, err := p.domain(domainpart)
	if err != nil {
		return JID{}, err
	}
	if localpart != "" {
		localpart, err = p.node(localpart)
		if err != nil {
			return JID{}, err
		}
	}
	if resourcepart != "" {
		resourcepart, err = p.resource(resourcepart)
		if err != nil {
			return JID{}, err
		}
	}

	if err := commonChecks(localpart, domainpart, resourcepart); err != nil {
		return JID{}, err
	}
	return JID{
		localpart:    localpart,
		domainpart:   domainpart,
		resourcepart: resourcepart,
	}, nil
}

func (p *Prepper) node(s string) (string, error) {
	if p == nil || p.caches == nil {
		return runProfile(prep.Node, s)
	}
	return p.caches.Node(s)
}

func (p *Prepper) domain(s string) (string, error) {
	if p == nil || p.caches == nil {
		return runProfile(prep.Domain, s)
	}
	return p.caches.Domain(s)
}

func (p *Prepper) resource(s string) (string, error) {
	if p == nil || p.caches == nil {
		return runProfile(prep.Resource, s)
	}
	return p.caches.Resource(s)
}

// runProfile applies a profile directly, reporting failures with the same
// error chain the caches use.
func runProfile(profile prep.Profile, s string) (string, error) {
	prepared, err := profile(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", prep.ErrInvalidInput, err)
	}
	if len(prepared) > prep.MaxPartLen {
		return "", fmt.Errorf("%w: prepared form is larger than %d bytes", prep.ErrInvalidInput, prep.MaxPartLen)
	}
	return prepared, nil
}

// uncached backs the package level constructors; it has no caches and so
// holds no state.
var uncached = &Prepper{}

// Parse constructs a new JID from the given string representation, running
// every part through its preparation profile. Callers parsing many
// addresses should use a Prepper instead.
func Parse(s string) (JID, error) {
	return uncached.Parse(s)
}

// MustParse is like Parse but panics if the address cannot be parsed.
func MustParse(s string) JID {
	return uncached.MustParse(s)
}

// New constructs a new JID from the given localpart, domainpart, and
// resourcepart without caching the prepared parts.
func New(localpart, domainpart, resourcepart string) (JID, error) {
	return uncached.New(localpart, domainpart, resourcepart)
}
