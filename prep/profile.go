// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package prep

import (
	"errors"
	"net"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/secure/precis"
)

// Profile is a string preparation function. It returns the canonical form
// of s, which may be s itself, or an error if s cannot appear in the slot
// the profile prepares for.
type Profile func(s string) (string, error)

// Node prepares the localpart of an address using the PRECIS
// UsernameCaseMapped profile. The prepared form is case folded.
func Node(s string) (string, error) {
	return precis.UsernameCaseMapped.String(s)
}

// Resource prepares the resourcepart of an address using the PRECIS
// OpaqueString profile. Case is preserved.
func Resource(s string) (string, error) {
	return precis.OpaqueString.String(s)
}

// Domain prepares the domainpart of an address. Domain names are mapped to
// their ASCII (A-label) form, which also case folds them; IPv6 literals in
// square brackets are validated and passed through unchanged.
func Domain(s string) (string, error) {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) > 2 {
		if ip := net.ParseIP(s[1 : len(s)-1]); ip == nil || ip.To4() != nil {
			return "", errors.New("prep: domainpart is not a valid IPv6 address")
		}
		return s, nil
	}
	return idna.Lookup.ToASCII(s)
}
