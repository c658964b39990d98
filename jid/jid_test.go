// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"

	"mellium.im/koine/jid"
	"mellium.im/koine/prep"
)

// Compile time checks to make sure that JID and *JID match several
// interfaces.
var (
	_ fmt.Stringer        = jid.JID{}
	_ xml.MarshalerAttr   = jid.JID{}
	_ xml.UnmarshalerAttr = (*jid.JID)(nil)
	_ xml.Marshaler       = jid.JID{}
	_ xml.Unmarshaler     = (*jid.JID)(nil)
	_ net.Addr            = jid.JID{}
)

func TestValidJIDs(t *testing.T) {
	for i, tc := range [...]struct {
		jid, lp, dp, rp string
	}{
		0:  {"example.net", "", "example.net", ""},
		1:  {"example.net/rp", "", "example.net", "rp"},
		2:  {"mercutio@example.net", "mercutio", "example.net", ""},
		3:  {"mercutio@example.net/rp", "mercutio", "example.net", "rp"},
		4:  {"mercutio@example.net/rp@rp", "mercutio", "example.net", "rp@rp"},
		5:  {"mercutio@example.net/rp@rp/rp", "mercutio", "example.net", "rp@rp/rp"},
		6:  {"mercutio@example.net/@", "mercutio", "example.net", "@"},
		7:  {"mercutio@example.net//@", "mercutio", "example.net", "/@"},
		8:  {"mercutio@example.net//@//", "mercutio", "example.net", "/@//"},
		9:  {"[::1]", "", "[::1]", ""},
		10: {"127.0.0.1", "", "127.0.0.1", ""},
		11: {"example.net.", "", "example.net", ""},
		12: {"A.Example.nEt.", "", "a.example.net", ""},
		13: {"MERCUTIO@Example.net", "mercutio", "example.net", ""},
		// An empty resourcepart is treated as absent, not kept as "".
		14: {"mercutio@example.net/", "mercutio", "example.net", ""},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			j, err := jid.Parse(tc.jid)
			if err != nil {
				t.Fatal(err)
			}
			if j.Localpart() != tc.lp {
				t.Errorf("got localpart %q but expected %q", j.Localpart(), tc.lp)
			}
			if j.Domainpart() != tc.dp {
				t.Errorf("got domainpart %q but expected %q", j.Domainpart(), tc.dp)
			}
			if j.Resourcepart() != tc.rp {
				t.Errorf("got resourcepart %q but expected %q", j.Resourcepart(), tc.rp)
			}
		})
	}
}

var invalidutf8 = string([]byte{0xff, 0xfe, 0xfd})

var invalidJIDs = [...]string{
	0:  "test@/test",
	1:  invalidutf8 + "@example.com/rp",
	2:  invalidutf8 + "/rp",
	3:  invalidutf8,
	4:  "lp@/rp",
	5:  `b"d@example.net`,
	6:  `b&d@example.net`,
	7:  `b'd@example.net`,
	8:  `b:d@example.net`,
	9:  `b<d@example.net`,
	10: `b>d@example.net`,
	11: `@example.net/`,
	12: `foo bar@example.com`,
	13: `♚@example.com`,
	14: `juliet@`,
	15: `@example.net`,
	16: `[127.0.0.1]`,
	17: `[::1`,
	18: `::1]`,
	19: ``,
}

func TestInvalidParseJIDs(t *testing.T) {
	for i, tc := range invalidJIDs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if j, err := jid.Parse(tc); err == nil {
				t.Errorf("expected JID %q to fail, got %q", tc, j.String())
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for i, tc := range [...]string{
		0: "user@example.com/home",
		1: "example.com",
		2: "user@example.com",
		3: "example.com/home",
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			j, err := jid.Parse(tc)
			if err != nil {
				t.Fatal(err)
			}
			if s := j.String(); s != tc {
				t.Errorf("got %q, want %q", s, tc)
			}
		})
	}
}

func TestBare(t *testing.T) {
	j := jid.MustParse("user@example.com/home")
	bare := j.Bare()
	if s := bare.String(); s != "user@example.com" {
		t.Errorf("got %q, want %q", s, "user@example.com")
	}
	if bare.Resourcepart() != "" {
		t.Errorf("bare JID kept resourcepart %q", bare.Resourcepart())
	}

	// A bare JID with no localpart renders without the "@" separator so
	// that it can be parsed back.
	j = jid.MustParse("example.com/home")
	if s := j.Bare().String(); s != "example.com" {
		t.Errorf("got %q, want %q", s, "example.com")
	}
	reparsed, err := jid.Parse(j.Bare().String())
	if err != nil {
		t.Fatal(err)
	}
	if !reparsed.Equal(j.Bare()) {
		t.Errorf("bare form did not round trip: %q", j.Bare().String())
	}
}

func TestFull(t *testing.T) {
	j := jid.MustParse("user@example.com/home")
	full, err := j.Full()
	if err != nil {
		t.Fatal(err)
	}
	if full != "user@example.com/home" {
		t.Errorf("got %q", full)
	}

	j = jid.MustParse("example.com")
	if _, err := j.Full(); !errors.Is(err, jid.ErrNoResource) {
		t.Errorf("got %v, want ErrNoResource", err)
	}
}

func TestDomain(t *testing.T) {
	j := jid.MustParse("user@example.com/home")
	if s := j.Domain().String(); s != "example.com" {
		t.Errorf("got %q, want %q", s, "example.com")
	}
}

func TestEqualityAndOrdering(t *testing.T) {
	for i, tc := range [...]struct {
		a, b string
		cmp  int
	}{
		0: {"user@example.com", "user@example.com", 0},
		1: {"USER@EXAMPLE.COM", "user@example.com", 0},
		2: {"a@x.com", "b@x.com", -1},
		3: {"a.com", "b.com", -1},
		4: {"b@a.com", "a@b.com", -1},
		5: {"x.com", "a@x.com", -1},
		6: {"a@x.com/a", "a@x.com/b", -1},
		7: {"a@x.com", "a@x.com/b", -1},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			a := jid.MustParse(tc.a)
			b := jid.MustParse(tc.b)
			if got := a.Compare(b); got != tc.cmp {
				t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.cmp)
			}
			if got := b.Compare(a); got != -tc.cmp {
				t.Errorf("Compare(%q, %q) = %d, want %d", tc.b, tc.a, got, -tc.cmp)
			}
			if equal := a.Equal(b); equal != (tc.cmp == 0) {
				t.Errorf("Equal(%q, %q) = %t", tc.a, tc.b, equal)
			}
		})
	}
}

func TestUnsafe(t *testing.T) {
	j := jid.Unsafe("UNPREPPED", "example.com", "res")
	if j.Localpart() != "UNPREPPED" {
		t.Errorf("unsafe construction modified the localpart: %q", j.Localpart())
	}
	if s := j.String(); s != "UNPREPPED@example.com/res" {
		t.Errorf("got %q", s)
	}
}

func TestNewPartErrors(t *testing.T) {
	if _, err := jid.New("user", "", ""); !errors.Is(err, jid.ErrMalformed) {
		t.Errorf("empty domainpart: got %v, want ErrMalformed", err)
	}
	// Preparation failures carry the attempted address and the cause.
	_, err := jid.New("foo bar", "example.com", "")
	if !errors.Is(err, prep.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput in the chain", err)
	}
}

func TestPrepperParse(t *testing.T) {
	caches, err := prep.NewCaches(
		prep.NodeCacheSize(4),
		prep.DomainCacheSize(4),
		prep.ResourceCacheSize(4),
	)
	if err != nil {
		t.Fatal(err)
	}
	p := jid.NewPrepper(caches)

	// Parse the same raw form twice so the second pass is served from the
	// caches, and once in prepared form.
	want := "romeo@example.net/Balcony"
	for i := 0; i < 2; i++ {
		j, err := p.Parse("ROMEO@Example.NET/Balcony")
		if err != nil {
			t.Fatal(err)
		}
		if s := j.String(); s != want {
			t.Errorf("pass %d: got %q, want %q", i, s, want)
		}
	}
	j, err := p.Parse(want)
	if err != nil {
		t.Fatal(err)
	}
	if s := j.String(); s != want {
		t.Errorf("got %q, want %q", s, want)
	}

	// Rejections are cached but still fail every time.
	for i := 0; i < 2; i++ {
		if _, err := p.Parse("foo bar@example.net"); err == nil {
			t.Errorf("pass %d: expected parse to fail", i)
		}
	}
}

func TestMarshalAttrXML(t *testing.T) {
	type msg struct {
		XMLName xml.Name `xml:"message"`
		To      jid.JID  `xml:"to,attr"`
	}
	b, err := xml.Marshal(msg{To: jid.MustParse("juliet@example.com/chamber")})
	if err != nil {
		t.Fatal(err)
	}
	const want = `<message to="juliet@example.com/chamber"></message>`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	var m msg
	if err := xml.Unmarshal([]byte(want), &m); err != nil {
		t.Fatal(err)
	}
	if !m.To.Equal(jid.MustParse("juliet@example.com/chamber")) {
		t.Errorf("got %q after unmarshal", m.To.String())
	}

	// The zero JID marshals to no attribute at all.
	b, err = xml.Marshal(msg{})
	if err != nil {
		t.Fatal(err)
	}
	if want := `<message></message>`; string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestMarshalXML(t *testing.T) {
	type item struct {
		XMLName xml.Name `xml:"item"`
		JID     jid.JID  `xml:"jid"`
	}
	b, err := xml.Marshal(item{JID: jid.MustParse("juliet@example.com")})
	if err != nil {
		t.Fatal(err)
	}
	const want = `<item><jid>juliet@example.com</jid></item>`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
	var it item
	if err := xml.Unmarshal([]byte(want), &it); err != nil {
		t.Fatal(err)
	}
	if !it.JID.Equal(jid.MustParse("juliet@example.com")) {
		t.Errorf("got %q after unmarshal", it.JID.String())
	}
}

func TestMustParsePanics(t *testing.T) {
	handleErr := func(shouldPanic bool) {
		r := recover()
		if (r != nil) != shouldPanic {
			t.Errorf("panic = %v, expected panic %t", r, shouldPanic)
		}
	}
	t.Run("panics", func(t *testing.T) {
		defer handleErr(true)
		jid.MustParse("@example.com")
	})
	t.Run("doesnotpanic", func(t *testing.T) {
		defer handleErr(false)
		jid.MustParse("example.com")
	})
}
