// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package prep

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxPartLen is the maximum length in bytes of a single prepared part of
// an address.
const MaxPartLen = 1023

// Default capacities for the per-part caches. Domainparts repeat far more
// often than localparts or resourceparts in most workloads, so the domain
// cache needs less headroom.
const (
	DefaultNodeCacheSize     = 10000
	DefaultDomainCacheSize   = 500
	DefaultResourceCacheSize = 10000
)

// ErrInvalidInput is returned when a profile rejects its input or the
// prepared form exceeds MaxPartLen bytes. The rejection is permanent for
// any given string and is cached.
var ErrInvalidInput = errors.New("prep: invalid input")

// outcome records the result of preparing one string. The three states are
// mutually exclusive: the input was rejected, the prepared form is the
// cache key itself, or the prepared form is a different string.
type outcome struct {
	illegal bool
	useKey  bool
	value   string
}

// Cache memoizes a preparation profile behind a bounded LRU. It is safe
// for concurrent use; two goroutines that miss on the same key may both
// run the profile, but preparation is deterministic so they store the
// same entry.
type Cache struct {
	profile Profile
	entries *lru.Cache[string, outcome]
}

// NewCache returns a cache over profile holding at most size entries.
func NewCache(profile Profile, size int) (*Cache, error) {
	entries, err := lru.New[string, outcome](size)
	if err != nil {
		return nil, err
	}
	return &Cache{profile: profile, entries: entries}, nil
}

// Prepare returns the canonical form of raw.
//
// A string that has already been prepared hits the cache under its own
// name: after Prepare(raw) returns p, both raw and p are cached, so a
// later call with either of them is a hit.
func (c *Cache) Prepare(raw string) (string, error) {
	if o, ok := c.entries.Get(raw); ok {
		switch {
		case o.illegal:
			return "", fmt.Errorf("%w: %q", ErrInvalidInput, raw)
		case o.useKey:
			return raw, nil
		default:
			return o.value, nil
		}
	}

	prepared, err := c.profile(raw)
	if err != nil {
		c.entries.Add(raw, outcome{illegal: true})
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(prepared) > MaxPartLen {
		c.entries.Add(raw, outcome{illegal: true})
		return "", fmt.Errorf("%w: prepared form is larger than %d bytes", ErrInvalidInput, MaxPartLen)
	}

	c.entries.Add(prepared, outcome{useKey: true})
	if prepared != raw {
		c.entries.Add(raw, outcome{value: prepared})
	}
	return prepared, nil
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Caches bundles one preparation cache per address part.
type Caches struct {
	node     *Cache
	domain   *Cache
	resource *Cache
}

// Option configures a set of Caches.
type Option func(*config)

type config struct {
	node     int
	domain   int
	resource int
}

// NodeCacheSize overrides the capacity of the localpart cache.
func NodeCacheSize(n int) Option {
	return func(cfg *config) {
		cfg.node = n
	}
}

// DomainCacheSize overrides the capacity of the domainpart cache.
func DomainCacheSize(n int) Option {
	return func(cfg *config) {
		cfg.domain = n
	}
}

// ResourceCacheSize overrides the capacity of the resourcepart cache.
func ResourceCacheSize(n int) Option {
	return func(cfg *config) {
		cfg.resource = n
	}
}

// NewCaches returns a set of caches over the Node, Domain, and Resource
// profiles with the default capacities, modified by any options.
func NewCaches(opts ...Option) (*Caches, error) {
	cfg := config{
		node:     DefaultNodeCacheSize,
		domain:   DefaultDomainCacheSize,
		resource: DefaultResourceCacheSize,
	}
	for _, o := range opts {
		o(&cfg)
	}

	node, err := NewCache(Node, cfg.node)
	if err != nil {
		return nil, err
	}
	domain, err := NewCache(Domain, cfg.domain)
	if err != nil {
		return nil, err
	}
	resource, err := NewCache(Resource, cfg.resource)
	if err != nil {
		return nil, err
	}
	return &Caches{node: node, domain: domain, resource: resource}, nil
}

// Node prepares a localpart through the node cache.
func (c *Caches) Node(raw string) (string, error) {
	return c.node.Prepare(raw)
}

// Domain prepares a domainpart through the domain cache.
func (c *Caches) Domain(raw string) (string, error) {
	return c.domain.Prepare(raw)
}

// Resource prepares a resourcepart through the resource cache.
func (c *Caches) Resource(raw string) (string, error) {
	return c.resource.Prepare(raw)
}
