// Copyright 2023 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package prep implements the string preparation profiles applied to the
// parts of an XMPP address, and a bounded cache for their results.
//
// Preparation is comparatively expensive and its outcome for any given
// string never changes, so callers that handle many addresses are expected
// to construct a set of Caches once and route every preparation through it.
// Rejections are cached too: a string that fails preparation once fails
// every time, and the cache makes the repeated failure cheap.
package prep // import "mellium.im/koine/prep"
