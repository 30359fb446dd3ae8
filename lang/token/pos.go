// Some of the token package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/token/position.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package token defines source positions and the lexical token kinds
// shared by the scanner, parser and compiler packages.
package token

// Pos is a compact encoding of a source position as a byte offset into a
// FileSet's pool of concatenated files. The zero value is NoPos: it
// carries no position information. Use a FileSet to translate a Pos into
// a human-readable Position.
type Pos int

// NoPos is the zero value for Pos; it means "no position available".
const NoPos Pos = 0

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p != NoPos
}
