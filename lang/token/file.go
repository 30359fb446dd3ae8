// Some of the token package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/token/position.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import "sort"

// File tracks byte-offset-to-line/column information for a single source
// file that has been added to a FileSet. Positions (Pos values) for a File
// occupy the closed range [base, base+size], the last one being the
// end-of-file position; base is chosen by the
// owning FileSet so that Pos values are unique across every File it holds.
type File struct {
	name string
	base int
	size int

	lines []int // byte offset of the start of each line after the first
}

// Name returns the file name as registered with the FileSet.
func (f *File) Name() string { return f.name }

// Base returns the first valid Pos for this file.
func (f *File) Base() int { return f.base }

// Size returns the file's content length in bytes.
func (f *File) Size() int { return f.size }

// AddLine records the byte offset of the start of a new line. Calls must
// be made in increasing offset order, mirroring how a scanner discovers
// newlines as it advances through the source.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
}

// LineCount returns the number of lines seen so far.
func (f *File) LineCount() int { return len(f.lines) + 1 }

// Pos converts a 0-based byte offset within this file into a global Pos.
func (f *File) Pos(offset int) Pos {
	if offset < 0 || offset > f.size {
		offset = 0
	}
	return Pos(f.base + offset)
}

// Offset converts a Pos belonging to this file back into a byte offset.
func (f *File) Offset(p Pos) int {
	off := int(p) - f.base
	if off < 0 || off > f.size {
		return 0
	}
	return off
}

// Position resolves a Pos belonging to this file into a full Position.
func (f *File) Position(p Pos) Position {
	offset := f.Offset(p)
	line, col := f.lineCol(offset)
	return Position{Filename: f.name, Offset: offset, Line: line, Column: col}
}

// lineCol reports the 1-based line and column for a byte offset. lines
// holds the start offset of every line after the first; the first line
// always starts at offset 0.
func (f *File) lineCol(offset int) (line, col int) {
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset })
	lineStart := 0
	if i > 0 {
		lineStart = f.lines[i-1]
	}
	return i + 1, offset - lineStart + 1
}
