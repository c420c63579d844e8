// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package syntax

import (
	"sort"
	"unicode/utf8"
)

// Position is a 1-based line and column within a source file. Columns are
// counted in code points.
type Position struct {
	Line   uint32
	Column uint32
}

type LineIndex struct {
	src        []byte
	lineStarts []uint32
}

func NewLineIndex(src []byte) *LineIndex {
	lineStarts := []uint32{0}
	for ii, c := range src {
		if c == '\n' {
			lineStarts = append(lineStarts, uint32(ii+1))
		}
	}
	return &LineIndex{
		src:        src,
		lineStarts: lineStarts,
	}
}

func (idx *LineIndex) Position(offset uint32) Position {
	if offset > uint32(len(idx.src)) {
		offset = uint32(len(idx.src))
	}
	line := sort.Search(len(idx.lineStarts), func(ii int) bool {
		return idx.lineStarts[ii] > offset
	}) - 1
	lineStart := idx.lineStarts[line]
	column := utf8.RuneCount(idx.src[lineStart:offset])
	return Position{
		Line:   uint32(line + 1),
		Column: uint32(column + 1),
	}
}

// Offset returns the byte offset of pos, or false if pos is outside the
// source.
func (idx *LineIndex) Offset(pos Position) (uint32, bool) {
	if pos.Line == 0 || pos.Column == 0 || int(pos.Line) > len(idx.lineStarts) {
		return 0, false
	}
	offset := idx.lineStarts[pos.Line-1]
	end := uint32(len(idx.src))
	if int(pos.Line) < len(idx.lineStarts) {
		end = idx.lineStarts[pos.Line]
	}
	for column := uint32(1); column < pos.Column; column++ {
		if offset >= end {
			return 0, false
		}
		_, size := utf8.DecodeRune(idx.src[offset:])
		offset += uint32(size)
	}
	return offset, true
}
