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

package compiler

import (
	"fmt"

	"github.com/BlexSetlog/taxilang/syntax"
)

type Warning struct {
	code       uint32
	message    string
	span       syntax.Span
	sourceName string
	position   syntax.Position
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() syntax.Span {
	return w.span
}

func (w *Warning) SourceName() string {
	return w.sourceName
}

func (w *Warning) Position() syntax.Position {
	return w.position
}

func (at location) newWarning(code uint32, message string) *Warning {
	w := &Warning{
		code:    code,
		message: message,
		span:    at.span,
	}
	if at.src != nil {
		w.sourceName = at.src.name
		w.position = at.src.lines.Position(at.span.Start())
	}
	return w
}

func warnUnusedImport(name string, at location) *Warning {
	return at.newWarning(4000, fmt.Sprintf("Import %s is unused", name))
}

func warnDuplicateImport(name string, at location) *Warning {
	return at.newWarning(4001, fmt.Sprintf("Duplicate import %s", name))
}

func warnImportDeclaredLocally(name string, at location) *Warning {
	return at.newWarning(4002, fmt.Sprintf(
		"Import %s has no effect as it is declared locally",
		name,
	))
}

func warnDeclShadowsBuiltin(name string, at location) *Warning {
	return at.newWarning(4003, fmt.Sprintf(
		"Local declaration '%s' shadows builtin",
		name,
	))
}
