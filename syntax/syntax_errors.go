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
	"fmt"
	"math"
	"unicode/utf8"
)

type Error struct {
	code    uint32
	message string
	span    Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

func newError(code uint32, span Span, message string) error {
	return &Error{code: code, message: message, span: span}
}

func newErrorf(code uint32, span Span, format string, args ...any) error {
	return newError(code, span, fmt.Sprintf(format, args...))
}

func clampLen(n int) uint32 {
	if uint64(n) < math.MaxUint32 {
		return uint32(n)
	}
	return math.MaxUint32
}

func errSourceTooLong(srcLen int) error {
	return newErrorf(1000, Span{0, clampLen(srcLen)},
		"Source file size (%d bytes) exceeds maximum (%d bytes)",
		srcLen, maxSrcLen)
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return newError(1001, Span{off, 1}, "Source file contains invalid UTF-8")
}

func errUnexpectedCharacter(start uint32, r rune) error {
	return newErrorf(1002, Span{start, uint32(utf8.RuneLen(r))}, "Unexpected character '%s' (U+%04X)", string(r), r)
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return newErrorf(1003, Span{start, 1}, "Forbidden control character U+%04X", c)
}

func errTokenTooLong(start uint32, tokenLen int) error {
	return newErrorf(1004, Span{start, clampLen(tokenLen)},
		"Token size (%d bytes) exceeds maximum (%d bytes)",
		tokenLen, maxTokenLen)
}

func errNumLitInvalid(start uint32, token []byte) error {
	return newErrorf(1005, Span{start, clampLen(len(token))}, "Invalid number literal %q", token)
}

func errTextLitUnterminated(start, tokenLen uint32) error {
	return newError(1006, Span{start, tokenLen}, "Unterminated text literal")
}

func errTextLitContainsNewline(start, newlineLen uint32) error {
	return newError(1007, Span{start, newlineLen}, "Text literal contains unescaped newline")
}

func errIdentInvalid(start uint32, token []byte) error {
	return newErrorf(1008, Span{start, clampLen(len(token))}, "Invalid identifier %q", token)
}

func errCommentUnterminated(start, tokenLen uint32) error {
	return newError(1009, Span{start, tokenLen}, "Unterminated block comment")
}

func errDocUnterminated(start, tokenLen uint32) error {
	return newError(1010, Span{start, tokenLen}, "Unterminated documentation block")
}

func sigilText(kind TokenKind) string {
	switch kind {
	case T_AT:
		return "@"
	case T_COLON:
		return ":"
	case T_DOUBLE_COLON:
		return "::"
	case T_DOT:
		return "."
	case T_ELLIPSIS:
		return "..."
	case T_COMMA:
		return ","
	case T_EQ:
		return "="
	case T_NEQ:
		return "!="
	case T_ARROW:
		return "->"
	case T_PIPE:
		return "|"
	case T_QUESTION:
		return "?"
	case T_STAR:
		return "*"
	case T_PLUS:
		return "+"
	case T_MINUS:
		return "-"
	case T_SLASH:
		return "/"
	case T_LT:
		return "<"
	case T_LTE:
		return "<="
	case T_GT:
		return ">"
	case T_GTE:
		return ">="
	case T_OPEN_CURL:
		return "{"
	case T_CLOSE_CURL:
		return "}"
	case T_OPEN_PAREN:
		return "("
	case T_CLOSE_PAREN:
		return ")"
	case T_OPEN_SQUARE:
		return "["
	case T_CLOSE_SQUARE:
		return "]"
	default:
		panic("unreachable")
	}
}

func errExpectedSigil(
	wantKind TokenKind,
	gotKind TokenKind,
	gotToken string,
	span Span,
) error {
	return newErrorf(2000, span,
		"Expected sigil '%s', got (%s %q)",
		sigilText(wantKind), gotKind, gotToken)
}

func errExpectedIdent(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2001, span, "Expected identifier, got (%s %q)", gotKind, gotToken)
}

func errExpectedKeyword(keyword string, gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2002, span, "Expected keyword '%s', got (%s %q)", keyword, gotKind, gotToken)
}

func errExpectedTextLit(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2003, span, "Expected text literal, got (%s %q)", gotKind, gotToken)
}

func errExpectedLiteral(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2004, span, "Expected literal value, got (%s %q)", gotKind, gotToken)
}

func errExpectedDeclaration(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2005, span, "Expected declaration, got (%s %q)", gotKind, gotToken)
}

func errUnknownDeclaration(token string, span Span) error {
	return newErrorf(2006, span, "Unknown declaration keyword %q", token)
}

func errNamespaceAfterUnbraced(span Span) error {
	return newError(2007, span, "A file may contain only one namespace without braces, and it must be the last namespace in the file")
}

func errExpectedOperation(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2008, span, "Expected operation, got (%s %q)", gotKind, gotToken)
}

func errExpectedSubject(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2009, span, "Expected policy subject, got (%s %q)", gotKind, gotToken)
}

func errExpectedOperator(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2010, span, "Expected operator, got (%s %q)", gotKind, gotToken)
}

func errExpectedExpression(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2011, span, "Expected expression, got (%s %q)", gotKind, gotToken)
}

func errExpectedConstraint(gotKind TokenKind, gotToken string, span Span) error {
	return newErrorf(2012, span, "Expected constraint, got (%s %q)", gotKind, gotToken)
}

func errTextLitInvalid(start uint32, token string) error {
	return newErrorf(2013, Span{start, clampLen(len(token))}, "Invalid text literal %q", token)
}

func errNumLitOutOfRange(start uint32, token string) error {
	return newErrorf(2014, Span{start, clampLen(len(token))}, "Number literal %s is out of range", token)
}

