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

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)

	tokenFlagTextHasNoEscapes uint8 = 0x01
	tokenFlagIdentEscaped     uint8 = 0x02
)

type Token struct {
	Len   uint16
	Kind  TokenKind
	flags uint8
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT
	T_DOC

	T_AT
	T_COLON
	T_DOUBLE_COLON
	T_DOT
	T_ELLIPSIS
	T_COMMA
	T_EQ
	T_NEQ
	T_ARROW
	T_PIPE
	T_QUESTION
	T_STAR
	T_PLUS
	T_MINUS
	T_SLASH
	T_LT
	T_LTE
	T_GT
	T_GTE

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN
	T_OPEN_SQUARE
	T_CLOSE_SQUARE

	T_INT_LIT
	T_DECIMAL_LIT
	T_TEXT_LIT

	T_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_DOC:
		return "DOC"
	case T_AT:
		return "AT"
	case T_COLON:
		return "COLON"
	case T_DOUBLE_COLON:
		return "DOUBLE_COLON"
	case T_DOT:
		return "DOT"
	case T_ELLIPSIS:
		return "ELLIPSIS"
	case T_COMMA:
		return "COMMA"
	case T_EQ:
		return "EQ"
	case T_NEQ:
		return "NEQ"
	case T_ARROW:
		return "ARROW"
	case T_PIPE:
		return "PIPE"
	case T_QUESTION:
		return "QUESTION"
	case T_STAR:
		return "STAR"
	case T_PLUS:
		return "PLUS"
	case T_MINUS:
		return "MINUS"
	case T_SLASH:
		return "SLASH"
	case T_LT:
		return "LT"
	case T_LTE:
		return "LTE"
	case T_GT:
		return "GT"
	case T_GTE:
		return "GTE"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_PAREN:
		return "OPEN_PAREN"
	case T_CLOSE_PAREN:
		return "CLOSE_PAREN"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_INT_LIT:
		return "INT_LIT"
	case T_DECIMAL_LIT:
		return "DECIMAL_LIT"
	case T_TEXT_LIT:
		return "TEXT_LIT"
	case T_IDENT:
		return "IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

func (k TokenKind) isTrivia() bool {
	return k == T_SPACE || k == T_NEWLINE || k == T_COMMENT
}

type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	c := t.src[0]
	var next byte
	if len(t.src) > 1 {
		next = t.src[1]
	}
	kind := T_EOF
	tokenLen := 1
	switch c {
	case '\t', ' ':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
	case '\r':
		if next != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		kind = T_NEWLINE
		tokenLen = 2
	case '@':
		kind = T_AT
	case ',':
		kind = T_COMMA
	case '|':
		kind = T_PIPE
	case '?':
		kind = T_QUESTION
	case '*':
		kind = T_STAR
	case '+':
		kind = T_PLUS
	case '=':
		kind = T_EQ
	case '{':
		kind = T_OPEN_CURL
	case '}':
		kind = T_CLOSE_CURL
	case '(':
		kind = T_OPEN_PAREN
	case ')':
		kind = T_CLOSE_PAREN
	case ']':
		kind = T_CLOSE_SQUARE
	case '[':
		if next == '[' {
			return t.nextDoc(token)
		}
		kind = T_OPEN_SQUARE
	case ':':
		kind = T_COLON
		if next == ':' {
			kind = T_DOUBLE_COLON
			tokenLen = 2
		}
	case '.':
		kind = T_DOT
		if next == '.' && len(t.src) > 2 && t.src[2] == '.' {
			kind = T_ELLIPSIS
			tokenLen = 3
		}
	case '!':
		if next != '=' {
			return errUnexpectedCharacter(t.offset, '!')
		}
		kind = T_NEQ
		tokenLen = 2
	case '-':
		if next >= '0' && next <= '9' {
			return t.nextNumLit(token)
		}
		kind = T_MINUS
		if next == '>' {
			kind = T_ARROW
			tokenLen = 2
		}
	case '<':
		kind = T_LT
		if next == '=' {
			kind = T_LTE
			tokenLen = 2
		}
	case '>':
		kind = T_GT
		if next == '=' {
			kind = T_GTE
			tokenLen = 2
		}
	case '/':
		if next == '/' {
			return t.nextLineComment(token)
		}
		if next == '*' {
			return t.nextBlockComment(token)
		}
		kind = T_SLASH
	case '"', '\'':
		return t.nextTextLit(token)
	case '`':
		return t.nextEscapedIdent(token)
	}

	if kind != T_EOF {
		*token = Token{
			Kind: kind,
			Len:  uint16(tokenLen),
		}
		t.offset += uint32(tokenLen)
		t.src = t.src[tokenLen:]
		return nil
	}

	if c >= '0' && c <= '9' {
		return t.nextNumLit(token)
	}

	if isIdentStart(c) {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r == '\u00A0' {
		return t.nextSpace(token)
	}

	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func isIdentStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int, flags uint8) error {
	checkedLen, err := t.checkTokenLen(tokenLen)
	if err != nil {
		return err
	}
	*token = Token{
		Kind:  kind,
		Len:   checkedLen,
		flags: flags,
	}
	t.offset += uint32(checkedLen)
	t.src = t.src[checkedLen:]
	return nil
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for {
		if src[0] == ' ' || src[0] == '\t' {
			src = src[1:]
		} else if r, runeLen := utf8.DecodeRune(src); r == '\u00A0' {
			src = src[runeLen:]
		} else {
			break
		}
		if len(src) == 0 {
			break
		}
	}
	return t.emit(token, T_SPACE, len(t.src)-len(src), 0)
}

func (t *Tokens) nextLineComment(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if c == '\n' || c == '\r' {
			tokenLen = ii
			break
		}
	}
	return t.emit(token, T_COMMENT, tokenLen, 0)
}

func (t *Tokens) nextBlockComment(token *Token) error {
	for ii := 2; ii+1 < len(t.src); ii++ {
		if t.src[ii] == '*' && t.src[ii+1] == '/' {
			return t.emit(token, T_COMMENT, ii+2, 0)
		}
	}
	return errCommentUnterminated(t.offset, uint32(len(t.src)))
}

func (t *Tokens) nextDoc(token *Token) error {
	for ii := 2; ii+1 < len(t.src); ii++ {
		if t.src[ii] == ']' && t.src[ii+1] == ']' {
			return t.emit(token, T_DOC, ii+2, 0)
		}
	}
	return errDocUnterminated(t.offset, uint32(len(t.src)))
}

func (t *Tokens) nextNumLit(token *Token) error {
	src := t.src
	tokenLen := 0
	if src[0] == '-' {
		tokenLen = 1
	}

	kind := T_INT_LIT
	invalid := false
	for tokenLen < len(src) {
		c := src[tokenLen]
		if c >= '0' && c <= '9' {
			tokenLen += 1
			continue
		}
		if c == '.' && kind == T_INT_LIT && tokenLen+1 < len(src) {
			if d := src[tokenLen+1]; d >= '0' && d <= '9' {
				kind = T_DECIMAL_LIT
				tokenLen += 1
				continue
			}
		}
		if isIdentContinue(c) {
			invalid = true
			tokenLen += 1
			continue
		}
		break
	}

	if invalid {
		return errNumLitInvalid(t.offset, src[:tokenLen])
	}
	return t.emit(token, kind, tokenLen, 0)
}

func (t *Tokens) nextTextLit(token *Token) error {
	quote := t.src[0]
	escaped := false
	hasEscapes := false
	tokenLen := 0
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if c == quote {
			tokenLen = ii + 1
			break
		}
		if (c <= 0x1F || c == 0x7F) && c != 0x09 {
			off := t.offset + uint32(ii)
			if c == 0x0A {
				return errTextLitContainsNewline(off, 1)
			}
			if c == 0x0D && ii+1 < len(t.src) && t.src[ii+1] == 0x0A {
				return errTextLitContainsNewline(off, 2)
			}
			return errForbiddenControlCharacter(off, c)
		}
		if c == '\\' {
			escaped = true
			hasEscapes = true
		}
	}
	if tokenLen == 0 {
		return errTextLitUnterminated(t.offset, uint32(len(t.src)))
	}

	var flags uint8
	if !hasEscapes {
		flags |= tokenFlagTextHasNoEscapes
	}
	return t.emit(token, T_TEXT_LIT, tokenLen, flags)
}

func (t *Tokens) nextIdent(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if !isIdentContinue(c) {
			tokenLen = ii
			break
		}
	}
	return t.emit(token, T_IDENT, tokenLen, 0)
}

func (t *Tokens) nextEscapedIdent(token *Token) error {
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if c == '`' {
			if ii == 1 || !isIdentStart(t.src[1]) {
				return errIdentInvalid(t.offset, t.src[:ii+1])
			}
			return t.emit(token, T_IDENT, ii+1, tokenFlagIdentEscaped)
		}
		if !isIdentContinue(c) {
			return errIdentInvalid(t.offset, t.src[:ii])
		}
	}
	return errIdentInvalid(t.offset, t.src)
}

func (t *Tokens) checkTokenLen(len int) (uint16, error) {
	if len > maxTokenLen {
		return 0, errTokenTooLong(t.offset, len)
	}
	return uint16(len), nil
}
