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
	"bytes"
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOption func(*ParseOptions)

func (fn parseOption) apply(opts *ParseOptions) {
	fn(opts)
}

// SaveTrivia controls whether spaces, newlines, and comments are kept in the
// syntax tree. Trees parsed without trivia cannot be unparsed to their
// original source.
func SaveTrivia(save bool) ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.saveSpaces = save
		opts.saveNewlines = save
		opts.saveComments = save
	})
}

func Parse(src []uint8, opts ...ParseOption) (*File, error) {
	return NewParseOptions(opts...).ParseFile(src)
}

type ParseOptions struct {
	saveSpaces   bool
	saveNewlines bool
	saveComments bool
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{
		saveSpaces:   true,
		saveNewlines: true,
		saveComments: true,
	}
	for _, opt := range opts {
		opt.apply(parseOpts)
	}
	return parseOpts
}

func (opts *ParseOptions) ParseFile(src []uint8) (*File, error) {
	ctx, err := newParseCtx[File](opts, src)
	if err != nil {
		return nil, err
	}
	return parseFile(ctx)
}

func (opts *ParseOptions) ParseTypeRef(src []uint8) (*TypeRef, error) {
	ctx, err := newParseCtx[TypeRef](opts, src)
	if err != nil {
		return nil, err
	}
	return parseTypeRef(ctx)
}

func (opts *ParseOptions) ParseAccessor(src []uint8) (*Accessor, error) {
	ctx, err := newParseCtx[Accessor](opts, src)
	if err != nil {
		return nil, err
	}
	return parseAccessor(ctx)
}

type parseCtx[T any] struct {
	src        []uint8
	opts       *ParseOptions
	tokens     *Tokens
	childNodes []Node
	haveToken  bool
	token      Token
	err        error
	consumed   uint32
	offset     uint32
}

func newParseCtx[T any](opts *ParseOptions, src []uint8) (*parseCtx[T], error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	return &parseCtx[T]{
		src:    src,
		opts:   opts,
		tokens: tokens,
	}, nil
}

func (ctx *parseCtx[T]) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	if err := ctx.tokens.Next(&ctx.token); err != nil {
		ctx.err = err
		return ctx.err
	}
	ctx.haveToken = true
	return nil
}

func (ctx *parseCtx[T]) readToken() []uint8 {
	return ctx.src[:ctx.token.Len]
}

func (ctx *parseCtx[T]) consumeToken(child Node) {
	ctx.src = ctx.src[ctx.token.Len:]
	ctx.consumed += uint32(ctx.token.Len)
	ctx.offset += uint32(ctx.token.Len)
	ctx.haveToken = false
	if child != nil {
		ctx.childNodes = append(ctx.childNodes, child)
	}
}

func (ctx *parseCtx[T]) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx[T]) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

// fail records an error describing the current token, unless an error has
// already been recorded.
func (ctx *parseCtx[T]) fail(errFn func(TokenKind, string, Span) error) {
	if err := ctx.ensureToken(); err != nil {
		return
	}
	ctx.err = errFn(ctx.token.Kind, string(ctx.readToken()), ctx.tokenSpan())
}

type peekToken struct {
	kind TokenKind
	raw  string
}

// peek returns up to n upcoming non-trivia tokens, starting at the current
// token, without consuming them.
func (ctx *parseCtx[T]) peek(n int) []peekToken {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	out := make([]peekToken, 0, n)
	src := ctx.src
	token := ctx.token
	tokens := *ctx.tokens
	for len(out) < n {
		if !token.Kind.isTrivia() {
			out = append(out, peekToken{token.Kind, string(src[:token.Len])})
		}
		if token.Kind == T_EOF {
			break
		}
		src = src[token.Len:]
		if err := tokens.Next(&token); err != nil {
			break
		}
	}
	return out
}

func (ctx *parseCtx[T]) peekKind() TokenKind {
	if peeked := ctx.peek(1); len(peeked) > 0 {
		return peeked[0].kind
	}
	return T_EOF
}

// peekIdents returns the text of the next n non-trivia tokens, with an empty
// string for each token that is not an identifier.
func (ctx *parseCtx[T]) peekIdents(n int) []string {
	out := make([]string, n)
	for ii, token := range ctx.peek(n) {
		if token.kind == T_IDENT {
			out[ii] = token.raw
		}
	}
	return out
}

// peekModelRef reports whether the upcoming tokens are a qualified name
// followed by `::`.
func (ctx *parseCtx[T]) peekModelRef() bool {
	return ctx.peekAfterName() == T_DOUBLE_COLON
}

// peekAfterName returns the kind of the token following the upcoming
// qualified name, or T_EOF if no name is upcoming.
func (ctx *parseCtx[T]) peekAfterName() TokenKind {
	peeked := ctx.peek(32)
	if len(peeked) == 0 || peeked[0].kind != T_IDENT {
		return T_EOF
	}
	ii := 1
	for ii+1 < len(peeked) && peeked[ii].kind == T_DOT && peeked[ii+1].kind == T_IDENT {
		ii += 2
	}
	if ii < len(peeked) {
		return peeked[ii].kind
	}
	return T_EOF
}

func (ctx *parseCtx[T]) trivia() {
	for _ = range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			return
		}
		switch ctx.token.Kind {
		case T_SPACE:
			ctx.consumeSpace()
		case T_NEWLINE:
			var child *Newline
			if ctx.opts.saveNewlines {
				child = &Newline{
					crlf:  ctx.token.Len == 2,
					start: ctx.offset,
				}
			}
			ctx.consumeToken(nilIfNil(child))
		case T_COMMENT:
			var child *Comment
			if ctx.opts.saveComments {
				child = &Comment{
					raw:   string(ctx.readToken()),
					start: ctx.offset,
				}
			}
			ctx.consumeToken(nilIfNil(child))
		default:
			return
		}
	}
}

func nilIfNil[P interface {
	*C
	Node
}, C any](child P) Node {
	if child == nil {
		return nil
	}
	return child
}

func (ctx *parseCtx[T]) consumeSpace() {
	if !ctx.opts.saveSpaces {
		ctx.consumeToken(nil)
		return
	}

	tokenBytes := ctx.readToken()
	var token string
	if bytes.Equal(tokenBytes, []uint8{' '}) {
		token = " "
	} else {
		token = string(tokenBytes)
	}
	ctx.consumeToken(&Space{
		raw:   token,
		start: ctx.offset,
	})
}

func (ctx *parseCtx[T]) sigil(kind TokenKind) *Sigil {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != kind {
		ctx.err = errExpectedSigil(
			kind,
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
		return nil
	}
	sigil := &Sigil{
		raw:   string(ctx.readToken()),
		start: ctx.offset,
	}
	ctx.consumeToken(sigil)
	return sigil
}

func (ctx *parseCtx[T]) trySigil(kind TokenKind) bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	if ctx.token.Kind != kind {
		return false
	}
	ctx.sigil(kind)
	return true
}

// nextSigil consumes the sigil, and any trivia before it, when it is the next
// non-trivia token.
func (ctx *parseCtx[T]) nextSigil(kind TokenKind) bool {
	if ctx.peekKind() != kind {
		return false
	}
	ctx.trivia()
	return ctx.trySigil(kind)
}

func (ctx *parseCtx[T]) expect(kind TokenKind) *Sigil {
	ctx.trivia()
	return ctx.sigil(kind)
}

func (ctx *parseCtx[T]) keywordNode(keyword string) *Keyword {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		return nil
	}
	if string(ctx.readToken()) != keyword {
		return nil
	}
	node := &Keyword{
		raw:   keyword,
		start: ctx.offset,
	}
	ctx.consumeToken(node)
	return node
}

func (ctx *parseCtx[T]) tryKeyword(keyword string) bool {
	return ctx.keywordNode(keyword) != nil
}

func (ctx *parseCtx[T]) nextKeyword(keyword string) bool {
	if ctx.peekIdents(1)[0] != keyword {
		return false
	}
	ctx.trivia()
	return ctx.tryKeyword(keyword)
}

func (ctx *parseCtx[T]) keyword(keyword string) {
	ctx.trivia()
	if !ctx.tryKeyword(keyword) && ctx.err == nil {
		ctx.fail(func(kind TokenKind, token string, span Span) error {
			return errExpectedKeyword(keyword, kind, token, span)
		})
	}
}

func (ctx *parseCtx[T]) ident() *Ident {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := string(ctx.readToken())
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedIdent(ctx.token.Kind, token, ctx.tokenSpan())
		return nil
	}
	ident := &Ident{
		raw:     token,
		start:   ctx.offset,
		escaped: ctx.token.flags&tokenFlagIdentEscaped != 0,
	}
	ctx.consumeToken(ident)
	return ident
}

func (ctx *parseCtx[T]) name() *Ident {
	ctx.trivia()
	return ctx.ident()
}

func (ctx *parseCtx[T]) doc() *Doc {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_DOC {
		return nil
	}
	doc := &Doc{
		raw:   string(ctx.readToken()),
		start: ctx.offset,
	}
	ctx.consumeToken(doc)
	return doc
}

func (ctx *parseCtx[T]) text() *TextLit {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := string(ctx.readToken())

	if ctx.token.Kind != T_TEXT_LIT {
		ctx.err = errExpectedTextLit(ctx.token.Kind, token, ctx.tokenSpan())
		return nil
	}
	textNode, err := newTextLit(token, ctx.offset, ctx.token.flags)
	if err != nil {
		ctx.err = err
		return nil
	}
	ctx.consumeToken(textNode)
	return textNode
}

func (ctx *parseCtx[T]) isLiteral() bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	switch ctx.token.Kind {
	case T_TEXT_LIT, T_INT_LIT, T_DECIMAL_LIT:
		return true
	case T_IDENT:
		token := string(ctx.readToken())
		return token == "true" || token == "false"
	}
	return false
}

func (ctx *parseCtx[T]) literal() Literal {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := string(ctx.readToken())

	var node Literal
	var err error
	switch ctx.token.Kind {
	case T_TEXT_LIT:
		if text := ctx.text(); text != nil {
			return text
		}
		return nil
	case T_INT_LIT:
		node, err = newIntLit(token, ctx.offset)
	case T_DECIMAL_LIT:
		node, err = newDecimalLit(token, ctx.offset)
	case T_IDENT:
		if token == "true" || token == "false" {
			node = &BoolLit{
				value: token == "true",
				start: ctx.offset,
			}
		}
	}
	if err != nil {
		ctx.err = err
		return nil
	}
	if node == nil {
		ctx.err = errExpectedLiteral(ctx.token.Kind, token, ctx.tokenSpan())
		return nil
	}
	ctx.consumeToken(node)
	return node
}

func (ctx *parseCtx[T]) finish(
	build func(span Span, childNodes []Node) *T,
) (*T, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}
	span := Span{
		start: ctx.offset - ctx.consumed,
		len:   ctx.consumed,
	}
	return build(span, ctx.childNodes), nil
}

func parseChild[P any, C any, PtrC interface {
	*C
	Node
}](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (PtrC, error),
) (*C, bool) {
	if ctx.err != nil {
		return nil, false
	}
	childCtx := &parseCtx[C]{
		src:       ctx.src,
		opts:      ctx.opts,
		tokens:    ctx.tokens,
		haveToken: ctx.haveToken,
		token:     ctx.token,
		offset:    ctx.offset,
	}
	child, err := parseChildFn(childCtx)
	if err != nil {
		ctx.err = err
		return nil, false
	}
	ctx.haveToken = childCtx.haveToken
	ctx.token = childCtx.token

	if childCtx.consumed == 0 {
		return nil, false
	}
	ctx.src = ctx.src[childCtx.consumed:]
	ctx.consumed += childCtx.consumed
	ctx.offset = childCtx.offset
	ctx.childNodes = append(ctx.childNodes, PtrC(child))
	return child, true
}

// childNode adapts parseChild for parsers whose result is stored as an
// interface value.
func childNode[P any, C any, PtrC interface {
	*C
	Node
}](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (PtrC, error),
) Node {
	child, ok := parseChild(ctx, parseChildFn)
	if !ok {
		return nil
	}
	return PtrC(child)
}

func declChild[P any, C any, PtrC interface {
	*C
	Decl
}](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (PtrC, error),
) Decl {
	child, ok := parseChild(ctx, parseChildFn)
	if !ok {
		return nil
	}
	return PtrC(child)
}

func parseFile(ctx *parseCtx[File]) (*File, error) {
	var imports []*Import
	var namespaces []*NamespaceBlock
	var decls []Decl

	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.err != nil || ctx.token.Kind == T_EOF {
			break
		}
		if imp, ok := parseChild(ctx, parseImport); ok {
			imports = append(imports, imp)
			continue
		}
		if ns, ok := parseChild(ctx, parseNamespace); ok {
			namespaces = append(namespaces, ns)
			continue
		}
		if decl := parseDecl(ctx); decl != nil {
			decls = append(decls, decl)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *File {
		return &File{
			branchNode: branchNode{span, childNodes},
			imports:    imports,
			namespaces: namespaces,
			decls:      decls,
		}
	})
}

func parseImport(ctx *parseCtx[Import]) (*Import, error) {
	if !ctx.tryKeyword("import") {
		return nil, nil
	}
	ctx.trivia()
	name, _ := parseChild(ctx, parseQualifiedName)

	return ctx.finish(func(span Span, childNodes []Node) *Import {
		return &Import{
			branchNode: branchNode{span, childNodes},
			name:       name,
		}
	})
}

func parseNamespace(ctx *parseCtx[NamespaceBlock]) (*NamespaceBlock, error) {
	if !ctx.tryKeyword("namespace") {
		return nil, nil
	}
	ctx.trivia()
	name, _ := parseChild(ctx, parseQualifiedName)
	braced := ctx.nextSigil(T_OPEN_CURL)

	var decls []Decl
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.err != nil {
			break
		}
		if braced {
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
		} else {
			if ctx.token.Kind == T_EOF {
				break
			}
			if ctx.peekIdents(1)[0] == "namespace" {
				return nil, errNamespaceAfterUnbraced(ctx.tokenSpan())
			}
		}
		if decl := parseDecl(ctx); decl != nil {
			decls = append(decls, decl)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *NamespaceBlock {
		return &NamespaceBlock{
			branchNode: branchNode{span, childNodes},
			name:       name,
			braced:     braced,
			decls:      decls,
		}
	})
}

func parseQualifiedName(ctx *parseCtx[QualifiedName]) (*QualifiedName, error) {
	var parts []*Ident
	parts = append(parts, ctx.ident())
	for _ = range ctx.loop {
		if ctx.trySigil(T_DOT) {
			parts = append(parts, ctx.ident())
		}
	}
	return ctx.finish(func(span Span, childNodes []Node) *QualifiedName {
		return &QualifiedName{
			branchNode: branchNode{span, childNodes},
			parts:      parts,
		}
	})
}

func parseDecorators[T any](ctx *parseCtx[T]) (*Doc, []*Annotation) {
	var doc *Doc
	var annotations []*Annotation
	for _ = range ctx.loop {
		ctx.trivia()
		if d := ctx.doc(); d != nil {
			doc = d
			continue
		}
		if annotation, ok := parseChild(ctx, parseAnnotation); ok {
			annotations = append(annotations, annotation)
		}
	}
	return doc, annotations
}

func parseAnnotation(ctx *parseCtx[Annotation]) (*Annotation, error) {
	if !ctx.trySigil(T_AT) {
		return nil, nil
	}
	name, _ := parseChild(ctx, parseQualifiedName)

	var value Literal
	var params []*AnnotationParam
	if ctx.nextSigil(T_OPEN_PAREN) {
		ctx.trivia()
		peeked := ctx.peek(2)
		if len(peeked) == 2 && peeked[0].kind == T_IDENT && peeked[1].kind == T_EQ {
			for _ = range ctx.loop {
				param, _ := parseChild(ctx, parseAnnotationParam)
				params = append(params, param)
				if !ctx.nextSigil(T_COMMA) {
					break
				}
				ctx.trivia()
			}
		} else if ctx.peekKind() != T_CLOSE_PAREN {
			value = ctx.literal()
		}
		ctx.expect(T_CLOSE_PAREN)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Annotation {
		return &Annotation{
			branchNode: branchNode{span, childNodes},
			name:       name,
			value:      value,
			params:     params,
		}
	})
}

func parseAnnotationParam(ctx *parseCtx[AnnotationParam]) (*AnnotationParam, error) {
	name := ctx.ident()
	ctx.expect(T_EQ)
	ctx.trivia()
	value := ctx.literal()

	return ctx.finish(func(span Span, childNodes []Node) *AnnotationParam {
		return &AnnotationParam{
			branchNode: branchNode{span, childNodes},
			name:       name,
			value:      value,
		}
	})
}

func parseDecl[T any](ctx *parseCtx[T]) Decl {
	doc, annotations := parseDecorators(ctx)
	if ctx.err != nil {
		return nil
	}

	words := ctx.peekIdents(3)
	var decl Decl
	switch {
	case words[0] == "type" && words[1] == "alias" && words[2] == "extension":
		decl = declChild(ctx, parseAliasExtension)
	case words[0] == "type" && words[1] == "alias":
		decl = declChild(ctx, parseAliasDecl)
	case words[0] == "type" && words[1] == "extension":
		decl = declChild(ctx, parseTypeExtension)
	case words[0] == "type", words[0] == "model", words[0] == "closed", words[0] == "parameter":
		decl = declChild(ctx, parseTypeDecl)
	case words[0] == "enum" && words[1] == "extension":
		decl = declChild(ctx, parseEnumExtension)
	case words[0] == "enum", words[0] == "lenient":
		decl = declChild(ctx, parseEnumDecl)
	case words[0] == "service":
		decl = declChild(ctx, parseService)
	case words[0] == "policy":
		decl = declChild(ctx, parsePolicy)
	case words[0] == "declare":
		decl = declChild(ctx, parseFunctionDecl)
	case words[0] == "view":
		decl = declChild(ctx, parseView)
	}
	if ctx.err != nil {
		return nil
	}
	if decl == nil {
		token := string(ctx.readToken())
		span := ctx.tokenSpan()
		if ctx.token.Kind == T_IDENT {
			ctx.err = errUnknownDeclaration(token, span)
		} else {
			ctx.err = errExpectedDeclaration(ctx.token.Kind, token, span)
		}
		return nil
	}
	decl.setDecorators(doc, annotations)
	return decl
}

func parseTypeDecl(ctx *parseCtx[TypeDecl]) (*TypeDecl, error) {
	var modifiers []*Keyword
	for _ = range ctx.loop {
		if kw := ctx.keywordNode("closed"); kw != nil {
			modifiers = append(modifiers, kw)
			ctx.trivia()
		} else if kw := ctx.keywordNode("parameter"); kw != nil {
			modifiers = append(modifiers, kw)
			ctx.trivia()
		}
	}

	model := false
	if ctx.tryKeyword("model") {
		model = true
	} else if !ctx.tryKeyword("type") {
		if len(modifiers) == 0 {
			return nil, nil
		}
		ctx.fail(func(kind TokenKind, token string, span Span) error {
			return errExpectedKeyword("type", kind, token, span)
		})
	}
	name := ctx.name()
	inherits := parseInherits(ctx)

	hasBody := false
	var fields []*Field
	if ctx.nextSigil(T_OPEN_CURL) {
		hasBody = true
		for _ = range ctx.loop {
			ctx.trivia()
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			doc, annotations := parseDecorators(ctx)
			if field, ok := parseChild(ctx, parseField); ok {
				field.setDecorators(doc, annotations)
				fields = append(fields, field)
			}
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *TypeDecl {
		return &TypeDecl{
			branchNode: branchNode{span, childNodes},
			modifiers:  modifiers,
			model:      model,
			name:       name,
			inherits:   inherits,
			hasBody:    hasBody,
			fields:     fields,
		}
	})
}

func parseInherits[T any](ctx *parseCtx[T]) []*TypeRef {
	if !ctx.nextKeyword("inherits") {
		return nil
	}
	var inherits []*TypeRef
	for _ = range ctx.loop {
		ctx.trivia()
		typeRef, _ := parseChild(ctx, parseTypeRef)
		inherits = append(inherits, typeRef)
		if !ctx.nextSigil(T_COMMA) {
			break
		}
	}
	return inherits
}

func parseField(ctx *parseCtx[Field]) (*Field, error) {
	closed := false
	if words := ctx.peekIdents(2); words[0] == "closed" && words[1] != "" {
		closed = ctx.tryKeyword("closed")
		ctx.trivia()
	}
	name := ctx.ident()
	ctx.expect(T_COLON)
	ctx.trivia()
	fieldType, _ := parseChild(ctx, parseFieldType)

	var destructure *Destructure
	if ctx.peekKind() == T_OPEN_CURL {
		ctx.trivia()
		destructure, _ = parseChild(ctx, parseDestructure)
	}

	var accessor *Accessor
	if ctx.peekIdents(1)[0] == "by" {
		ctx.trivia()
		accessor, _ = parseChild(ctx, parseAccessor)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Field {
		return &Field{
			branchNode:  branchNode{span, childNodes},
			closed:      closed,
			name:        name,
			fieldType:   fieldType,
			destructure: destructure,
			accessor:    accessor,
		}
	})
}

func parseFieldType(ctx *parseCtx[FieldType]) (*FieldType, error) {
	var types []*TypeRef
	var aliasedAs *TypeRef

	typeRef, _ := parseChild(ctx, parseTypeRef)
	types = append(types, typeRef)
	if ctx.nextKeyword("as") {
		ctx.trivia()
		aliasedAs, _ = parseChild(ctx, parseTypeRef)
	} else {
		for _ = range ctx.loop {
			if ctx.nextSigil(T_PIPE) {
				ctx.trivia()
				member, _ := parseChild(ctx, parseTypeRef)
				types = append(types, member)
			}
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *FieldType {
		return &FieldType{
			branchNode: branchNode{span, childNodes},
			types:      types,
			aliasedAs:  aliasedAs,
		}
	})
}

func parseTypeRef(ctx *parseCtx[TypeRef]) (*TypeRef, error) {
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}
	if ctx.token.Kind != T_IDENT {
		return nil, errExpectedIdent(
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
	}
	name, _ := parseChild(ctx, parseQualifiedName)

	var constraints []*Constraint
	if peeked := ctx.peek(2); len(peeked) == 2 &&
		peeked[0].kind == T_OPEN_PAREN &&
		!(peeked[1].kind == T_IDENT && peeked[1].raw == "joinTo") {
		ctx.nextSigil(T_OPEN_PAREN)
		for _ = range ctx.loop {
			ctx.trivia()
			constraint, _ := parseChild(ctx, parseConstraint)
			constraints = append(constraints, constraint)
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_PAREN)
	}

	arrayDepth := 0
	for _ = range ctx.loop {
		if ctx.nextSigil(T_OPEN_SQUARE) {
			ctx.expect(T_CLOSE_SQUARE)
			arrayDepth += 1
		}
	}
	nullable := ctx.nextSigil(T_QUESTION)

	return ctx.finish(func(span Span, childNodes []Node) *TypeRef {
		return &TypeRef{
			branchNode:  branchNode{span, childNodes},
			name:        name,
			constraints: constraints,
			arrayDepth:  arrayDepth,
			nullable:    nullable,
		}
	})
}

func parseConstraint(ctx *parseCtx[Constraint]) (*Constraint, error) {
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}
	if ctx.token.Kind != T_IDENT {
		return nil, errExpectedConstraint(
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
	}

	var path, valuePath *QualifiedName
	var value Literal
	from := false
	if words := ctx.peekIdents(2); words[0] == "from" && words[1] != "" {
		from = ctx.tryKeyword("from")
		ctx.trivia()
		path, _ = parseChild(ctx, parseQualifiedName)
	} else {
		path, _ = parseChild(ctx, parseQualifiedName)
		ctx.expect(T_EQ)
		ctx.trivia()
		if ctx.isLiteral() {
			value = ctx.literal()
		} else {
			valuePath, _ = parseChild(ctx, parseQualifiedName)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *Constraint {
		return &Constraint{
			branchNode: branchNode{span, childNodes},
			path:       path,
			from:       from,
			value:      value,
			valuePath:  valuePath,
		}
	})
}

func parseAliasDecl(ctx *parseCtx[AliasDecl]) (*AliasDecl, error) {
	if !ctx.tryKeyword("type") {
		return nil, nil
	}
	ctx.keyword("alias")
	name := ctx.name()
	ctx.keyword("as")
	ctx.trivia()
	aliased, _ := parseChild(ctx, parseTypeRef)

	return ctx.finish(func(span Span, childNodes []Node) *AliasDecl {
		return &AliasDecl{
			branchNode: branchNode{span, childNodes},
			name:       name,
			aliased:    aliased,
		}
	})
}

func parseEnumDecl(ctx *parseCtx[EnumDecl]) (*EnumDecl, error) {
	lenient := false
	if ctx.tryKeyword("lenient") {
		lenient = true
		ctx.keyword("enum")
	} else if !ctx.tryKeyword("enum") {
		return nil, nil
	}
	name := ctx.name()

	var values []*EnumValue
	ctx.expect(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		doc, annotations := parseDecorators(ctx)
		if value, ok := parseChild(ctx, parseEnumValue); ok {
			value.setDecorators(doc, annotations)
			values = append(values, value)
		}
		ctx.nextSigil(T_COMMA)
	}

	return ctx.finish(func(span Span, childNodes []Node) *EnumDecl {
		return &EnumDecl{
			branchNode: branchNode{span, childNodes},
			lenient:    lenient,
			name:       name,
			values:     values,
		}
	})
}

func parseEnumValue(ctx *parseCtx[EnumValue]) (*EnumValue, error) {
	isDefault := false
	if words := ctx.peekIdents(2); words[0] == "default" && words[1] != "" {
		isDefault = ctx.tryKeyword("default")
		ctx.trivia()
	}
	name := ctx.ident()

	var value Literal
	if ctx.nextSigil(T_OPEN_PAREN) {
		ctx.trivia()
		value = ctx.literal()
		ctx.expect(T_CLOSE_PAREN)
	}
	synonyms := parseSynonyms(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *EnumValue {
		return &EnumValue{
			branchNode: branchNode{span, childNodes},
			isDefault:  isDefault,
			name:       name,
			value:      value,
			synonyms:   synonyms,
		}
	})
}

func parseSynonyms[T any](ctx *parseCtx[T]) []*QualifiedName {
	if !ctx.nextKeyword("synonym") {
		return nil
	}
	ctx.keyword("of")

	var synonyms []*QualifiedName
	if ctx.nextSigil(T_OPEN_SQUARE) {
		for _ = range ctx.loop {
			ctx.trivia()
			synonym, _ := parseChild(ctx, parseQualifiedName)
			synonyms = append(synonyms, synonym)
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_SQUARE)
	} else {
		ctx.trivia()
		synonym, _ := parseChild(ctx, parseQualifiedName)
		synonyms = append(synonyms, synonym)
	}
	return synonyms
}

func parseTypeExtension(ctx *parseCtx[TypeExtension]) (*TypeExtension, error) {
	if !ctx.tryKeyword("type") {
		return nil, nil
	}
	ctx.keyword("extension")
	name := ctx.name()

	var fields []*FieldExtension
	if ctx.nextSigil(T_OPEN_CURL) {
		for _ = range ctx.loop {
			ctx.trivia()
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			doc, annotations := parseDecorators(ctx)
			if field, ok := parseChild(ctx, parseFieldExtension); ok {
				field.setDecorators(doc, annotations)
				fields = append(fields, field)
			}
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *TypeExtension {
		return &TypeExtension{
			branchNode: branchNode{span, childNodes},
			name:       name,
			fields:     fields,
		}
	})
}

func parseFieldExtension(ctx *parseCtx[FieldExtension]) (*FieldExtension, error) {
	name := ctx.ident()
	var refined *TypeRef
	if ctx.nextSigil(T_COLON) {
		ctx.trivia()
		refined, _ = parseChild(ctx, parseTypeRef)
	}

	return ctx.finish(func(span Span, childNodes []Node) *FieldExtension {
		return &FieldExtension{
			branchNode: branchNode{span, childNodes},
			name:       name,
			refined:    refined,
		}
	})
}

func parseAliasExtension(ctx *parseCtx[AliasExtension]) (*AliasExtension, error) {
	if !ctx.tryKeyword("type") {
		return nil, nil
	}
	ctx.keyword("alias")
	ctx.keyword("extension")
	name := ctx.name()
	if ctx.nextSigil(T_OPEN_CURL) {
		ctx.expect(T_CLOSE_CURL)
	}

	return ctx.finish(func(span Span, childNodes []Node) *AliasExtension {
		return &AliasExtension{
			branchNode: branchNode{span, childNodes},
			name:       name,
		}
	})
}

func parseEnumExtension(ctx *parseCtx[EnumExtension]) (*EnumExtension, error) {
	if !ctx.tryKeyword("enum") {
		return nil, nil
	}
	ctx.keyword("extension")
	name := ctx.name()

	var values []*EnumValueExtension
	if ctx.nextSigil(T_OPEN_CURL) {
		for _ = range ctx.loop {
			ctx.trivia()
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			doc, annotations := parseDecorators(ctx)
			if value, ok := parseChild(ctx, parseEnumValueExtension); ok {
				value.setDecorators(doc, annotations)
				values = append(values, value)
			}
			ctx.nextSigil(T_COMMA)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *EnumExtension {
		return &EnumExtension{
			branchNode: branchNode{span, childNodes},
			name:       name,
			values:     values,
		}
	})
}

func parseEnumValueExtension(
	ctx *parseCtx[EnumValueExtension],
) (*EnumValueExtension, error) {
	name := ctx.ident()
	synonyms := parseSynonyms(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *EnumValueExtension {
		return &EnumValueExtension{
			branchNode: branchNode{span, childNodes},
			name:       name,
			synonyms:   synonyms,
		}
	})
}

func parseService(ctx *parseCtx[Service]) (*Service, error) {
	if !ctx.tryKeyword("service") {
		return nil, nil
	}
	name := ctx.name()

	var operations []*Operation
	ctx.expect(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		doc, annotations := parseDecorators(ctx)
		operation, ok := parseChild(ctx, parseOperation)
		if ctx.err != nil {
			return nil, ctx.err
		}
		if !ok {
			return nil, errExpectedOperation(
				ctx.token.Kind,
				string(ctx.readToken()),
				ctx.tokenSpan(),
			)
		}
		operation.setDecorators(doc, annotations)
		operations = append(operations, operation)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Service {
		return &Service{
			branchNode: branchNode{span, childNodes},
			name:       name,
			operations: operations,
		}
	})
}

func parseOperation(ctx *parseCtx[Operation]) (*Operation, error) {
	if !ctx.tryKeyword("operation") {
		return nil, nil
	}
	name := ctx.name()

	var params []*Param
	ctx.expect(T_OPEN_PAREN)
	if !ctx.nextSigil(T_CLOSE_PAREN) {
		for _ = range ctx.loop {
			_, annotations := parseDecorators(ctx)
			if param, ok := parseChild(ctx, parseParam); ok {
				param.setDecorators(nil, annotations)
				params = append(params, param)
			}
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_PAREN)
	}

	var returnType *TypeRef
	if ctx.nextSigil(T_COLON) {
		ctx.trivia()
		returnType, _ = parseChild(ctx, parseTypeRef)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Operation {
		return &Operation{
			branchNode: branchNode{span, childNodes},
			name:       name,
			params:     params,
			returnType: returnType,
		}
	})
}

func parseParam(ctx *parseCtx[Param]) (*Param, error) {
	var name *Ident
	if peeked := ctx.peek(2); len(peeked) == 2 &&
		peeked[0].kind == T_IDENT &&
		peeked[1].kind == T_COLON {
		name = ctx.ident()
		ctx.expect(T_COLON)
		ctx.trivia()
	}
	typeRef, _ := parseChild(ctx, parseTypeRef)

	return ctx.finish(func(span Span, childNodes []Node) *Param {
		return &Param{
			branchNode: branchNode{span, childNodes},
			name:       name,
			typeRef:    typeRef,
		}
	})
}

func parsePolicy(ctx *parseCtx[Policy]) (*Policy, error) {
	if !ctx.tryKeyword("policy") {
		return nil, nil
	}
	name := ctx.name()
	ctx.keyword("against")
	ctx.trivia()
	target, _ := parseChild(ctx, parseTypeRef)

	var ruleSets []*RuleSet
	ctx.expect(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		ruleSet, _ := parseChild(ctx, parseRuleSet)
		ruleSets = append(ruleSets, ruleSet)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Policy {
		return &Policy{
			branchNode: branchNode{span, childNodes},
			name:       name,
			target:     target,
			ruleSets:   ruleSets,
		}
	})
}

func parseRuleSet(ctx *parseCtx[RuleSet]) (*RuleSet, error) {
	var operationType Node
	if sigil := ctx.trySigil(T_STAR); sigil {
		operationType = ctx.childNodes[len(ctx.childNodes)-1]
	} else if ident := ctx.ident(); ident != nil {
		operationType = ident
	}

	var scope *Ident
	if ctx.peekKind() == T_IDENT {
		scope = ctx.name()
	}

	var statements []*Statement
	var instruction *Instruction
	ctx.expect(T_OPEN_CURL)
	if words := ctx.peekIdents(1); words[0] == "case" || words[0] == "else" {
		for _ = range ctx.loop {
			ctx.trivia()
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			statement, _ := parseChild(ctx, parseStatement)
			statements = append(statements, statement)
		}
	} else {
		if ctx.peekKind() != T_CLOSE_CURL {
			ctx.trivia()
			instruction, _ = parseChild(ctx, parseInstruction)
		}
		ctx.expect(T_CLOSE_CURL)
	}

	return ctx.finish(func(span Span, childNodes []Node) *RuleSet {
		return &RuleSet{
			branchNode:    branchNode{span, childNodes},
			operationType: operationType,
			scope:         scope,
			statements:    statements,
			instruction:   instruction,
		}
	})
}

func parseStatement(ctx *parseCtx[Statement]) (*Statement, error) {
	var lhs, rhs *Subject
	var operator *Sigil
	if ctx.tryKeyword("case") {
		ctx.trivia()
		lhs, _ = parseChild(ctx, parseSubject)
		ctx.trivia()
		if err := ctx.ensureToken(); err != nil {
			return nil, err
		}
		switch ctx.token.Kind {
		case T_EQ, T_NEQ:
			operator = ctx.sigil(ctx.token.Kind)
		default:
			ctx.fail(errExpectedOperator)
		}
		ctx.trivia()
		rhs, _ = parseChild(ctx, parseSubject)
	} else {
		ctx.keyword("else")
	}
	ctx.expect(T_ARROW)
	ctx.trivia()
	instruction, _ := parseChild(ctx, parseInstruction)

	return ctx.finish(func(span Span, childNodes []Node) *Statement {
		return &Statement{
			branchNode:  branchNode{span, childNodes},
			lhs:         lhs,
			operator:    operator,
			rhs:         rhs,
			instruction: instruction,
		}
	})
}

func parseSubject(ctx *parseCtx[Subject]) (*Subject, error) {
	var kind SubjectKind
	var typeRef *TypeRef
	var literals []Literal

	peeked := ctx.peek(2)
	switch {
	case len(peeked) == 2 && peeked[1].kind == T_DOT &&
		(peeked[0].raw == "caller" || peeked[0].raw == "this"):
		kind = SubjectCaller
		if peeked[0].raw == "this" {
			kind = SubjectThis
		}
		ctx.tryKeyword(peeked[0].raw)
		ctx.sigil(T_DOT)
		typeRef, _ = parseChild(ctx, parseTypeRef)
	case ctx.trySigil(T_OPEN_SQUARE):
		kind = SubjectAnyOf
		for _ = range ctx.loop {
			ctx.trivia()
			literals = append(literals, ctx.literal())
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_SQUARE)
	case ctx.isLiteral():
		kind = SubjectLiteral
		literals = append(literals, ctx.literal())
	default:
		ctx.fail(errExpectedSubject)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Subject {
		return &Subject{
			branchNode: branchNode{span, childNodes},
			kind:       kind,
			typeRef:    typeRef,
			literals:   literals,
		}
	})
}

func parseInstruction(ctx *parseCtx[Instruction]) (*Instruction, error) {
	name := ctx.ident()
	var processor *QualifiedName
	if ctx.nextKeyword("using") {
		ctx.trivia()
		processor, _ = parseChild(ctx, parseQualifiedName)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Instruction {
		return &Instruction{
			branchNode: branchNode{span, childNodes},
			name:       name,
			processor:  processor,
		}
	})
}

func parseFunctionDecl(ctx *parseCtx[FunctionDecl]) (*FunctionDecl, error) {
	if !ctx.tryKeyword("declare") {
		return nil, nil
	}
	ctx.keyword("function")
	name := ctx.name()

	var params []*FunctionParam
	ctx.expect(T_OPEN_PAREN)
	if !ctx.nextSigil(T_CLOSE_PAREN) {
		for _ = range ctx.loop {
			ctx.trivia()
			param, _ := parseChild(ctx, parseFunctionParam)
			params = append(params, param)
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_PAREN)
	}
	ctx.expect(T_COLON)
	ctx.trivia()
	returnType, _ := parseChild(ctx, parseTypeRef)

	return ctx.finish(func(span Span, childNodes []Node) *FunctionDecl {
		return &FunctionDecl{
			branchNode: branchNode{span, childNodes},
			name:       name,
			params:     params,
			returnType: returnType,
		}
	})
}

func parseFunctionParam(ctx *parseCtx[FunctionParam]) (*FunctionParam, error) {
	typeRef, _ := parseChild(ctx, parseTypeRef)
	varargs := ctx.nextSigil(T_ELLIPSIS)

	return ctx.finish(func(span Span, childNodes []Node) *FunctionParam {
		return &FunctionParam{
			branchNode: branchNode{span, childNodes},
			typeRef:    typeRef,
			varargs:    varargs,
		}
	})
}

func parseView(ctx *parseCtx[View]) (*View, error) {
	if !ctx.tryKeyword("view") {
		return nil, nil
	}
	name := ctx.name()
	inherits := parseInherits(ctx)
	ctx.keyword("with")
	ctx.keyword("query")

	var finds []*ViewFind
	ctx.expect(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.trivia()
		if len(finds) > 0 && ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		if find, ok := parseChild(ctx, parseViewFind); ok {
			finds = append(finds, find)
		} else if ctx.err == nil {
			ctx.fail(func(kind TokenKind, token string, span Span) error {
				return errExpectedKeyword("find", kind, token, span)
			})
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *View {
		return &View{
			branchNode: branchNode{span, childNodes},
			name:       name,
			inherits:   inherits,
			finds:      finds,
		}
	})
}

func parseViewFind(ctx *parseCtx[ViewFind]) (*ViewFind, error) {
	if !ctx.tryKeyword("find") {
		return nil, nil
	}

	var members []*JoinMember
	ctx.expect(T_OPEN_CURL)
	ctx.trivia()
	first, _ := parseChild(ctx, parseJoinMember)
	members = append(members, first)
	for _ = range ctx.loop {
		if ctx.nextSigil(T_OPEN_PAREN) {
			ctx.keyword("joinTo")
			ctx.trivia()
			member, _ := parseChild(ctx, parseJoinMember)
			members = append(members, member)
			ctx.expect(T_CLOSE_PAREN)
		}
	}
	ctx.expect(T_CLOSE_CURL)

	hasAs := false
	var fields []*ViewField
	if ctx.nextKeyword("as") {
		hasAs = true
		ctx.expect(T_OPEN_CURL)
		for _ = range ctx.loop {
			ctx.trivia()
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			doc, annotations := parseDecorators(ctx)
			if field, ok := parseChild(ctx, parseViewField); ok {
				field.setDecorators(doc, annotations)
				fields = append(fields, field)
			}
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *ViewFind {
		return &ViewFind{
			branchNode: branchNode{span, childNodes},
			members:    members,
			fields:     fields,
			hasAs:      hasAs,
		}
	})
}

func parseJoinMember(ctx *parseCtx[JoinMember]) (*JoinMember, error) {
	var types []*TypeRef
	typeRef, _ := parseChild(ctx, parseTypeRef)
	types = append(types, typeRef)
	for _ = range ctx.loop {
		if ctx.nextSigil(T_PIPE) {
			ctx.trivia()
			member, _ := parseChild(ctx, parseTypeRef)
			types = append(types, member)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *JoinMember {
		return &JoinMember{
			branchNode: branchNode{span, childNodes},
			types:      types,
		}
	})
}

func parseViewField(ctx *parseCtx[ViewField]) (*ViewField, error) {
	name := ctx.ident()
	ctx.expect(T_COLON)
	ctx.trivia()

	var source, sourceType *QualifiedName
	var typeRef *TypeRef
	if ctx.peekModelRef() {
		source, _ = parseChild(ctx, parseQualifiedName)
		ctx.expect(T_DOUBLE_COLON)
		ctx.trivia()
		sourceType, _ = parseChild(ctx, parseQualifiedName)
	} else {
		typeRef, _ = parseChild(ctx, parseTypeRef)
	}

	var accessor *Accessor
	if ctx.peekIdents(1)[0] == "by" {
		ctx.trivia()
		accessor, _ = parseChild(ctx, parseAccessor)
	}

	return ctx.finish(func(span Span, childNodes []Node) *ViewField {
		return &ViewField{
			branchNode: branchNode{span, childNodes},
			name:       name,
			source:     source,
			sourceType: sourceType,
			typeRef:    typeRef,
			accessor:   accessor,
		}
	})
}

func parseDestructure(ctx *parseCtx[Destructure]) (*Destructure, error) {
	if !ctx.trySigil(T_OPEN_CURL) {
		return nil, nil
	}
	var fields []*DestructureField
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		field, _ := parseChild(ctx, parseDestructureField)
		fields = append(fields, field)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Destructure {
		return &Destructure{
			branchNode: branchNode{span, childNodes},
			fields:     fields,
		}
	})
}

func parseDestructureField(ctx *parseCtx[DestructureField]) (*DestructureField, error) {
	name := ctx.ident()
	ctx.trivia()
	accessor, ok := parseChild(ctx, parseAccessor)
	if !ok && ctx.err == nil {
		ctx.fail(func(kind TokenKind, token string, span Span) error {
			return errExpectedKeyword("by", kind, token, span)
		})
	}

	return ctx.finish(func(span Span, childNodes []Node) *DestructureField {
		return &DestructureField{
			branchNode: branchNode{span, childNodes},
			name:       name,
			accessor:   accessor,
		}
	})
}

func parseAccessor(ctx *parseCtx[Accessor]) (*Accessor, error) {
	if !ctx.tryKeyword("by") {
		return nil, nil
	}
	ctx.trivia()
	expr := parseExpr(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *Accessor {
		return &Accessor{
			branchNode: branchNode{span, childNodes},
			expr:       expr,
		}
	})
}

func parseExpr[T any](ctx *parseCtx[T]) Node {
	peeked := ctx.peek(2)
	if len(peeked) == 0 {
		return nil
	}
	if peeked[0].kind == T_OPEN_PAREN {
		return childNode(ctx, parseCalcExpr)
	}
	if peeked[0].kind == T_IDENT {
		switch peeked[0].raw {
		case "xpath", "jsonPath", "column", "default":
			if len(peeked) == 2 && peeked[1].kind == T_OPEN_PAREN {
				return childNode(ctx, parseExtractExpr)
			}
		case "when":
			return childNode(ctx, parseWhenExpr)
		}
		if ctx.peekAfterName() == T_OPEN_PAREN {
			return childNode(ctx, parseCallExpr)
		}
	}
	ctx.fail(errExpectedExpression)
	return nil
}

func parseOperand[T any](ctx *parseCtx[T]) Node {
	if ctx.isLiteral() {
		return ctx.literal()
	}
	if ctx.err != nil {
		return nil
	}
	peeked := ctx.peek(2)
	if len(peeked) > 0 && peeked[0].kind == T_IDENT {
		if peeked[0].raw == "null" {
			node := &NullLit{start: ctx.offset}
			ctx.consumeToken(node)
			return node
		}
		if peeked[0].raw == "this" && len(peeked) == 2 && peeked[1].kind == T_DOT {
			return childNode(ctx, parseThisRef)
		}
		if ctx.peekModelRef() {
			return childNode(ctx, parseModelRef)
		}
	}
	return parseExpr(ctx)
}

func parseExtractExpr(ctx *parseCtx[ExtractExpr]) (*ExtractExpr, error) {
	var kind ExtractKind
	switch {
	case ctx.tryKeyword("xpath"):
		kind = ExtractXPath
	case ctx.tryKeyword("jsonPath"):
		kind = ExtractJSONPath
	case ctx.tryKeyword("column"):
		kind = ExtractColumn
	case ctx.tryKeyword("default"):
		kind = ExtractDefault
	default:
		return nil, nil
	}
	ctx.expect(T_OPEN_PAREN)
	ctx.trivia()
	var argument Literal
	if kind == ExtractXPath || kind == ExtractJSONPath {
		argument = ctx.text()
	} else {
		argument = ctx.literal()
	}
	ctx.expect(T_CLOSE_PAREN)

	return ctx.finish(func(span Span, childNodes []Node) *ExtractExpr {
		return &ExtractExpr{
			branchNode: branchNode{span, childNodes},
			kind:       kind,
			argument:   argument,
		}
	})
}

func parseWhenExpr(ctx *parseCtx[WhenExpr]) (*WhenExpr, error) {
	if !ctx.tryKeyword("when") {
		return nil, nil
	}
	var selector Node
	if ctx.nextSigil(T_OPEN_PAREN) {
		ctx.trivia()
		selector = parseOperand(ctx)
		ctx.expect(T_CLOSE_PAREN)
	}

	var cases []*WhenCase
	ctx.expect(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.trivia()
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		whenCase, _ := parseChild(ctx, parseWhenCase)
		cases = append(cases, whenCase)
		ctx.nextSigil(T_COMMA)
	}

	return ctx.finish(func(span Span, childNodes []Node) *WhenExpr {
		return &WhenExpr{
			branchNode: branchNode{span, childNodes},
			selector:   selector,
			cases:      cases,
		}
	})
}

func parseWhenCase(ctx *parseCtx[WhenCase]) (*WhenCase, error) {
	isElse := false
	var lhs, rhs Node
	var operator *Sigil
	if peeked := ctx.peek(2); len(peeked) == 2 &&
		peeked[0].raw == "else" && peeked[1].kind == T_ARROW {
		isElse = ctx.tryKeyword("else")
	} else {
		lhs = parseOperand(ctx)
		switch ctx.peekKind() {
		case T_EQ, T_NEQ, T_GT, T_GTE, T_LT, T_LTE:
			ctx.trivia()
			operator = ctx.sigil(ctx.token.Kind)
			ctx.trivia()
			rhs = parseOperand(ctx)
		}
	}
	ctx.expect(T_ARROW)
	ctx.trivia()
	result := parseOperand(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *WhenCase {
		return &WhenCase{
			branchNode: branchNode{span, childNodes},
			isElse:     isElse,
			lhs:        lhs,
			operator:   operator,
			rhs:        rhs,
			result:     result,
		}
	})
}

func parseCalcExpr(ctx *parseCtx[CalcExpr]) (*CalcExpr, error) {
	if !ctx.trySigil(T_OPEN_PAREN) {
		return nil, nil
	}
	ctx.trivia()
	lhs := parseOperand(ctx)
	ctx.trivia()

	var operator *Sigil
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}
	switch ctx.token.Kind {
	case T_PLUS, T_MINUS, T_STAR, T_SLASH:
		operator = ctx.sigil(ctx.token.Kind)
	default:
		ctx.fail(errExpectedOperator)
	}
	ctx.trivia()
	rhs := parseOperand(ctx)
	ctx.expect(T_CLOSE_PAREN)

	return ctx.finish(func(span Span, childNodes []Node) *CalcExpr {
		return &CalcExpr{
			branchNode: branchNode{span, childNodes},
			lhs:        lhs,
			operator:   operator,
			rhs:        rhs,
		}
	})
}

func parseCallExpr(ctx *parseCtx[CallExpr]) (*CallExpr, error) {
	name, _ := parseChild(ctx, parseQualifiedName)

	var args []Node
	ctx.expect(T_OPEN_PAREN)
	if !ctx.nextSigil(T_CLOSE_PAREN) {
		for _ = range ctx.loop {
			ctx.trivia()
			args = append(args, parseOperand(ctx))
			if !ctx.nextSigil(T_COMMA) {
				break
			}
		}
		ctx.expect(T_CLOSE_PAREN)
	}

	return ctx.finish(func(span Span, childNodes []Node) *CallExpr {
		return &CallExpr{
			branchNode: branchNode{span, childNodes},
			name:       name,
			args:       args,
		}
	})
}

func parseThisRef(ctx *parseCtx[ThisRef]) (*ThisRef, error) {
	if !ctx.tryKeyword("this") {
		return nil, nil
	}
	ctx.sigil(T_DOT)
	path, _ := parseChild(ctx, parseQualifiedName)

	return ctx.finish(func(span Span, childNodes []Node) *ThisRef {
		return &ThisRef{
			branchNode: branchNode{span, childNodes},
			path:       path,
		}
	})
}

func parseModelRef(ctx *parseCtx[ModelRef]) (*ModelRef, error) {
	source, _ := parseChild(ctx, parseQualifiedName)
	ctx.expect(T_DOUBLE_COLON)
	ctx.trivia()
	typeName, _ := parseChild(ctx, parseQualifiedName)

	return ctx.finish(func(span Span, childNodes []Node) *ModelRef {
		return &ModelRef{
			branchNode: branchNode{span, childNodes},
			source:     source,
			typeName:   typeName,
		}
	})
}
