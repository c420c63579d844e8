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
	"iter"
	"strconv"
	"strings"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

// Contains reports whether offset falls within the span. An empty span
// contains its own start offset.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.start && (offset < s.start+s.len || offset == s.start)
}

type Node interface {
	Span() Span

	ChildNodes() iter.Seq[Node]

	privChildren() []Node

	UnparseTo(buf *bytes.Buffer)
}

func Unparse(node Node) string {
	var buf bytes.Buffer
	node.UnparseTo(&buf)
	return buf.String()
}

func Walk(node Node, walkFn func(Node) bool) {
	if node == nil || !walkFn(node) {
		return
	}
	for _, child := range node.privChildren() {
		Walk(child, walkFn)
	}
	walkFn(nil)
}

func iterChildren(childNodes []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range childNodes {
			if !yield(child) {
				return
			}
		}
	}
}

type leafNode struct{}

func (*leafNode) ChildNodes() iter.Seq[Node] {
	return func(_yield func(Node) bool) {}
}

func (*leafNode) privChildren() []Node {
	return nil
}

type branchNode struct {
	span       Span
	childNodes []Node
}

func (n *branchNode) Span() Span {
	return n.span
}

func (n *branchNode) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.childNodes)
}

func (n *branchNode) privChildren() []Node {
	return n.childNodes
}

func (n *branchNode) UnparseTo(buf *bytes.Buffer) {
	for _, childNode := range n.childNodes {
		childNode.UnparseTo(buf)
	}
}

type Space struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Space)(nil)

func (n *Space) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Space) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

type Newline struct {
	leafNode
	start uint32
	crlf  bool
}

var _ Node = (*Newline)(nil)

func (n *Newline) Span() Span {
	var len uint32
	if n.crlf {
		len = 2
	} else {
		len = 1
	}
	return Span{
		start: n.start,
		len:   len,
	}
}

func (n *Newline) UnparseTo(buf *bytes.Buffer) {
	if n.crlf {
		buf.WriteString("\r\n")
	} else {
		buf.WriteByte('\n')
	}
}

type Comment struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Comment)(nil)

func (n *Comment) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Comment) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Comment) Text() string {
	return n.raw
}

// Doc is a `[[ ... ]]` documentation block.
type Doc struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Doc)(nil)

func (n *Doc) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Doc) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

// Text returns the block content with the delimiters and surrounding
// whitespace removed.
func (n *Doc) Text() string {
	return strings.TrimSpace(n.raw[2 : len(n.raw)-2])
}

// Literal is implemented by the literal value nodes: [TextLit], [IntLit],
// [DecimalLit], [BoolLit] and [NullLit].
type Literal interface {
	Node
	Value() any
	isLiteral()
}

type IntLit struct {
	leafNode
	raw   string
	value int64
	start uint32
}

var _ Literal = (*IntLit)(nil)

func (n *IntLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *IntLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (*IntLit) isLiteral() {}

func (n *IntLit) Value() any {
	return n.value
}

func (n *IntLit) GetInt64() int64 {
	return n.value
}

func newIntLit(token string, start uint32) (*IntLit, error) {
	value, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, errNumLitOutOfRange(start, token)
	}
	return &IntLit{
		raw:   token,
		value: value,
		start: start,
	}, nil
}

type DecimalLit struct {
	leafNode
	raw   string
	value float64
	start uint32
}

var _ Literal = (*DecimalLit)(nil)

func (n *DecimalLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *DecimalLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (*DecimalLit) isLiteral() {}

func (n *DecimalLit) Value() any {
	return n.value
}

func (n *DecimalLit) Raw() string {
	return n.raw
}

func newDecimalLit(token string, start uint32) (*DecimalLit, error) {
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil, errNumLitOutOfRange(start, token)
	}
	return &DecimalLit{
		raw:   token,
		value: value,
		start: start,
	}, nil
}

type TextLit struct {
	leafNode
	raw   string
	value string
	start uint32
}

var _ Literal = (*TextLit)(nil)

func (n *TextLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *TextLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (*TextLit) isLiteral() {}

func (n *TextLit) Value() any {
	return n.value
}

func (n *TextLit) Get() string {
	return n.value
}

func newTextLit(token string, start uint32, flags uint8) (*TextLit, error) {
	value := token[1 : len(token)-1]
	if flags&tokenFlagTextHasNoEscapes != 0 {
		return &TextLit{
			raw:   token,
			value: value,
			start: start,
		}, nil
	}

	var buf strings.Builder
	escaped := false
	for ii := 0; ii < len(value); ii++ {
		c := value[ii]
		if !escaped {
			if c == '\\' {
				escaped = true
			} else {
				buf.WriteByte(c)
			}
			continue
		}
		escaped = false

		switch c {
		case '"', '\'', '\\':
			buf.WriteByte(c)
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		default:
			return nil, errTextLitInvalid(start, token)
		}
	}
	if escaped {
		return nil, errTextLitInvalid(start, token)
	}
	return &TextLit{
		raw:   token,
		value: buf.String(),
		start: start,
	}, nil
}

type BoolLit struct {
	leafNode
	value bool
	start uint32
}

var _ Literal = (*BoolLit)(nil)

func (n *BoolLit) Span() Span {
	if n.value {
		return Span{n.start, 4}
	}
	return Span{n.start, 5}
}

func (n *BoolLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(strconv.FormatBool(n.value))
}

func (*BoolLit) isLiteral() {}

func (n *BoolLit) Value() any {
	return n.value
}

func (n *BoolLit) Get() bool {
	return n.value
}

type NullLit struct {
	leafNode
	start uint32
}

var _ Literal = (*NullLit)(nil)

func (n *NullLit) Span() Span {
	return Span{n.start, 4}
}

func (n *NullLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString("null")
}

func (*NullLit) isLiteral() {}

func (n *NullLit) Value() any {
	return nil
}

type Sigil struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Sigil)(nil)

func (n *Sigil) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Sigil) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Sigil) Get() string {
	return n.raw
}

type Ident struct {
	leafNode
	raw     string
	start   uint32
	escaped bool
}

var _ Node = (*Ident)(nil)

func (n *Ident) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Ident) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Ident) Get() string {
	return n.raw
}

// Unescaped returns the identifier with any enclosing backticks removed.
func (n *Ident) Unescaped() string {
	if n.escaped {
		return n.raw[1 : len(n.raw)-1]
	}
	return n.raw
}

type Keyword struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Keyword)(nil)

func (n *Keyword) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Keyword) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Keyword) Get() string {
	return n.raw
}

type decorated struct {
	doc         *Doc
	annotations []*Annotation
}

func (n *decorated) Doc() *Doc {
	return n.doc
}

func (n *decorated) Annotations() []*Annotation {
	return n.annotations
}

func (n *decorated) setDecorators(doc *Doc, annotations []*Annotation) {
	n.doc = doc
	n.annotations = annotations
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	Name() *Ident
	Doc() *Doc
	Annotations() []*Annotation
	setDecorators(doc *Doc, annotations []*Annotation)
	isDecl()
}

type File struct {
	branchNode

	imports    []*Import
	namespaces []*NamespaceBlock
	decls      []Decl
}

var _ Node = (*File)(nil)

func (n *File) Imports() []*Import {
	return n.imports
}

func (n *File) Namespaces() []*NamespaceBlock {
	return n.namespaces
}

// Decls returns the declarations that are not enclosed in a namespace.
func (n *File) Decls() []Decl {
	return n.decls
}

type Import struct {
	branchNode

	name *QualifiedName
}

var _ Node = (*Import)(nil)

func (n *Import) Name() *QualifiedName {
	return n.name
}

type NamespaceBlock struct {
	branchNode

	name   *QualifiedName
	braced bool
	decls  []Decl
}

var _ Node = (*NamespaceBlock)(nil)

func (n *NamespaceBlock) Name() *QualifiedName {
	return n.name
}

func (n *NamespaceBlock) Braced() bool {
	return n.braced
}

func (n *NamespaceBlock) Decls() []Decl {
	return n.decls
}

type QualifiedName struct {
	branchNode

	parts []*Ident
}

var _ Node = (*QualifiedName)(nil)

func (n *QualifiedName) Parts() []*Ident {
	return n.parts
}

func (n *QualifiedName) String() string {
	if len(n.parts) == 1 {
		return n.parts[0].Unescaped()
	}
	var buf strings.Builder
	for ii, part := range n.parts {
		if ii > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(part.Unescaped())
	}
	return buf.String()
}

type Annotation struct {
	branchNode

	name   *QualifiedName
	value  Literal
	params []*AnnotationParam
}

var _ Node = (*Annotation)(nil)

func (n *Annotation) Name() *QualifiedName {
	return n.name
}

// Value returns the single unnamed argument, if any.
func (n *Annotation) Value() Literal {
	return n.value
}

func (n *Annotation) Params() []*AnnotationParam {
	return n.params
}

type AnnotationParam struct {
	branchNode

	name  *Ident
	value Literal
}

var _ Node = (*AnnotationParam)(nil)

func (n *AnnotationParam) Name() *Ident {
	return n.name
}

func (n *AnnotationParam) Value() Literal {
	return n.value
}

type TypeDecl struct {
	branchNode
	decorated

	modifiers []*Keyword
	model     bool
	name      *Ident
	inherits  []*TypeRef
	hasBody   bool
	fields    []*Field
}

var _ Decl = (*TypeDecl)(nil)

func (*TypeDecl) isDecl() {}

func (n *TypeDecl) Name() *Ident {
	return n.name
}

func (n *TypeDecl) Modifiers() []*Keyword {
	return n.modifiers
}

// IsModel reports whether the declaration used the `model` keyword.
func (n *TypeDecl) IsModel() bool {
	return n.model
}

func (n *TypeDecl) Inherits() []*TypeRef {
	return n.inherits
}

func (n *TypeDecl) HasBody() bool {
	return n.hasBody
}

func (n *TypeDecl) Fields() []*Field {
	return n.fields
}

type Field struct {
	branchNode
	decorated

	closed      bool
	name        *Ident
	fieldType   *FieldType
	destructure *Destructure
	accessor    *Accessor
}

var _ Node = (*Field)(nil)

func (n *Field) Closed() bool {
	return n.closed
}

func (n *Field) Name() *Ident {
	return n.name
}

func (n *Field) FieldType() *FieldType {
	return n.fieldType
}

func (n *Field) Destructure() *Destructure {
	return n.destructure
}

func (n *Field) Accessor() *Accessor {
	return n.accessor
}

// FieldType is the type position of a field: a type reference, an inline
// alias declaration (`Name as Type`), or a union of two or more types.
type FieldType struct {
	branchNode

	types     []*TypeRef
	aliasedAs *TypeRef
}

var _ Node = (*FieldType)(nil)

func (n *FieldType) TypeRef() *TypeRef {
	return n.types[0]
}

func (n *FieldType) UnionMembers() []*TypeRef {
	if len(n.types) < 2 {
		return nil
	}
	return n.types
}

// InlineAliasOf returns the aliased type when the field declares an inline
// alias. The alias name is [FieldType.TypeRef].
func (n *FieldType) InlineAliasOf() *TypeRef {
	return n.aliasedAs
}

type TypeRef struct {
	branchNode

	name        *QualifiedName
	constraints []*Constraint
	arrayDepth  int
	nullable    bool
}

var _ Node = (*TypeRef)(nil)

func (n *TypeRef) Name() *QualifiedName {
	return n.name
}

func (n *TypeRef) Constraints() []*Constraint {
	return n.constraints
}

func (n *TypeRef) ArrayDepth() int {
	return n.arrayDepth
}

func (n *TypeRef) Nullable() bool {
	return n.nullable
}

type Constraint struct {
	branchNode

	path      *QualifiedName
	from      bool
	value     Literal
	valuePath *QualifiedName
}

var _ Node = (*Constraint)(nil)

// Path is the constrained attribute, or the source path of a `from`
// constraint.
func (n *Constraint) Path() *QualifiedName {
	return n.path
}

func (n *Constraint) IsFrom() bool {
	return n.from
}

func (n *Constraint) Value() Literal {
	return n.value
}

func (n *Constraint) ValuePath() *QualifiedName {
	return n.valuePath
}

type AliasDecl struct {
	branchNode
	decorated

	name    *Ident
	aliased *TypeRef
}

var _ Decl = (*AliasDecl)(nil)

func (*AliasDecl) isDecl() {}

func (n *AliasDecl) Name() *Ident {
	return n.name
}

func (n *AliasDecl) Aliased() *TypeRef {
	return n.aliased
}

type EnumDecl struct {
	branchNode
	decorated

	lenient bool
	name    *Ident
	values  []*EnumValue
}

var _ Decl = (*EnumDecl)(nil)

func (*EnumDecl) isDecl() {}

func (n *EnumDecl) Name() *Ident {
	return n.name
}

func (n *EnumDecl) Lenient() bool {
	return n.lenient
}

func (n *EnumDecl) Values() []*EnumValue {
	return n.values
}

type EnumValue struct {
	branchNode
	decorated

	isDefault bool
	name      *Ident
	value     Literal
	synonyms  []*QualifiedName
}

var _ Node = (*EnumValue)(nil)

func (n *EnumValue) IsDefault() bool {
	return n.isDefault
}

func (n *EnumValue) Name() *Ident {
	return n.name
}

func (n *EnumValue) Value() Literal {
	return n.value
}

func (n *EnumValue) Synonyms() []*QualifiedName {
	return n.synonyms
}

type TypeExtension struct {
	branchNode
	decorated

	name   *Ident
	fields []*FieldExtension
}

var _ Decl = (*TypeExtension)(nil)

func (*TypeExtension) isDecl() {}

func (n *TypeExtension) Name() *Ident {
	return n.name
}

func (n *TypeExtension) Fields() []*FieldExtension {
	return n.fields
}

type FieldExtension struct {
	branchNode
	decorated

	name    *Ident
	refined *TypeRef
}

var _ Node = (*FieldExtension)(nil)

func (n *FieldExtension) Name() *Ident {
	return n.name
}

// RefinedType returns the replacement type, or nil when the extension only
// adds metadata.
func (n *FieldExtension) RefinedType() *TypeRef {
	return n.refined
}

type AliasExtension struct {
	branchNode
	decorated

	name *Ident
}

var _ Decl = (*AliasExtension)(nil)

func (*AliasExtension) isDecl() {}

func (n *AliasExtension) Name() *Ident {
	return n.name
}

type EnumExtension struct {
	branchNode
	decorated

	name   *Ident
	values []*EnumValueExtension
}

var _ Decl = (*EnumExtension)(nil)

func (*EnumExtension) isDecl() {}

func (n *EnumExtension) Name() *Ident {
	return n.name
}

func (n *EnumExtension) Values() []*EnumValueExtension {
	return n.values
}

type EnumValueExtension struct {
	branchNode
	decorated

	name     *Ident
	synonyms []*QualifiedName
}

var _ Node = (*EnumValueExtension)(nil)

func (n *EnumValueExtension) Name() *Ident {
	return n.name
}

func (n *EnumValueExtension) Synonyms() []*QualifiedName {
	return n.synonyms
}

type Service struct {
	branchNode
	decorated

	name       *Ident
	operations []*Operation
}

var _ Decl = (*Service)(nil)

func (*Service) isDecl() {}

func (n *Service) Name() *Ident {
	return n.name
}

func (n *Service) Operations() []*Operation {
	return n.operations
}

type Operation struct {
	branchNode
	decorated

	name       *Ident
	params     []*Param
	returnType *TypeRef
}

var _ Node = (*Operation)(nil)

func (n *Operation) Name() *Ident {
	return n.name
}

func (n *Operation) Params() []*Param {
	return n.params
}

// ReturnType is nil for operations that return nothing.
func (n *Operation) ReturnType() *TypeRef {
	return n.returnType
}

type Param struct {
	branchNode
	decorated

	name    *Ident
	typeRef *TypeRef
}

var _ Node = (*Param)(nil)

// Name is nil for unnamed parameters.
func (n *Param) Name() *Ident {
	return n.name
}

func (n *Param) TypeRef() *TypeRef {
	return n.typeRef
}

type Policy struct {
	branchNode
	decorated

	name     *Ident
	target   *TypeRef
	ruleSets []*RuleSet
}

var _ Decl = (*Policy)(nil)

func (*Policy) isDecl() {}

func (n *Policy) Name() *Ident {
	return n.name
}

func (n *Policy) Target() *TypeRef {
	return n.target
}

func (n *Policy) RuleSets() []*RuleSet {
	return n.ruleSets
}

type RuleSet struct {
	branchNode

	operationType Node
	scope         *Ident
	statements    []*Statement
	instruction   *Instruction
}

var _ Node = (*RuleSet)(nil)

// OperationType is an [*Ident] or the wildcard [*Sigil] `*`.
func (n *RuleSet) OperationType() Node {
	return n.operationType
}

func (n *RuleSet) Scope() *Ident {
	return n.scope
}

func (n *RuleSet) Statements() []*Statement {
	return n.statements
}

// Instruction is set when the rule set body is a bare instruction rather
// than a list of statements.
func (n *RuleSet) Instruction() *Instruction {
	return n.instruction
}

type Statement struct {
	branchNode

	lhs         *Subject
	operator    *Sigil
	rhs         *Subject
	instruction *Instruction
}

var _ Node = (*Statement)(nil)

// IsElse reports whether this is the unconditional `else` statement.
func (n *Statement) IsElse() bool {
	return n.lhs == nil
}

func (n *Statement) Lhs() *Subject {
	return n.lhs
}

func (n *Statement) Operator() *Sigil {
	return n.operator
}

func (n *Statement) Rhs() *Subject {
	return n.rhs
}

func (n *Statement) Instruction() *Instruction {
	return n.instruction
}

type SubjectKind uint8

const (
	SubjectLiteral SubjectKind = iota
	SubjectAnyOf
	SubjectCaller
	SubjectThis
)

type Subject struct {
	branchNode

	kind     SubjectKind
	typeRef  *TypeRef
	literals []Literal
}

var _ Node = (*Subject)(nil)

func (n *Subject) Kind() SubjectKind {
	return n.kind
}

// TypeRef is set for caller and this subjects.
func (n *Subject) TypeRef() *TypeRef {
	return n.typeRef
}

func (n *Subject) Literals() []Literal {
	return n.literals
}

type Instruction struct {
	branchNode

	name      *Ident
	processor *QualifiedName
}

var _ Node = (*Instruction)(nil)

func (n *Instruction) Name() *Ident {
	return n.name
}

func (n *Instruction) Processor() *QualifiedName {
	return n.processor
}

type FunctionDecl struct {
	branchNode
	decorated

	name       *Ident
	params     []*FunctionParam
	returnType *TypeRef
}

var _ Decl = (*FunctionDecl)(nil)

func (*FunctionDecl) isDecl() {}

func (n *FunctionDecl) Name() *Ident {
	return n.name
}

func (n *FunctionDecl) Params() []*FunctionParam {
	return n.params
}

func (n *FunctionDecl) ReturnType() *TypeRef {
	return n.returnType
}

type FunctionParam struct {
	branchNode

	typeRef *TypeRef
	varargs bool
}

var _ Node = (*FunctionParam)(nil)

func (n *FunctionParam) TypeRef() *TypeRef {
	return n.typeRef
}

func (n *FunctionParam) IsVarargs() bool {
	return n.varargs
}

type View struct {
	branchNode
	decorated

	name     *Ident
	inherits []*TypeRef
	finds    []*ViewFind
}

var _ Decl = (*View)(nil)

func (*View) isDecl() {}

func (n *View) Name() *Ident {
	return n.name
}

func (n *View) Inherits() []*TypeRef {
	return n.inherits
}

func (n *View) Finds() []*ViewFind {
	return n.finds
}

type ViewFind struct {
	branchNode

	members []*JoinMember
	fields  []*ViewField
	hasAs   bool
}

var _ Node = (*ViewFind)(nil)

// Members returns the joined members in order; the first is the join's left
// side.
func (n *ViewFind) Members() []*JoinMember {
	return n.members
}

func (n *ViewFind) HasAs() bool {
	return n.hasAs
}

func (n *ViewFind) Fields() []*ViewField {
	return n.fields
}

type JoinMember struct {
	branchNode

	types []*TypeRef
}

var _ Node = (*JoinMember)(nil)

func (n *JoinMember) Types() []*TypeRef {
	return n.types
}

type ViewField struct {
	branchNode
	decorated

	name       *Ident
	source     *QualifiedName
	sourceType *QualifiedName
	typeRef    *TypeRef
	accessor   *Accessor
}

var _ Node = (*ViewField)(nil)

func (n *ViewField) Name() *Ident {
	return n.name
}

// Source and SourceType are set for `Source::Type` fields.
func (n *ViewField) Source() *QualifiedName {
	return n.source
}

func (n *ViewField) SourceType() *QualifiedName {
	return n.sourceType
}

// TypeRef is set for fields declared with a plain type.
func (n *ViewField) TypeRef() *TypeRef {
	return n.typeRef
}

func (n *ViewField) Accessor() *Accessor {
	return n.accessor
}

type Destructure struct {
	branchNode

	fields []*DestructureField
}

var _ Node = (*Destructure)(nil)

func (n *Destructure) Fields() []*DestructureField {
	return n.fields
}

type DestructureField struct {
	branchNode

	name     *Ident
	accessor *Accessor
}

var _ Node = (*DestructureField)(nil)

func (n *DestructureField) Name() *Ident {
	return n.name
}

func (n *DestructureField) Accessor() *Accessor {
	return n.accessor
}

// Accessor is a `by <expr>` clause.
type Accessor struct {
	branchNode

	expr Node
}

var _ Node = (*Accessor)(nil)

func (n *Accessor) Expr() Node {
	return n.expr
}

type ExtractKind uint8

const (
	ExtractXPath ExtractKind = iota
	ExtractJSONPath
	ExtractColumn
	ExtractDefault
)

// ExtractExpr is one of `xpath(..)`, `jsonPath(..)`, `column(..)` or
// `default(..)`.
type ExtractExpr struct {
	branchNode

	kind     ExtractKind
	argument Literal
}

var _ Node = (*ExtractExpr)(nil)

func (n *ExtractExpr) Kind() ExtractKind {
	return n.kind
}

func (n *ExtractExpr) Argument() Literal {
	return n.argument
}

type WhenExpr struct {
	branchNode

	selector Node
	cases    []*WhenCase
}

var _ Node = (*WhenExpr)(nil)

// Selector is nil for a `when` without a selector expression.
func (n *WhenExpr) Selector() Node {
	return n.selector
}

func (n *WhenExpr) Cases() []*WhenCase {
	return n.cases
}

type WhenCase struct {
	branchNode

	isElse   bool
	lhs      Node
	operator *Sigil
	rhs      Node
	result   Node
}

var _ Node = (*WhenCase)(nil)

func (n *WhenCase) IsElse() bool {
	return n.isElse
}

func (n *WhenCase) Lhs() Node {
	return n.lhs
}

// Operator is nil when the case matches a single value.
func (n *WhenCase) Operator() *Sigil {
	return n.operator
}

func (n *WhenCase) Rhs() Node {
	return n.rhs
}

func (n *WhenCase) Result() Node {
	return n.result
}

// CalcExpr is a parenthesised binary arithmetic expression.
type CalcExpr struct {
	branchNode

	lhs      Node
	operator *Sigil
	rhs      Node
}

var _ Node = (*CalcExpr)(nil)

func (n *CalcExpr) Lhs() Node {
	return n.lhs
}

func (n *CalcExpr) Operator() *Sigil {
	return n.operator
}

func (n *CalcExpr) Rhs() Node {
	return n.rhs
}

type CallExpr struct {
	branchNode

	name *QualifiedName
	args []Node
}

var _ Node = (*CallExpr)(nil)

func (n *CallExpr) Name() *QualifiedName {
	return n.name
}

func (n *CallExpr) Args() []Node {
	return n.args
}

// ThisRef is a `this.path` reference to a field of the enclosing type.
type ThisRef struct {
	branchNode

	path *QualifiedName
}

var _ Node = (*ThisRef)(nil)

func (n *ThisRef) Path() *QualifiedName {
	return n.path
}

// ModelRef is a `Source::Type` reference to an attribute of a view source.
type ModelRef struct {
	branchNode

	source   *QualifiedName
	typeName *QualifiedName
}

var _ Node = (*ModelRef)(nil)

func (n *ModelRef) Source() *QualifiedName {
	return n.source
}

func (n *ModelRef) TypeName() *QualifiedName {
	return n.typeName
}
