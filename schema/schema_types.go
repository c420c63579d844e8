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

package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotDefined is returned when an extension is applied to a placeholder
// type whose declaration has not been compiled yet.
var ErrNotDefined = errors.New("type is not defined")

// RedefinitionError reports a second declaration of a name whose body is
// structurally different from the first.
type RedefinitionError struct {
	Kind      string
	Name      string
	Existing  CompilationUnit
	Attempted CompilationUnit
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf(
		"Cannot redefine %s %s: definition in %s conflicts with existing definition in %s",
		e.Kind, e.Name, e.Attempted, e.Existing,
	)
}

// IllegalEnumExtensionError reports an enum extension that names values
// absent from the enum's definition.
type IllegalEnumExtensionError struct {
	Enum  string
	Names []string
}

func (e *IllegalEnumExtensionError) Error() string {
	return "Cannot modify the members in an enum.  An extension attempted to add a new members " +
		strings.Join(e.Names, ", ")
}

type Modifier string

const (
	ModifierClosed    Modifier = "closed"
	ModifierParameter Modifier = "parameter"
)

// Field is one member of an object type.
type Field struct {
	Name        string
	Type        Type
	Nullable    bool
	Closed      bool
	Annotations []*Annotation
	Constraints []Constraint
	Accessor    Accessor
	Doc         string

	// Source is set on fields of a view projection, naming the join member
	// the value is read from.
	Source Type

	Unit CompilationUnit
}

func (f *Field) Equal(other *Field) bool {
	return f.Name == other.Name &&
		typeNamesEqual(f.Type, other.Type) &&
		f.Nullable == other.Nullable &&
		f.Closed == other.Closed &&
		annotationsEqual(f.Annotations, other.Annotations) &&
		constraintsEqual(f.Constraints, other.Constraints) &&
		accessorsEqual(f.Accessor, other.Accessor) &&
		typeNamesEqual(f.Source, other.Source)
}

type ObjectTypeDefinition struct {
	Fields      []*Field
	Annotations []*Annotation
	Modifiers   []Modifier
	Inherits    []*ObjectType
	Doc         string
	Unit        CompilationUnit
}

// Equal compares two definitions structurally. Field, annotation,
// modifier, and inherited type order is not significant.
func (d *ObjectTypeDefinition) Equal(other *ObjectTypeDefinition) bool {
	if len(d.Fields) != len(other.Fields) {
		return false
	}
	for _, field := range d.Fields {
		idx := slices.IndexFunc(other.Fields, func(f *Field) bool {
			return f.Name == field.Name
		})
		if idx < 0 || !field.Equal(other.Fields[idx]) {
			return false
		}
	}
	return annotationsEqual(d.Annotations, other.Annotations) &&
		sameElements(d.Modifiers, other.Modifiers) &&
		sameElements(typeNames(d.Inherits), typeNames(other.Inherits))
}

type ObjectTypeExtension struct {
	Annotations []*Annotation
	Fields      []*FieldExtension
	Doc         string
	Unit        CompilationUnit
}

// FieldExtension adds annotations to a field, and may refine its type to
// another type with the same underlying type.
type FieldExtension struct {
	Name        string
	Annotations []*Annotation
	RefinedType Type
	Doc         string
	Unit        CompilationUnit
}

type ObjectType struct {
	name       string
	def        *ObjectTypeDefinition
	extensions []*ObjectTypeExtension
	units      []CompilationUnit
}

// NewObjectType returns an undefined placeholder.
func NewObjectType(qualifiedName string) *ObjectType {
	return &ObjectType{name: qualifiedName}
}

func (*ObjectType) isType() {}

func (t *ObjectType) QualifiedName() string {
	return t.name
}

func (t *ObjectType) IsDefined() bool {
	return t.def != nil
}

func (t *ObjectType) Definition() *ObjectTypeDefinition {
	return t.def
}

func (t *ObjectType) Extensions() []*ObjectTypeExtension {
	return t.extensions
}

// Define populates a placeholder. Defining an already defined type
// succeeds only if the new definition is structurally equal to the
// existing one, in which case the new compilation unit is recorded.
func (t *ObjectType) Define(def *ObjectTypeDefinition) error {
	if t.def != nil {
		if !t.def.Equal(def) {
			return &RedefinitionError{
				Kind:      "type",
				Name:      t.name,
				Existing:  t.def.Unit,
				Attempted: def.Unit,
			}
		}
		t.units = append(t.units, def.Unit)
		return nil
	}
	t.def = def
	t.units = append(t.units, def.Unit)
	return nil
}

func (t *ObjectType) AddExtension(ext *ObjectTypeExtension) error {
	if t.def == nil {
		return ErrNotDefined
	}
	t.extensions = append(t.extensions, ext)
	t.units = append(t.units, ext.Unit)
	return nil
}

func (t *ObjectType) CompilationUnits() []CompilationUnit {
	return slices.Clone(t.units)
}

func (t *ObjectType) Doc() string {
	if t.def == nil {
		return ""
	}
	docs := []string{t.def.Doc}
	for _, ext := range t.extensions {
		docs = append(docs, ext.Doc)
	}
	return joinDocs(docs)
}

func (t *ObjectType) Annotations() []*Annotation {
	if t.def == nil {
		return nil
	}
	out := slices.Clone(t.def.Annotations)
	for _, ext := range t.extensions {
		out = append(out, ext.Annotations...)
	}
	return out
}

func (t *ObjectType) Modifiers() []Modifier {
	if t.def == nil {
		return nil
	}
	return t.def.Modifiers
}

func (t *ObjectType) IsClosed() bool {
	return slices.Contains(t.Modifiers(), ModifierClosed)
}

func (t *ObjectType) IsParameterType() bool {
	return slices.Contains(t.Modifiers(), ModifierParameter)
}

// Inherits returns the directly inherited types.
func (t *ObjectType) Inherits() []*ObjectType {
	if t.def == nil {
		return nil
	}
	return t.def.Inherits
}

// AllInheritedTypes returns every ancestor, nearest first, each exactly
// once.
func (t *ObjectType) AllInheritedTypes() []*ObjectType {
	var out []*ObjectType
	seen := map[string]bool{t.name: true}
	var visit func(*ObjectType)
	visit = func(current *ObjectType) {
		for _, parent := range current.Inherits() {
			if seen[parent.name] {
				continue
			}
			seen[parent.name] = true
			out = append(out, parent)
			visit(parent)
		}
	}
	visit(t)
	return out
}

// Fields returns the type's own fields with extensions applied.
func (t *ObjectType) Fields() []*Field {
	if t.def == nil {
		return nil
	}
	out := make([]*Field, 0, len(t.def.Fields))
	for _, field := range t.def.Fields {
		merged := *field
		merged.Annotations = slices.Clone(field.Annotations)
		docs := []string{field.Doc}
		for _, ext := range t.extensions {
			for _, fieldExt := range ext.Fields {
				if fieldExt.Name != field.Name {
					continue
				}
				merged.Annotations = append(merged.Annotations, fieldExt.Annotations...)
				if fieldExt.RefinedType != nil {
					merged.Type = fieldExt.RefinedType
				}
				docs = append(docs, fieldExt.Doc)
			}
		}
		merged.Doc = joinDocs(docs)
		out = append(out, &merged)
	}
	return out
}

// AllFields returns the type's own fields followed by inherited fields.
// A field inherited along more than one path appears once.
func (t *ObjectType) AllFields() []*Field {
	out := t.Fields()
	seen := make(map[string]bool, len(out))
	for _, field := range out {
		seen[field.Name] = true
	}
	for _, parent := range t.AllInheritedTypes() {
		for _, field := range parent.Fields() {
			if seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			out = append(out, field)
		}
	}
	return out
}

// Field finds a declared or inherited field by name.
func (t *ObjectType) Field(name string) (*Field, bool) {
	for _, field := range t.AllFields() {
		if field.Name == name {
			return field, true
		}
	}
	return nil, false
}

func (t *ObjectType) ReferencedTypes() []Type {
	if t.def == nil {
		return nil
	}
	var out []Type
	for _, parent := range t.def.Inherits {
		out = append(out, parent)
	}
	for _, field := range t.def.Fields {
		out = appendNamedTypes(out, field.Type)
		out = appendAccessorTypes(out, field.Accessor)
	}
	for _, ext := range t.extensions {
		for _, fieldExt := range ext.Fields {
			out = appendNamedTypes(out, fieldExt.RefinedType)
		}
	}
	return out
}

type EnumValue struct {
	Name          string
	Value         any
	QualifiedName string
	Annotations   []*Annotation
	Synonyms      []string
	Doc           string
	IsDefault     bool
	Unit          CompilationUnit
}

func (v *EnumValue) Equal(other *EnumValue) bool {
	return v.Name == other.Name &&
		FormatLiteral(v.Value) == FormatLiteral(other.Value) &&
		v.IsDefault == other.IsDefault &&
		annotationsEqual(v.Annotations, other.Annotations) &&
		sameElements(v.Synonyms, other.Synonyms)
}

type EnumDefinition struct {
	Values        []*EnumValue
	Annotations   []*Annotation
	BasePrimitive *PrimitiveType
	Lenient       bool
	Doc           string
	Unit          CompilationUnit
}

func (d *EnumDefinition) Equal(other *EnumDefinition) bool {
	if len(d.Values) != len(other.Values) || d.Lenient != other.Lenient {
		return false
	}
	for _, value := range d.Values {
		idx := slices.IndexFunc(other.Values, func(v *EnumValue) bool {
			return v.Name == value.Name
		})
		if idx < 0 || !value.Equal(other.Values[idx]) {
			return false
		}
	}
	return annotationsEqual(d.Annotations, other.Annotations)
}

type EnumExtension struct {
	Values      []*EnumValueExtension
	Annotations []*Annotation
	Doc         string
	Unit        CompilationUnit
}

type EnumValueExtension struct {
	Name        string
	Annotations []*Annotation
	Synonyms    []string
	Doc         string
	Unit        CompilationUnit
}

type EnumType struct {
	name       string
	def        *EnumDefinition
	extensions []*EnumExtension
	units      []CompilationUnit
}

func NewEnumType(qualifiedName string) *EnumType {
	return &EnumType{name: qualifiedName}
}

func (*EnumType) isType() {}

func (t *EnumType) QualifiedName() string {
	return t.name
}

func (t *EnumType) IsDefined() bool {
	return t.def != nil
}

func (t *EnumType) Definition() *EnumDefinition {
	return t.def
}

func (t *EnumType) Define(def *EnumDefinition) error {
	if t.def != nil {
		if !t.def.Equal(def) {
			return &RedefinitionError{
				Kind:      "enum",
				Name:      t.name,
				Existing:  t.def.Unit,
				Attempted: def.Unit,
			}
		}
		t.units = append(t.units, def.Unit)
		return nil
	}
	t.def = def
	t.units = append(t.units, def.Unit)
	return nil
}

// AddExtension merges annotations, documentation, and synonyms into
// existing values. An extension may not introduce new values.
func (t *EnumType) AddExtension(ext *EnumExtension) error {
	if t.def == nil {
		return ErrNotDefined
	}
	var unknown []string
	for _, valueExt := range ext.Values {
		if !slices.ContainsFunc(t.def.Values, func(v *EnumValue) bool {
			return v.Name == valueExt.Name
		}) {
			unknown = append(unknown, valueExt.Name)
		}
	}
	if len(unknown) > 0 {
		return &IllegalEnumExtensionError{Enum: t.name, Names: unknown}
	}
	t.extensions = append(t.extensions, ext)
	t.units = append(t.units, ext.Unit)
	return nil
}

func (t *EnumType) CompilationUnits() []CompilationUnit {
	return slices.Clone(t.units)
}

func (t *EnumType) Doc() string {
	if t.def == nil {
		return ""
	}
	docs := []string{t.def.Doc}
	for _, ext := range t.extensions {
		docs = append(docs, ext.Doc)
	}
	return joinDocs(docs)
}

func (t *EnumType) Annotations() []*Annotation {
	if t.def == nil {
		return nil
	}
	out := slices.Clone(t.def.Annotations)
	for _, ext := range t.extensions {
		out = append(out, ext.Annotations...)
	}
	return out
}

func (t *EnumType) IsLenient() bool {
	return t.def != nil && t.def.Lenient
}

func (t *EnumType) BasePrimitive() *PrimitiveType {
	if t.def == nil || t.def.BasePrimitive == nil {
		return String
	}
	return t.def.BasePrimitive
}

// Values returns the enum's values with extensions merged in.
func (t *EnumType) Values() []*EnumValue {
	if t.def == nil {
		return nil
	}
	out := make([]*EnumValue, 0, len(t.def.Values))
	for _, value := range t.def.Values {
		merged := *value
		merged.Annotations = slices.Clone(value.Annotations)
		merged.Synonyms = slices.Clone(value.Synonyms)
		docs := []string{value.Doc}
		for _, ext := range t.extensions {
			for _, valueExt := range ext.Values {
				if valueExt.Name != value.Name {
					continue
				}
				merged.Annotations = append(merged.Annotations, valueExt.Annotations...)
				merged.Synonyms = append(merged.Synonyms, valueExt.Synonyms...)
				docs = append(docs, valueExt.Doc)
			}
		}
		merged.Doc = joinDocs(docs)
		out = append(out, &merged)
	}
	return out
}

func (t *EnumType) Value(name string) (*EnumValue, bool) {
	for _, value := range t.Values() {
		if value.Name == name {
			return value, true
		}
	}
	return nil, false
}

func (t *EnumType) DefaultValue() (*EnumValue, bool) {
	for _, value := range t.Values() {
		if value.IsDefault {
			return value, true
		}
	}
	return nil, false
}

func (t *EnumType) matchName(value *EnumValue, name string) bool {
	if t.IsLenient() {
		return strings.EqualFold(value.Name, name)
	}
	return value.Name == name
}

func (t *EnumType) matchValue(value *EnumValue, v any) bool {
	want := fmt.Sprint(v)
	got := fmt.Sprint(value.Value)
	if t.IsLenient() {
		return strings.EqualFold(got, want)
	}
	return got == want
}

func (t *EnumType) HasName(name string) bool {
	_, ok := t.OfName(name)
	return ok
}

func (t *EnumType) HasValue(v any) bool {
	_, ok := t.OfValue(v)
	return ok
}

// OfName finds a value by name, falling back to the default value.
func (t *EnumType) OfName(name string) (*EnumValue, bool) {
	for _, value := range t.Values() {
		if t.matchName(value, name) {
			return value, true
		}
	}
	return t.DefaultValue()
}

// OfValue finds a value by its explicit value, falling back to the default
// value.
func (t *EnumType) OfValue(v any) (*EnumValue, bool) {
	for _, value := range t.Values() {
		if t.matchValue(value, v) {
			return value, true
		}
	}
	return t.DefaultValue()
}

// Of matches either a value or a name.
func (t *EnumType) Of(v any) (*EnumValue, bool) {
	for _, value := range t.Values() {
		if t.matchValue(value, v) {
			return value, true
		}
	}
	if name, ok := v.(string); ok {
		for _, value := range t.Values() {
			if t.matchName(value, name) {
				return value, true
			}
		}
	}
	return t.DefaultValue()
}

func (t *EnumType) ReferencedTypes() []Type {
	return nil
}

type TypeAliasDefinition struct {
	AliasType   Type
	Annotations []*Annotation
	Doc         string
	Unit        CompilationUnit
}

func (d *TypeAliasDefinition) Equal(other *TypeAliasDefinition) bool {
	return typeNamesEqual(d.AliasType, other.AliasType) &&
		annotationsEqual(d.Annotations, other.Annotations)
}

type TypeAliasExtension struct {
	Annotations []*Annotation
	Doc         string
	Unit        CompilationUnit
}

type TypeAlias struct {
	name       string
	def        *TypeAliasDefinition
	extensions []*TypeAliasExtension
	units      []CompilationUnit
}

func NewTypeAlias(qualifiedName string) *TypeAlias {
	return &TypeAlias{name: qualifiedName}
}

func (*TypeAlias) isType() {}

func (t *TypeAlias) QualifiedName() string {
	return t.name
}

func (t *TypeAlias) IsDefined() bool {
	return t.def != nil
}

func (t *TypeAlias) Definition() *TypeAliasDefinition {
	return t.def
}

func (t *TypeAlias) Define(def *TypeAliasDefinition) error {
	if t.def != nil {
		if !t.def.Equal(def) {
			return &RedefinitionError{
				Kind:      "type alias",
				Name:      t.name,
				Existing:  t.def.Unit,
				Attempted: def.Unit,
			}
		}
		t.units = append(t.units, def.Unit)
		return nil
	}
	t.def = def
	t.units = append(t.units, def.Unit)
	return nil
}

func (t *TypeAlias) AddExtension(ext *TypeAliasExtension) error {
	if t.def == nil {
		return ErrNotDefined
	}
	t.extensions = append(t.extensions, ext)
	t.units = append(t.units, ext.Unit)
	return nil
}

func (t *TypeAlias) CompilationUnits() []CompilationUnit {
	return slices.Clone(t.units)
}

// AliasType returns the directly aliased type, or nil for a placeholder.
func (t *TypeAlias) AliasType() Type {
	if t.def == nil {
		return nil
	}
	return t.def.AliasType
}

// Annotations lists extension annotations before those of the definition.
func (t *TypeAlias) Annotations() []*Annotation {
	if t.def == nil {
		return nil
	}
	var out []*Annotation
	for _, ext := range t.extensions {
		out = append(out, ext.Annotations...)
	}
	return append(out, t.def.Annotations...)
}

func (t *TypeAlias) Doc() string {
	if t.def == nil {
		return ""
	}
	docs := []string{t.def.Doc}
	for _, ext := range t.extensions {
		docs = append(docs, ext.Doc)
	}
	return joinDocs(docs)
}

// UnderlyingType follows the alias chain to the first type that is not an
// alias.
func (t *TypeAlias) UnderlyingType() Type {
	return Underlying(t)
}

func (t *TypeAlias) ReferencedTypes() []Type {
	if t.def == nil {
		return nil
	}
	return appendNamedTypes(nil, t.def.AliasType)
}

// Underlying dereferences aliases. A placeholder alias, or an alias that
// reaches itself, is returned as is.
func Underlying(t Type) Type {
	seen := make(map[*TypeAlias]bool)
	for {
		alias, ok := t.(*TypeAlias)
		if !ok || alias.def == nil || seen[alias] {
			return t
		}
		seen[alias] = true
		t = alias.def.AliasType
	}
}

func joinDocs(docs []string) string {
	var parts []string
	for _, doc := range docs {
		if doc != "" {
			parts = append(parts, doc)
		}
	}
	return strings.Join(parts, "\n\n")
}
