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
	"strings"

	"github.com/BlexSetlog/taxilang/syntax"
)

type Error struct {
	code       uint32
	message    string
	span       syntax.Span
	sourceName string
	position   syntax.Position
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

// Kind names the class of error, for example "UnresolvedTypeError".
func (err *Error) Kind() string {
	return errorKinds[err.code]
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) SourceName() string {
	return err.sourceName
}

func (err *Error) Position() syntax.Position {
	return err.position
}

func (err *Error) Line() uint32 {
	return err.position.Line
}

func (err *Error) Column() uint32 {
	return err.position.Column
}

// CompilationError is returned by Compiler.Compile when any error was
// reported.
type CompilationError struct {
	Errors []*Error
}

func (e *CompilationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for ii, err := range e.Errors {
		msgs[ii] = fmt.Sprintf(
			"Compilation Error: (%d,%d) %s",
			err.Line(), err.Column(), err.message,
		)
	}
	return strings.Join(msgs, ", ")
}

func (e *CompilationError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for ii, err := range e.Errors {
		out[ii] = err
	}
	return out
}

var errorKinds = map[uint32]string{
	3000: "UnresolvedTypeError",
	3001: "UnresolvedImportError",
	3002: "RedefinitionConflictError",
	3003: "ExtensionBeforeDefinitionError",
	3004: "IncompatibleFieldRefinementError",
	3005: "IllegalEnumMemberModificationError",
	3006: "MissingProcessorNameError",
	3007: "InvalidConditionError",
	3008: "ConstraintTargetNotFoundError",
	3009: "InvalidInheritanceError",
	3010: "InheritedFieldConflictError",
	3011: "CircularAliasError",
	3012: "DuplicateFieldError",
	3013: "DuplicateEnumValueError",
	3014: "ConstraintTypeMismatchError",
	3015: "FieldNotFoundError",
	3016: "UnresolvedFunctionError",
	3017: "FunctionArityError",
	3018: "InvalidViewSourceError",
	3019: "ExtensionKindMismatchError",
	3020: "NotAnEnumValueError",
	3021: "ImportConflictError",
	3022: "CircularInheritanceError",
}

// location is a span within one source.
type location struct {
	src  *source
	span syntax.Span
}

func (at location) newError(code uint32, message string) *Error {
	err := &Error{
		code:    code,
		message: message,
		span:    at.span,
	}
	if at.src != nil {
		err.sourceName = at.src.name
		err.position = at.src.lines.Position(at.span.Start())
	}
	return err
}

func errSyntax(err *syntax.Error, src *source) error {
	return location{src, err.Span()}.newError(err.Code(), err.Message())
}

func errUnresolvedType(name string, at location) error {
	return at.newError(3000, fmt.Sprintf("%s is not defined", name))
}

func errUnresolvedImport(name string, at location) error {
	return at.newError(
		3001,
		fmt.Sprintf("Cannot import %s as it is not defined", name),
	)
}

func errRedefinition(kind, name string, existing, attempted string, at location) error {
	return at.newError(3002, fmt.Sprintf(
		"Cannot redefine %s %s: definition in %s conflicts with existing definition in %s",
		kind, name, attempted, existing,
	))
}

func errExtensionBeforeDefinition(kind string, at location) error {
	return at.newError(3003, fmt.Sprintf(
		"It is invalid to add an extension before the %s is defined",
		kind,
	))
}

func errIncompatibleRefinement(
	field string,
	typeName string,
	refined string,
	refinedUnderlying string,
	original string,
	at location,
) error {
	return at.newError(3004, fmt.Sprintf(
		"Cannot refine field %s on %s to %s as it maps to %s which is"+
			" incompatible with the existing type of %s",
		field, typeName, refined, refinedUnderlying, original,
	))
}

func errIllegalEnumExtension(names []string, at location) error {
	return at.newError(3005, fmt.Sprintf(
		"Cannot modify the members in an enum.  An extension attempted to add a new members %s",
		strings.Join(names, ", "),
	))
}

func errMissingProcessor(at location) error {
	return at.newError(
		3006,
		"A processor must be specified if using instruction of type process",
	)
}

func errUnknownScope(scope string, at location) error {
	return at.newError(3007, fmt.Sprintf("Unknown scope - %s", scope))
}

func errInvalidInstruction(symbol string, at location) error {
	return at.newError(
		3007,
		fmt.Sprintf("Invalid instruction with symbol %s", symbol),
	)
}

func errInvalidOperator(symbol string, at location) error {
	return at.newError(3007, fmt.Sprintf("Invalid operator %s", symbol))
}

func errConstraintTargetNotFound(field, typeName string, at location) error {
	return at.newError(3008, fmt.Sprintf(
		"Cannot apply constraint: no field named '%s' exists on type %s",
		field, typeName,
	))
}

func errConstraintParamNotFound(param, operation string, at location) error {
	return at.newError(3008, fmt.Sprintf(
		"Cannot apply constraint: no parameter named '%s' exists on operation %s",
		param, operation,
	))
}

func errInvalidInheritance(name string, at location) error {
	return at.newError(3009, fmt.Sprintf(
		"Cannot inherit from %s as it is not an object type",
		name,
	))
}

func errInheritedFieldConflict(field, a, b string, at location) error {
	return at.newError(3010, fmt.Sprintf(
		"Field '%s' is inherited from both %s and %s with different types",
		field, a, b,
	))
}

func errCircularAlias(name string, at location) error {
	return at.newError(
		3011,
		fmt.Sprintf("Type alias %s cannot reference itself", name),
	)
}

func errDuplicateField(field, typeName string, at location) error {
	return at.newError(3012, fmt.Sprintf(
		"Field '%s' is already declared on %s",
		field, typeName,
	))
}

func errDuplicateEnumValue(value, enumName string, at location) error {
	return at.newError(3013, fmt.Sprintf(
		"Enum value '%s' is already declared on %s",
		value, enumName,
	))
}

func errConstraintTypeMismatch(field, want, got string, at location) error {
	return at.newError(3014, fmt.Sprintf(
		"Constraint on '%s' expects a %s value, but got %s",
		field, want, got,
	))
}

func errFieldNotFound(field, typeName string, at location) error {
	return at.newError(3015, fmt.Sprintf(
		"No field named '%s' exists on type %s",
		field, typeName,
	))
}

func errUnresolvedFunction(name string, at location) error {
	return at.newError(3016, fmt.Sprintf("Function %s is not defined", name))
}

func errFunctionArity(name, want string, got int, at location) error {
	return at.newError(3017, fmt.Sprintf(
		"Function %s expects %s arguments but got %d",
		name, want, got,
	))
}

func errNotViewSource(source, view string, at location) error {
	return at.newError(
		3018,
		fmt.Sprintf("%s is not a source of view %s", source, view),
	)
}

func errNoFieldOfType(source, typeName string, at location) error {
	return at.newError(
		3018,
		fmt.Sprintf("%s has no field of type %s", source, typeName),
	)
}

func errExtensionKindMismatch(extKind, kind, name string, at location) error {
	return at.newError(3019, fmt.Sprintf(
		"Cannot apply a %s extension to %s %s",
		extKind, kind, name,
	))
}

func errNotAnEnumValue(name string, at location) error {
	return at.newError(3020, fmt.Sprintf("Enum value %s is not defined", name))
}

func errImportConflict(name string, at location) error {
	return at.newError(3021, fmt.Sprintf(
		"Cannot import %s as it has conflicting definitions",
		name,
	))
}

func errCircularInheritance(name, parent string, at location) error {
	return at.newError(3022, fmt.Sprintf(
		"Type %s cannot inherit from %s as it would create an inheritance cycle",
		name, parent,
	))
}
