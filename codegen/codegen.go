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

// Package codegen defines the messages exchanged between the taxi CLI and
// code generator plugins. A request is a flattened view of a compiled
// document; a response lists the files the plugin generated.
//
// Messages are YAML documents. In plugin memory each message is framed by
// a little-endian uint32 holding the total frame length, prefix included.
package codegen

import (
	"encoding/binary"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/BlexSetlog/taxilang/schema"
)

type Request struct {
	Types    []*TypeDecl       `yaml:"types,omitempty"`
	Enums    []*EnumDecl       `yaml:"enums,omitempty"`
	Aliases  []*AliasDecl      `yaml:"aliases,omitempty"`
	Services []*ServiceDecl    `yaml:"services,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// TypeRef names a type. Arrays are flattened into ArrayDepth, and a union
// lists its members instead of a name.
type TypeRef struct {
	Name       string   `yaml:"name,omitempty"`
	ArrayDepth int      `yaml:"arrayDepth,omitempty"`
	Union      []string `yaml:"union,omitempty"`
}

type TypeDecl struct {
	Name     string       `yaml:"name"`
	Doc      string       `yaml:"doc,omitempty"`
	Inherits []string     `yaml:"inherits,omitempty"`
	Fields   []*FieldDecl `yaml:"fields,omitempty"`
}

type FieldDecl struct {
	Name     string  `yaml:"name"`
	Type     TypeRef `yaml:"type"`
	Nullable bool    `yaml:"nullable,omitempty"`
	Doc      string  `yaml:"doc,omitempty"`
}

type EnumDecl struct {
	Name   string           `yaml:"name"`
	Doc    string           `yaml:"doc,omitempty"`
	Base   string           `yaml:"base"`
	Values []*EnumValueDecl `yaml:"values"`
}

type EnumValueDecl struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Doc   string `yaml:"doc,omitempty"`
}

type AliasDecl struct {
	Name    string  `yaml:"name"`
	Doc     string  `yaml:"doc,omitempty"`
	Aliases TypeRef `yaml:"aliases"`
}

type ServiceDecl struct {
	Name       string           `yaml:"name"`
	Doc        string           `yaml:"doc,omitempty"`
	Operations []*OperationDecl `yaml:"operations,omitempty"`
}

type OperationDecl struct {
	Name    string       `yaml:"name"`
	Doc     string       `yaml:"doc,omitempty"`
	Params  []*ParamDecl `yaml:"params,omitempty"`
	Returns *TypeRef     `yaml:"returns,omitempty"`
}

type ParamDecl struct {
	Name string  `yaml:"name"`
	Type TypeRef `yaml:"type"`
}

type Response struct {
	Files []*OutputFile `yaml:"files,omitempty"`
	Error string        `yaml:"error,omitempty"`
}

// OutputFile is one generated file. Path is relative to the output
// directory, one element per path component.
type OutputFile struct {
	Path    []string `yaml:"path"`
	Content string   `yaml:"content"`
}

// NewRequest flattens a document into a codegen request. Declarations
// appear sorted by qualified name.
func NewRequest(doc *schema.Document, options map[string]string) *Request {
	req := &Request{Options: options}
	for _, t := range doc.Types() {
		switch t := t.(type) {
		case *schema.ObjectType:
			decl := &TypeDecl{
				Name: t.QualifiedName(),
				Doc:  t.Doc(),
			}
			for _, parent := range t.Inherits() {
				decl.Inherits = append(decl.Inherits, parent.QualifiedName())
			}
			for _, field := range t.Fields() {
				decl.Fields = append(decl.Fields, &FieldDecl{
					Name:     field.Name,
					Type:     typeRef(field.Type),
					Nullable: field.Nullable,
					Doc:      field.Doc,
				})
			}
			req.Types = append(req.Types, decl)
		case *schema.EnumType:
			decl := &EnumDecl{
				Name: t.QualifiedName(),
				Doc:  t.Doc(),
				Base: t.BasePrimitive().QualifiedName(),
			}
			for _, value := range t.Values() {
				decl.Values = append(decl.Values, &EnumValueDecl{
					Name:  value.Name,
					Value: fmt.Sprint(value.Value),
					Doc:   value.Doc,
				})
			}
			req.Enums = append(req.Enums, decl)
		case *schema.TypeAlias:
			decl := &AliasDecl{
				Name: t.QualifiedName(),
				Doc:  t.Doc(),
			}
			if aliased := t.AliasType(); aliased != nil {
				decl.Aliases = typeRef(aliased)
			}
			req.Aliases = append(req.Aliases, decl)
		}
	}
	for _, service := range doc.Services() {
		decl := &ServiceDecl{
			Name: service.QualifiedName(),
			Doc:  service.Doc,
		}
		for _, op := range service.Operations {
			opDecl := &OperationDecl{
				Name: op.Name,
				Doc:  op.Doc,
			}
			for _, param := range op.Parameters {
				opDecl.Params = append(opDecl.Params, &ParamDecl{
					Name: param.Name,
					Type: typeRef(param.Type),
				})
			}
			if op.ReturnType != nil && op.ReturnType != schema.Void {
				ret := typeRef(op.ReturnType)
				opDecl.Returns = &ret
			}
			decl.Operations = append(decl.Operations, opDecl)
		}
		req.Services = append(req.Services, decl)
	}
	return req
}

func typeRef(t schema.Type) TypeRef {
	var ref TypeRef
	for {
		array, ok := t.(*schema.ArrayType)
		if !ok {
			break
		}
		ref.ArrayDepth += 1
		t = array.Member()
	}
	if union, ok := t.(*schema.UnionType); ok {
		for _, member := range union.Types() {
			ref.Union = append(ref.Union, member.QualifiedName())
		}
		return ref
	}
	ref.Name = t.QualifiedName()
	return ref
}

func EncodeRequest(req *Request) ([]byte, error) {
	return encodeFrame(req)
}

func DecodeRequest(frame []byte) (*Request, error) {
	req := &Request{}
	if err := decodeFrame(frame, req); err != nil {
		return nil, fmt.Errorf("codegen.DecodeRequest: %w", err)
	}
	return req, nil
}

func EncodeResponse(resp *Response) ([]byte, error) {
	return encodeFrame(resp)
}

func DecodeResponse(frame []byte) (*Response, error) {
	resp := &Response{}
	if err := decodeFrame(frame, resp); err != nil {
		return nil, fmt.Errorf("codegen.DecodeResponse: %w", err)
	}
	return resp, nil
}

// FrameLen reads the total length of the frame that starts buf.
func FrameLen(buf []byte) (uint32, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("frame too short: %d bytes", len(buf))
	}
	frameLen := binary.LittleEndian.Uint32(buf)
	if frameLen < 4 {
		return 0, fmt.Errorf("invalid frame length %d", frameLen)
	}
	return frameLen, nil
}

func encodeFrame(msg any) ([]byte, error) {
	body, err := yaml.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) > math.MaxUint32-4 {
		return nil, fmt.Errorf("message too large: %d bytes", len(body))
	}
	frame := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(frame, uint32(4+len(body)))
	return append(frame, body...), nil
}

func decodeFrame(frame []byte, msg any) error {
	frameLen, err := FrameLen(frame)
	if err != nil {
		return err
	}
	if int(frameLen) > len(frame) {
		return fmt.Errorf("truncated frame: want %d bytes, have %d", frameLen, len(frame))
	}
	return yaml.Unmarshal(frame[4:frameLen], msg)
}
