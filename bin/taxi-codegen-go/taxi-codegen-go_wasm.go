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

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/codegen/golang"
)

var buffers = make(map[*uint8][]uint8)

//go:export taxi_codegen_allocate
func taxiCodegenAllocate(len uint32) *uint8 {
	if len > math.MaxInt32 {
		return nil
	}
	buf := make([]uint8, int(len))
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	return ptr
}

//go:export taxi_codegen_deallocate
func taxiCodegenDeallocate(ptr *uint8) {
	delete(buffers, ptr)
}

//go:export taxi_codegen_generate/go
func taxiCodegenGenerateGo(requestPtr *uint8, responsePtrPtr **uint8) uint8 {
	requestLen := binary.LittleEndian.Uint32(unsafe.Slice(requestPtr, 4))
	request, err := codegen.DecodeRequest(unsafe.Slice(requestPtr, requestLen))
	if err != nil {
		return respond(&codegen.Response{Error: err.Error()}, responsePtrPtr)
	}
	response, err := golang.Generate(request)
	if err != nil {
		return respond(&codegen.Response{Error: err.Error()}, responsePtrPtr)
	}
	return respond(response, responsePtrPtr)
}

// respond stores an encoded response where the host can read it. The
// result is non-zero if the response reports an error.
func respond(response *codegen.Response, responsePtrPtr **uint8) uint8 {
	var rc uint8
	if response.Error != "" {
		rc = 1
	}
	buf, err := codegen.EncodeResponse(response)
	if err != nil {
		rc = 1
		buf, _ = codegen.EncodeResponse(&codegen.Response{
			Error: fmt.Sprintf("EncodeResponse: %v", err),
		})
	}
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	*responsePtrPtr = ptr
	return rc
}
