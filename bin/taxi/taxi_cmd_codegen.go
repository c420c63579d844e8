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
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"

	"github.com/BlexSetlog/taxilang/codegen"
)

type cmdCodegen struct {
	global     *globalOptions
	outDir     string
	pluginPath string
	language   string
	options    map[string]string
	deps       []string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [SOURCES...]",
		summary: "Generate code from sources with a WebAssembly plugin",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outDir, "output", "o", "", "directory to write generated files to")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "colon-separated directories to search for plugins")
	flags.StringVarP(&cmd.language, "language", "l", "", "target language (default \"go\")")
	flags.StringToStringVar(&cmd.options, "option", nil, "plugin option as KEY=VALUE")
	flags.StringSliceVar(&cmd.deps, "dep", nil, "dependency sources to import from")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	p, err := loadProject(cmd.global, argv, cmd.deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	settings := p.config.Codegen
	if cmd.outDir != "" {
		settings.Output = cmd.outDir
	} else if settings.Output != "" {
		settings.Output = p.config.resolve([]string{settings.Output})[0]
	}
	if cmd.pluginPath != "" {
		settings.PluginPath = cmd.pluginPath
	}
	if cmd.language != "" {
		settings.Language = cmd.language
	}
	if settings.Language == "" {
		settings.Language = "go"
	}
	options := make(map[string]string)
	maps.Copy(options, settings.Options)
	maps.Copy(options, cmd.options)

	if settings.Output == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}

	result, err := p.compile(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	doc, err := result.Document()
	if err != nil {
		return 1
	}

	pluginPath, err := locatePlugin(settings.PluginPath, settings.Language)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	start := time.Now()
	response, err := runPlugin(ctx, pluginBin, settings.Language, codegen.NewRequest(doc, options))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cmd.global.logf("plugin %s finished in %v", pluginPath, time.Since(start))

	if response.Error != "" {
		fmt.Fprintln(os.Stderr, strings.TrimRight(response.Error, "\n"))
		return 1
	}
	if len(response.Files) == 0 {
		fmt.Fprintln(os.Stderr, "Plugin did not generate any output files")
		return 1
	}
	if err := os.MkdirAll(settings.Output, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, outputFile := range response.Files {
		dest, err := outPath(settings.Output, outputFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.WriteFile(dest, []byte(outputFile.Content), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cmd.global.logf("wrote %s", dest)
	}
	return 0
}

// runPlugin instantiates a codegen plugin and passes it one request. The
// request and response are framed messages in plugin memory.
func runPlugin(ctx context.Context, pluginBin []byte, language string, req *codegen.Request) (*codegen.Response, error) {
	requestBuf, err := codegen.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		return nil, err
	}
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, wasm.NewModuleConfig())
	if err != nil {
		return nil, err
	}
	mem := plugin.Memory()

	wasmAlloc := plugin.ExportedFunction("taxi_codegen_allocate")
	wasmGenerate := plugin.ExportedFunction("taxi_codegen_generate/" + language)
	if wasmAlloc == nil {
		return nil, fmt.Errorf("Plugin does not export taxi_codegen_allocate")
	}
	if wasmGenerate == nil {
		return nil, fmt.Errorf("Plugin does not support language %q", language)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	requestPtr := uint32(results[0])
	if requestPtr == 0 || !mem.Write(requestPtr, requestBuf) {
		return nil, fmt.Errorf("Failed to write request message")
	}

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(ctx, uint64(requestPtr), uint64(responsePtrPtr))
	if err != nil {
		return nil, err
	}
	rc := uint8(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message pointer")
	}
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message length")
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message")
	}
	response, err := codegen.DecodeResponse(responseBuf)
	if err != nil {
		return nil, err
	}
	if rc != 0 && response.Error == "" {
		response.Error = fmt.Sprintf("Plugin failed with status %d", rc)
	}

	if wasmDealloc := plugin.ExportedFunction("taxi_codegen_deallocate"); wasmDealloc != nil {
		for _, ptr := range []uint32{requestPtr, responsePtrPtr, responsePtr} {
			if _, err := wasmDealloc.Call(ctx, uint64(ptr)); err != nil {
				return nil, err
			}
		}
	}
	return response, nil
}

func locatePlugin(searchPath, language string) (string, error) {
	if searchPath == "" {
		searchPath = os.Getenv("TAXI_CODEGEN_PLUGIN_PATH")
	}
	if searchPath == "" {
		return "", fmt.Errorf("No plugin path set, use --plugin-path= or $TAXI_CODEGEN_PLUGIN_PATH")
	}
	basename := fmt.Sprintf("taxi-codegen-%s.wasm", language)
	for _, dir := range filepath.SplitList(searchPath) {
		pluginPath := filepath.Join(dir, basename)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("Taxi codegen plugin %s not found in plugin path", basename)
}

// outPath joins a generated file's path onto the output directory. Each
// path component must be a plain relative name.
func outPath(outDir string, file *codegen.OutputFile) (string, error) {
	parts := file.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains a path separator", parts, part)
		}
	}
	return filepath.Join(append([]string{outDir}, parts...)...), nil
}
