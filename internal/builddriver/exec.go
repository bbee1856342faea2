package builddriver

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/checker"
	"github.com/dittolang/ditto/internal/codegen"
	"github.com/dittolang/ditto/internal/cst"
	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/iface"
)

// astOutputPaths returns the three sibling output paths ast(M) produces
// (spec.md §4.5, §6).
func astOutputPaths(buildDir, module string) (astPath, exportsPath, warningsPath string) {
	base := filepath.Join(buildDir, module)
	return base + ".ast", base + ".ast-exports", base + ".checker-warnings"
}

func jsOutputPath(buildDir, module string) string {
	return filepath.Join(buildDir, module+".js")
}

// ExternalResolver supplies the ExportInterface of an import qualified
// by an external package — one the current source tree does not itself
// build (spec.md §3: ImportRef carries an optional package qualifier).
type ExternalResolver func(pkg, module string) (*iface.ExportInterface, error)

// Executor runs individual build targets against a build directory,
// reading and writing the file formats of spec.md §6. It holds no
// cross-target state beyond the build cache; every method is safe to
// call concurrently for distinct targets (spec.md §5: "outputs are
// owned exclusively by the target that produces them").
type Executor struct {
	BuildDir string
	Cache    *Cache
	Sources  map[string]Source
	External ExternalResolver

	written int64 // atomic; total output bytes written, for the run summary
}

// BytesWritten returns the total size of every output file this
// Executor has written so far.
func (ex *Executor) BytesWritten() int64 {
	return atomic.LoadInt64(&ex.written)
}

// write is atomicWrite plus byte-count bookkeeping for the end-of-run
// summary line.
func (ex *Executor) write(path string, data []byte) error {
	if err := atomicWrite(path, data); err != nil {
		return err
	}
	atomic.AddInt64(&ex.written, int64(len(data)))
	return nil
}

// RunAST executes the ast(M) target: parse, lower, check, and write
// M.ast / M.ast-exports / M.checker-warnings (spec.md §4.5, §6).
// Returns (skipped=true, nil) if the target's inputs — its own source
// plus the content of every dependency's already-built .ast-exports —
// are unchanged from the cached build. A dependency rebuilding its body
// without changing its exported interface does not make this target
// stale; only a changed .ast-exports byte stream does (spec.md §9).
func (ex *Executor) RunAST(module string) (skipped bool, err error) {
	src, ok := ex.Sources[module]
	if !ok {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldUnknownModule,
			fmt.Sprintf("unknown module %q", module), nil))
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}

	f, err := cst.Parse(string(data), src.Path)
	if err != nil {
		return false, err
	}
	m := ast.Lower(f)

	depImports, depHash, err := ex.resolveImports(m)
	if err != nil {
		return false, err
	}

	id := TargetID{Kind: KindAST, Name: module}
	inputHash := BytesHash([]byte(BytesHash(data) + "|" + depHash))
	if !ex.Cache.Stale(id, inputHash) {
		return true, nil
	}

	result, checkErr := checker.Check(m, depImports)
	if checkErr != nil {
		return false, checkErr
	}

	astPath, exportsPath, warningsPath := astOutputPaths(ex.BuildDir, module)

	astBytes, err := encodeToBytes(func(w io.Writer) error { return ast.EncodeModule(w, result.Module) })
	if err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	if err := ex.write(astPath, astBytes); err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}

	exportBytes, err := encodeToBytes(func(w io.Writer) error { return iface.Encode(w, result.Exports) })
	if err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	if err := ex.write(exportsPath, exportBytes); err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}

	warnBytes, err := encodeToBytes(func(w io.Writer) error { return errors.WriteWarningsNDJSON(w, result.Warnings) })
	if err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	if err := ex.write(warningsPath, warnBytes); err != nil {
		return false, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}

	ex.Cache.Record(id, inputHash)
	return false, nil
}

// RunJS executes the js(M) target: decode M.ast and emit M.js.
// importPaths maps each import alias in m to the relative JS path the
// driver computed for it (spec.md §4.4, §4.5).
func (ex *Executor) RunJS(module string, importPaths map[string]string) error {
	astPath, _, _ := astOutputPaths(ex.BuildDir, module)
	f, err := os.Open(astPath)
	if err != nil {
		return errors.Wrap(errors.New(errors.PhaseBuild, errors.BldMissingInterface,
			fmt.Sprintf("missing %s: %v", astPath, err), nil))
	}
	defer f.Close()

	m, err := ast.DecodeModule(f)
	if err != nil {
		return errors.Wrap(errors.New(errors.PhaseBuild, errors.BldBadFormatVersion, err.Error(), nil))
	}

	js, err := codegen.Generate(m, codegen.Options{ImportPaths: importPaths})
	if err != nil {
		return err
	}

	return ex.write(jsOutputPath(ex.BuildDir, module), []byte(js))
}

// resolveImports builds the ImportRef -> ExportInterface map checker.Check
// needs for m, reading each local dependency's already-built
// .ast-exports and deferring external-package imports to ex.External.
// It also returns a combined hash of the bytes of every local
// dependency's .ast-exports file, folded into the ast(M) target's
// staleness input hash; interfaces obtained from ex.External are not
// part of that hash.
func (ex *Executor) resolveImports(m *ast.Module) (map[checker.ImportRef]*iface.ExportInterface, string, error) {
	out := map[checker.ImportRef]*iface.ExportInterface{}
	var hashes []string

	for _, imp := range m.Imports {
		ref := checker.ImportRef{Package: imp.Package, Module: imp.Module}

		if imp.Package != "" {
			if ex.External == nil {
				return nil, "", errors.Wrap(errors.New(errors.PhaseBuild, errors.BldMissingInterface,
					fmt.Sprintf("no external resolver configured for package %q", imp.Package), spanOf(imp.Pos)))
			}
			ei, err := ex.External(imp.Package, imp.Module)
			if err != nil {
				return nil, "", err
			}
			out[ref] = ei
			continue
		}

		_, exportsPath, _ := astOutputPaths(ex.BuildDir, imp.Module)
		data, err := os.ReadFile(exportsPath)
		if err != nil {
			return nil, "", errors.Wrap(errors.New(errors.PhaseBuild, errors.BldMissingInterface,
				fmt.Sprintf("missing export interface for import %q: %v", imp.Module, err), spanOf(imp.Pos)))
		}
		ei, err := iface.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", errors.Wrap(errors.New(errors.PhaseBuild, errors.BldBadFormatVersion, err.Error(), spanOf(imp.Pos)))
		}
		out[ref] = ei
		hashes = append(hashes, BytesHash(data))
	}

	return out, BytesHash([]byte(strings.Join(hashes, "|"))), nil
}

func spanOf(p ast.Pos) *errors.Span {
	return &errors.Span{File: p.File, StartLine: p.Line, StartColumn: p.Column, StartOffset: p.Offset}
}

func encodeToBytes(encode func(io.Writer) error) ([]byte, error) {
	var buf strings.Builder
	if err := encode(&buf); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
