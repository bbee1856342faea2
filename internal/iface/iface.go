// Package iface defines the export interface of a module — the only
// cross-module dependency the type checker consumes (spec.md §3, §9).
// It never imports internal/checker or internal/ast: an ExportInterface
// is ownership-free data, built once by the checker and read by every
// dependent's checker pass afterward.
package iface

import (
	"sort"

	"github.com/dittolang/ditto/internal/types"
)

// ValueExport is one exported value binding and its generalized scheme.
type ValueExport struct {
	Name   string
	Scheme *types.Scheme
}

// TypeExport is one exported type constructor and its declared arity.
type TypeExport struct {
	Name  string
	Arity int
}

// CtorExport is one exported data constructor: its owning type and the
// types of its arguments, in the exporting module's own type namespace.
type CtorExport struct {
	Name     string
	TypeName string
	Args     []types.Type
}

// ExportInterface is the public surface of a module: exported value
// schemes, exported type constructors, and exported data constructors.
// Building one is the sole output the checker owes a dependent module.
type ExportInterface struct {
	Module       string
	Values       []ValueExport
	Types        []TypeExport
	Constructors []CtorExport
}

// New creates an empty interface for the named module.
func New(module string) *ExportInterface {
	return &ExportInterface{Module: module}
}

// AddValue records an exported value binding. The scheme is canonicalized
// first — its quantified variables renamed to a positional a, b, c, ...
// sequence — so that a body-only edit elsewhere in the module, which
// shifts how many fresh type variables the checker's counter allocated
// before this binding, does not change this binding's serialized scheme
// (spec.md §8 "Export stability").
func (e *ExportInterface) AddValue(name string, scheme *types.Scheme) {
	e.Values = append(e.Values, ValueExport{Name: name, Scheme: scheme.Canonicalize()})
}

// AddType records an exported type constructor.
func (e *ExportInterface) AddType(name string, arity int) {
	e.Types = append(e.Types, TypeExport{Name: name, Arity: arity})
}

// AddConstructor records an exported data constructor. args is
// canonicalized the same way AddValue canonicalizes a scheme's body.
func (e *ExportInterface) AddConstructor(name, typeName string, args []types.Type) {
	e.Constructors = append(e.Constructors, CtorExport{Name: name, TypeName: typeName, Args: types.CanonicalizeAll(args)})
}

// FindValue looks up an exported value by name.
func (e *ExportInterface) FindValue(name string) (*types.Scheme, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Scheme, true
		}
	}
	return nil, false
}

// FindType looks up an exported type constructor's arity by name.
func (e *ExportInterface) FindType(name string) (int, bool) {
	for _, t := range e.Types {
		if t.Name == name {
			return t.Arity, true
		}
	}
	return 0, false
}

// FindConstructor looks up an exported data constructor by name.
func (e *ExportInterface) FindConstructor(name string) (CtorExport, bool) {
	for _, c := range e.Constructors {
		if c.Name == name {
			return c, true
		}
	}
	return CtorExport{}, false
}

// Normalize sorts every slice by name so two interfaces built from
// semantically identical modules serialize identically regardless of
// construction order — the export-stability testable property of
// spec.md §8 depends on this.
func (e *ExportInterface) Normalize() {
	sort.Slice(e.Values, func(i, j int) bool { return e.Values[i].Name < e.Values[j].Name })
	sort.Slice(e.Types, func(i, j int) bool { return e.Types[i].Name < e.Types[j].Name })
	sort.Slice(e.Constructors, func(i, j int) bool { return e.Constructors[i].Name < e.Constructors[j].Name })
}
