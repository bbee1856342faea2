package checker

import (
	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/iface"
	"github.com/dittolang/ditto/internal/types"
)

// ImportRef identifies one import by the (optional) external package it
// came from and the module path it names — the key the build driver
// uses to hand the checker the right ExportInterface for each import
// (spec.md §4.3).
type ImportRef struct {
	Package string
	Module  string
}

// typeInfo records a visible type constructor's arity.
type typeInfo struct {
	arity int
}

// ctorInfo records a visible data constructor's owning type and
// argument types, used both to type-check constructor applications and
// to build the module's own export interface.
type ctorInfo struct {
	typeName string
	args     []types.Type
}

// env is the three-table name environment built once per module: one
// pair of (qualified, unqualified) tables for imported values, one for
// imported types/constructors, extended in place with local
// declarations as passes 2 and 3 register them.
type env struct {
	valuesByQualified   map[string]*types.Scheme
	valuesByUnqualified map[string]*types.Scheme
	typesByQualified    map[string]typeInfo
	typesByUnqualified  map[string]typeInfo
	ctorsByQualified    map[string]ctorInfo
	ctorsByUnqualified  map[string]ctorInfo
	// ctorUnqualifiedKey maps an unqualified ctor name back to the
	// "Alias.Name" key it was exposed from, for usage tracking (ctorInfo
	// itself holds a slice and so is not comparable).
	ctorUnqualifiedKey map[string]string

	// importUsed tracks whether an unqualified-exposed name was ever
	// looked up, for the unused-import-item warning.
	importUsed map[string]bool
}

func newEnv() *env {
	return &env{
		valuesByQualified:   map[string]*types.Scheme{},
		valuesByUnqualified: map[string]*types.Scheme{},
		typesByQualified:    map[string]typeInfo{},
		typesByUnqualified:  map[string]typeInfo{},
		ctorsByQualified:    map[string]ctorInfo{},
		ctorsByUnqualified:  map[string]ctorInfo{},
		ctorUnqualifiedKey:  map[string]string{},
		importUsed:          map[string]bool{},
	}
}

// buildImportEnv implements pass 1 of spec.md §4.3: install every
// import's exported items under its alias qualifier, and additionally
// unqualified for items the import explicitly exposes.
func (c *Checker) buildImportEnv() {
	for _, imp := range c.mod.Imports {
		ref := ImportRef{Package: imp.Package, Module: imp.Module}
		ei, ok := c.imports[ref]
		if !ok {
			c.bag.Add(errors.New(errors.PhaseCheck, errors.BldMissingInterface,
				"missing export interface for import \""+imp.Module+"\"", spanOf(imp.Pos)))
			continue
		}

		exposedAll := imp.ExposeAll
		exposed := map[string]bool{}
		for _, n := range imp.Exposed {
			exposed[n] = true
		}

		for _, v := range ei.Values {
			c.env.valuesByQualified[imp.Alias+"."+v.Name] = v.Scheme
			if exposedAll || exposed[v.Name] {
				if _, dup := c.env.valuesByUnqualified[v.Name]; dup {
					c.bag.Add(errors.New(errors.PhaseCheck, errors.ModDuplicateImport,
						"\""+v.Name+"\" is exposed by more than one import", spanOf(imp.Pos)))
					continue
				}
				c.env.valuesByUnqualified[v.Name] = v.Scheme
				c.env.importUsed["value:"+imp.Alias+"."+v.Name] = false
			}
		}
		for _, t := range ei.Types {
			ti := typeInfo{arity: t.Arity}
			c.env.typesByQualified[imp.Alias+"."+t.Name] = ti
			if exposedAll || exposed[t.Name] {
				c.env.typesByUnqualified[t.Name] = ti
			}
		}
		for _, ctor := range ei.Constructors {
			ci := ctorInfo{typeName: ctor.TypeName, args: ctor.Args}
			c.env.ctorsByQualified[imp.Alias+"."+ctor.Name] = ci
			if exposedAll || exposed[ctor.Name] {
				c.env.ctorsByUnqualified[ctor.Name] = ci
				c.env.ctorUnqualifiedKey[ctor.Name] = imp.Alias + "." + ctor.Name
				c.env.importUsed["ctor:"+imp.Alias+"."+ctor.Name] = false
			}
		}
	}
}

// lookupValue resolves a possibly-qualified value reference, returning
// its scheme and the fully qualified name it resolved to. Function
// parameters shadow everything else; they are looked up first.
func (c *Checker) lookupValue(q ast.QName) (*types.Scheme, ast.QName, bool) {
	if q.Qualifier != "" {
		if sch, ok := c.env.valuesByQualified[q.Qualifier+"."+q.Name]; ok {
			c.env.importUsed["value:"+q.Qualifier+"."+q.Name] = true
			return sch, q, true
		}
		return nil, ast.QName{}, false
	}
	if t, ok := c.lookupParam(q.Name); ok {
		return types.Mono(t), ast.QName{Name: q.Name}, true
	}
	if sch, ok := c.local.valueSchemes[q.Name]; ok {
		return sch, ast.QName{Name: q.Name}, true
	}
	if sch, ok := c.env.valuesByUnqualified[q.Name]; ok {
		resolved := resolvedUnqualified(c.env.valuesByQualified, q.Name, sch)
		c.env.importUsed["value:"+resolved.Qualifier+"."+resolved.Name] = true
		return sch, resolved, true
	}
	return nil, ast.QName{}, false
}

// lookupCtor resolves a possibly-qualified constructor reference.
func (c *Checker) lookupCtor(q ast.QName) (ctorInfo, ast.QName, bool) {
	if q.Qualifier != "" {
		if ci, ok := c.env.ctorsByQualified[q.Qualifier+"."+q.Name]; ok {
			c.env.importUsed["ctor:"+q.Qualifier+"."+q.Name] = true
			return ci, q, true
		}
		return ctorInfo{}, ast.QName{}, false
	}
	if ci, ok := c.local.ctors[q.Name]; ok {
		return ci, ast.QName{Name: q.Name}, true
	}
	if ci, ok := c.env.ctorsByUnqualified[q.Name]; ok {
		if key, ok := c.env.ctorUnqualifiedKey[q.Name]; ok {
			c.env.importUsed["ctor:"+key] = true
			return ci, ast.QName{Qualifier: key[:len(key)-len(q.Name)-1], Name: q.Name}, true
		}
		return ci, ast.QName{Name: q.Name}, true
	}
	return ctorInfo{}, ast.QName{}, false
}

// lookupType resolves a possibly-qualified type-constructor reference.
func (c *Checker) lookupType(qualifier, name string) (typeInfo, bool) {
	if qualifier != "" {
		ti, ok := c.env.typesByQualified[qualifier+"."+name]
		return ti, ok
	}
	if ti, ok := c.local.types[name]; ok {
		return ti, true
	}
	ti, ok := c.env.typesByUnqualified[name]
	return ti, ok
}

// resolvedUnqualified recovers the qualified form of an unqualified
// lookup hit, so Var.Resolved always carries a fully qualified name.
func resolvedUnqualified(byQualified map[string]*types.Scheme, name string, want *types.Scheme) ast.QName {
	for k, v := range byQualified {
		if v == want {
			for i := len(k) - 1; i >= 0; i-- {
				if k[i] == '.' {
					return ast.QName{Qualifier: k[:i], Name: k[i+1:]}
				}
			}
		}
	}
	return ast.QName{Name: name}
}

func spanOf(p ast.Pos) *errors.Span {
	return &errors.Span{File: p.File, StartLine: p.Line, StartColumn: p.Column, StartOffset: p.Offset}
}
