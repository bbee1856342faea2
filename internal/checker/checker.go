// Package checker implements name resolution, Hindley–Milner inference,
// kind checking, and export-interface synthesis for one module at a
// time (spec.md §4.3). It never reads another module's elaborated AST —
// only the small ExportInterface values its caller supplies — which is
// the cross-module incrementality keystone (spec.md §9).
package checker

import (
	"fmt"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/iface"
	"github.com/dittolang/ditto/internal/types"
)

// Result is everything Check produces for one module.
type Result struct {
	Module   *ast.Module
	Exports  *iface.ExportInterface
	Warnings []errors.Warning
}

// Errors is returned by Check when one or more fatal diagnostics were
// collected; it carries every report up to the collection cap
// (spec.md §7: "collected best-effort up to a small cap before
// bailing").
type Errors struct {
	Reports []*errors.Report
}

func (e *Errors) Error() string {
	if len(e.Reports) == 1 {
		return e.Reports[0].Message
	}
	return fmt.Sprintf("%d checker errors, first: %s", len(e.Reports), e.Reports[0].Message)
}

type local struct {
	types         map[string]typeInfo
	typeDecls     map[string]*ast.TypeDecl
	ctors         map[string]ctorInfo
	ctorOwner     map[string]string // ctor name -> declaring type name
	valueSchemes  map[string]*types.Scheme
	valueDecls    map[string]*ast.ValueDecl
	foreignDecls  map[string]*ast.ForeignDecl
	declaredNames map[string]ast.Pos // every type/value/foreign/ctor name, for duplicate detection
	usedValues    map[string]bool    // top-level value/foreign names referenced from elsewhere
}

func newLocal() *local {
	return &local{
		types:         map[string]typeInfo{},
		typeDecls:     map[string]*ast.TypeDecl{},
		ctors:         map[string]ctorInfo{},
		ctorOwner:     map[string]string{},
		valueSchemes:  map[string]*types.Scheme{},
		valueDecls:    map[string]*ast.ValueDecl{},
		foreignDecls:  map[string]*ast.ForeignDecl{},
		declaredNames: map[string]ast.Pos{},
		usedValues:    map[string]bool{},
	}
}

// Checker holds all per-module state. One Checker checks exactly one
// module; it is never reused or shared across goroutines.
type Checker struct {
	mod     *ast.Module
	imports map[ImportRef]*iface.ExportInterface

	env    *env
	local  *local
	fresh  *types.Fresh
	subst  types.Subst
	bag    *errors.Bag
	scopes []map[string]types.Type

	warnings []errors.Warning
}

func (c *Checker) pushScope(s map[string]types.Type) { c.scopes = append(c.scopes, s) }
func (c *Checker) popScope()                         { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) lookupParam(name string) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Check runs name resolution, inference, and export synthesis over m,
// mutating its expression nodes in place with resolved names and
// inferred types. imports must contain an ExportInterface for every
// import m declares.
func Check(m *ast.Module, imports map[ImportRef]*iface.ExportInterface) (*Result, error) {
	c := &Checker{
		mod:     m,
		imports: imports,
		env:     newEnv(),
		local:   newLocal(),
		fresh:   &types.Fresh{},
		subst:   types.Subst{},
		bag:     errors.NewBag(),
	}

	c.buildImportEnv()
	c.registerTypes()
	c.registerValuesAndForeigns()

	if c.bag.Empty() {
		c.checkValues()
	}

	var exports *iface.ExportInterface
	if c.bag.Empty() {
		exports = c.synthesizeExports()
	}
	c.collectWarnings()

	if !c.bag.Empty() {
		return nil, &Errors{Reports: c.bag.Reports()}
	}
	return &Result{Module: m, Exports: exports, Warnings: c.warnings}, nil
}

// registerTypes implements pass 2: local type names and arities first,
// then constructor argument types (which may reference any local type
// name, including ones declared later in the file).
func (c *Checker) registerTypes() {
	for _, td := range c.mod.Types {
		c.declareName(td.Name, td.Pos)
		c.local.types[td.Name] = typeInfo{arity: len(td.Params)}
		c.local.typeDecls[td.Name] = td
	}
	for _, td := range c.mod.Types {
		for _, ctor := range td.Ctors {
			c.declareName(ctor.Name, ctor.Pos)
			var args []types.Type
			for _, a := range ctor.Args {
				args = append(args, c.resolveTypeExprKinded(a))
			}
			c.local.ctors[ctor.Name] = ctorInfo{typeName: td.Name, args: args}
			c.local.ctorOwner[ctor.Name] = td.Name
		}
	}
}

// registerValuesAndForeigns implements pass 3: names only, no RHS
// inference yet.
func (c *Checker) registerValuesAndForeigns() {
	for _, vd := range c.mod.Values {
		c.declareName(vd.Name, vd.Pos)
		c.local.valueDecls[vd.Name] = vd
	}
	for _, fd := range c.mod.Foreigns {
		c.declareName(fd.Name, fd.Pos)
		c.local.foreignDecls[fd.Name] = fd
		t := c.resolveTypeExprKinded(fd.Annotation)
		c.local.valueSchemes[fd.Name] = types.Generalize(nil, t)
	}
}

// declareName records a name in the module's shared duplicate-detection
// table (types, constructors, and values/foreigns all collide with each
// other — spec.md §3's invariant — except that value and foreign names
// also share a namespace with each other by construction here).
func (c *Checker) declareName(name string, pos ast.Pos) {
	if prev, dup := c.local.declaredNames[name]; dup {
		c.bag.Add(errors.New(errors.PhaseCheck, errors.ModDuplicateName,
			fmt.Sprintf("%q is already declared at %s", name, posString(prev)), spanOf(pos)))
		return
	}
	c.local.declaredNames[name] = pos
}

func posString(p ast.Pos) string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}
