// Package ast defines the desugared abstract syntax tree (spec.md §4.2):
// qualified-name pairs, n-ary function literals/applications, and the
// exports-everything flag, all position-preserving. After type checking
// every expression node additionally carries an inferred monotype and
// every variable/constructor reference is resolved to a fully qualified
// binding (see internal/checker).
package ast

import (
	"github.com/dittolang/ditto/internal/cst"
	"github.com/dittolang/ditto/internal/types"
)

// Pos mirrors cst.Pos; kept as a distinct type so ast does not alias cst
// internals across the lowering boundary.
type Pos = cst.Pos

// Type is the inferred monotype attached to an expression node once
// checking has run; see internal/types.
type Type = types.Type

// Node is the base interface for every AST node.
type Node interface {
	Position() Pos
}

// QName is a resolved or surface qualified name: an optional qualifier
// (module alias as written, or after checking the canonical module path)
// plus an identifier.
type QName struct {
	Qualifier string // empty if unqualified
	Name      string
}

func (q QName) String() string {
	if q.Qualifier == "" {
		return q.Name
	}
	return q.Qualifier + "." + q.Name
}

// Module is the lowered form of one source file.
type Module struct {
	Name          string // dotted module path, e.g. "Data.Maybe"
	ExportAll     bool
	ExportItems   []ExportItem
	Imports       []*Import
	Types         []*TypeDecl
	Values        []*ValueDecl
	Foreigns      []*ForeignDecl
	Pos           Pos
}

func (m *Module) Position() Pos { return m.Pos }

// ExportItem names a single exported value or type (with or without its
// constructors).
type ExportItem struct {
	Name     string
	IsType   bool
	AllCtors bool
	Pos      Pos
}

// Import is the lowered form of a cst.Import: alias defaulted to the
// module's own last path segment when "as" is absent.
type Import struct {
	Package  string
	Module   string // dotted module path
	Alias    string // always non-empty after lowering
	ExposeAll bool
	Exposed  []string
	Pos      Pos
}

func (i *Import) Position() Pos { return i.Pos }

// TypeDecl is a data type declaration with zero or more constructors.
type TypeDecl struct {
	Name   string
	Params []string
	Ctors  []DataCtor
	Pos    Pos
}

func (t *TypeDecl) Position() Pos { return t.Pos }

// DataCtor is one alternative of a TypeDecl.
type DataCtor struct {
	Name string
	Args []TypeExpr
	Pos  Pos
}

// ValueDecl is a top-level value binding with an optional type
// annotation.
type ValueDecl struct {
	Name       string
	Annotation TypeExpr // nil if absent
	RHS        Expr
	Pos        Pos
}

func (v *ValueDecl) Position() Pos { return v.Pos }

// ForeignDecl is a top-level foreign-value declaration: a mandatory
// annotation and no RHS.
type ForeignDecl struct {
	Name       string
	Annotation TypeExpr
	Pos        Pos
}

func (f *ForeignDecl) Position() Pos { return f.Pos }

// TypeExpr is satisfied by every type-level AST node.
type TypeExpr interface {
	Node
	typeExprNode()
}

// TEVar is a type-variable reference.
type TEVar struct {
	Name string
	Pos  Pos
}

func (t *TEVar) Position() Pos { return t.Pos }
func (t *TEVar) typeExprNode() {}

// TECon is a (possibly qualified) type-constructor application; Args is
// empty for a nullary constructor.
type TECon struct {
	Name QName
	Args []TypeExpr
	Pos  Pos
}

func (t *TECon) Position() Pos { return t.Pos }
func (t *TECon) typeExprNode() {}

// TEFunc is the n-ary arrow type (t1, ..., tn) -> t.
type TEFunc struct {
	Params []TypeExpr
	Return TypeExpr
	Pos    Pos
}

func (t *TEFunc) Position() Pos { return t.Pos }
func (t *TEFunc) typeExprNode() {}

// Expr is satisfied by every value-level AST node. After checking, Type
// holds the node's inferred monotype.
type Expr interface {
	Node
	exprNode()
	ExprType() Type
	SetExprType(Type)
}

// exprBase centralizes the post-checking type annotation so every
// concrete Expr gets ExprType/SetExprType for free.
type exprBase struct {
	Typ Type
}

func (e *exprBase) ExprType() Type      { return e.Typ }
func (e *exprBase) SetExprType(t Type)  { e.Typ = t }

// LiteralKind mirrors cst.LiteralKind.
type LiteralKind = cst.LiteralKind

const (
	LitUnit   = cst.LitUnit
	LitBool   = cst.LitBool
	LitInt    = cst.LitInt
	LitFloat  = cst.LitFloat
	LitString = cst.LitString
)

// Literal is a unit/bool/int/float/string literal.
type Literal struct {
	exprBase
	Kind  LiteralKind
	Value string
	Pos   Pos
}

func (l *Literal) Position() Pos { return l.Pos }
func (l *Literal) exprNode()     {}

// Var is a (possibly qualified) variable reference. After checking,
// Resolved holds the fully qualified binding it refers to.
type Var struct {
	exprBase
	Name     QName
	Resolved QName
	Pos      Pos
}

func (v *Var) Position() Pos { return v.Pos }
func (v *Var) exprNode()     {}

// ConstructorRef is a (possibly qualified) data-constructor reference
// used as a value, before any application.
type ConstructorRef struct {
	exprBase
	Name     QName
	Resolved QName
	Pos      Pos
}

func (c *ConstructorRef) Position() Pos { return c.Pos }
func (c *ConstructorRef) exprNode()     {}

// ArrayLit is "[e1, e2, ...]".
type ArrayLit struct {
	exprBase
	Elems []Expr
	Pos   Pos
}

func (a *ArrayLit) Position() Pos { return a.Pos }
func (a *ArrayLit) exprNode()     {}

// FuncParam is a single n-ary function-literal parameter.
type FuncParam struct {
	Name       string
	Annotation TypeExpr // nil if absent
	Pos        Pos
}

// FuncLit is an n-ary function literal "(p1, ..., pn) -> body".
type FuncLit struct {
	exprBase
	Params     []FuncParam
	ReturnType TypeExpr // nil if absent
	Body       Expr
	Pos        Pos
}

func (f *FuncLit) Position() Pos { return f.Pos }
func (f *FuncLit) exprNode()     {}

// App is n-ary, left-associative function application over a single
// argument list: "f(a, b, c)". Surface-syntax curried application
// "f(a)(b)" lowers to nested App nodes.
type App struct {
	exprBase
	Callee Expr
	Args   []Expr
	Pos    Pos
}

func (a *App) Position() Pos { return a.Pos }
func (a *App) exprNode()     {}

// If is "if cond then t else f".
type If struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
	Pos  Pos
}

func (i *If) Position() Pos { return i.Pos }
func (i *If) exprNode()     {}
