// Package builddriver implements the file-graph build engine of
// spec.md §4.5: dependency-graph construction over compile targets,
// staleness detection via content hashing, topologically-ordered,
// worker-pool scheduling, and atomic per-target output writes. It is
// the only concurrent component of the toolchain (spec.md §5); every
// other package is a pure, single-threaded function from inputs to
// outputs.
package builddriver

import "fmt"

// Kind distinguishes the four compile-target kinds of spec.md §4.5.
type Kind int

const (
	KindAST Kind = iota
	KindJS
	KindPackageJSON
	KindForeignCopy
)

func (k Kind) String() string {
	switch k {
	case KindAST:
		return "ast"
	case KindJS:
		return "js"
	case KindPackageJSON:
		return "package_json"
	case KindForeignCopy:
		return "foreign_copy"
	default:
		return "unknown"
	}
}

// TargetID names one node in the build graph: a target kind plus the
// module path or package name it operates on.
type TargetID struct {
	Kind Kind
	Name string
}

func (t TargetID) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Name)
}
