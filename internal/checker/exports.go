package checker

import (
	"fmt"

	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/iface"
)

// synthesizeExports walks the module's export list (or its "everything"
// flag) and builds the ExportInterface the build driver will hand to
// dependents (spec.md §4.3). Exporting a name that was never declared,
// or a foreign/value name written where a type was expected, is a
// fatal error.
func (c *Checker) synthesizeExports() *iface.ExportInterface {
	ei := iface.New(c.mod.Name)

	if c.mod.ExportAll {
		for name, sch := range c.local.valueSchemes {
			if _, isCtor := c.local.ctors[name]; isCtor {
				continue
			}
			ei.AddValue(name, sch)
		}
		for name, td := range c.local.typeDecls {
			ei.AddType(name, len(td.Params))
		}
		for name, ci := range c.local.ctors {
			ei.AddConstructor(name, ci.typeName, ci.args)
		}
		return ei
	}

	for _, item := range c.mod.ExportItems {
		if item.IsType {
			td, ok := c.local.typeDecls[item.Name]
			if !ok {
				c.bag.Add(errors.New(errors.PhaseCheck, errors.ModUnknownExport,
					fmt.Sprintf("exported type %q is not declared in this module", item.Name), spanOf(item.Pos)))
				continue
			}
			ei.AddType(item.Name, len(td.Params))
			if item.AllCtors {
				for _, ctor := range td.Ctors {
					ci := c.local.ctors[ctor.Name]
					ei.AddConstructor(ctor.Name, item.Name, ci.args)
				}
			}
			continue
		}

		sch, ok := c.local.valueSchemes[item.Name]
		if !ok || c.isCtorName(item.Name) {
			c.bag.Add(errors.New(errors.PhaseCheck, errors.ModUnknownExport,
				fmt.Sprintf("exported value %q is not declared in this module", item.Name), spanOf(item.Pos)))
			continue
		}
		ei.AddValue(item.Name, sch)
	}
	return ei
}

func (c *Checker) isCtorName(name string) bool {
	_, ok := c.local.ctors[name]
	return ok
}

// collectWarnings appends unused-import and unused-local-binding
// diagnostics (spec.md §4.3's warnings list). Warnings never block
// export synthesis, so this runs regardless of whether the bag already
// holds fatal errors, matching up through whatever state checking
// reached.
func (c *Checker) collectWarnings() {
	for _, imp := range c.mod.Imports {
		checkExposed := func(names []string, kind string) {
			for _, n := range names {
				key := kind + ":" + imp.Alias + "." + n
				if used, tracked := c.env.importUsed[key]; tracked && !used {
					c.warnings = append(c.warnings, errors.Warning{
						Span:    spanOf(imp.Pos),
						Code:    errors.ModUnusedImport,
						Message: fmt.Sprintf("imported item %q from %q is never used", n, imp.Module),
					})
				}
			}
		}
		checkExposed(imp.Exposed, "value")
		checkExposed(imp.Exposed, "ctor")
	}

	exported := map[string]bool{}
	if c.mod.ExportAll {
		for name := range c.local.valueSchemes {
			exported[name] = true
		}
	} else {
		for _, item := range c.mod.ExportItems {
			if !item.IsType {
				exported[item.Name] = true
			}
		}
	}

	for _, vd := range c.mod.Values {
		if exported[vd.Name] || c.local.usedValues[vd.Name] {
			continue
		}
		c.warnings = append(c.warnings, errors.Warning{
			Span:    spanOf(vd.Pos),
			Code:    errors.ModUnusedBinding,
			Message: fmt.Sprintf("%q is declared but never used or exported", vd.Name),
		})
	}
	for _, fd := range c.mod.Foreigns {
		if exported[fd.Name] || c.local.usedValues[fd.Name] {
			continue
		}
		c.warnings = append(c.warnings, errors.Warning{
			Span:    spanOf(fd.Pos),
			Code:    errors.ModUnusedBinding,
			Message: fmt.Sprintf("%q is declared but never used or exported", fd.Name),
		})
	}
}
