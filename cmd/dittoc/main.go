// Command dittoc is the thin entry point of spec.md §6: three
// subcommands (compile ast, compile js, compile package_json) that an
// external build executor (a ninja-style generator, a watch loop, a
// package manager) invokes per target. It owns no scheduling or
// staleness logic itself — see internal/builddriver for that — beyond
// the convenience "build" subcommand, which runs the whole file-graph
// driver in-process for local development without an external
// executor.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/builddriver"
	"github.com/dittolang/ditto/internal/checker"
	"github.com/dittolang/ditto/internal/errors"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// Exit codes (spec.md §6): 0 success, 1 user error (type/parse), 2 I/O
// error, 3 internal invariant violation.
const (
	exitOK       = 0
	exitUser     = 1
	exitIO       = 2
	exitInternal = 3
)

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitUser
	}

	switch args[0] {
	case "ast":
		return runAST(args[1:])
	case "js":
		return runJS(args[1:])
	case "package_json":
		return runPackageJSON(args[1:])
	case "build":
		return runBuild(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), args[0])
		printUsage()
		return exitUser
	}
}

func printUsage() {
	fmt.Println(bold("dittoc") + " — ditto compiler core entry points")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dittoc ast -i <src.ditto> -o <ast-path> --build-dir <dir>")
	fmt.Println("  dittoc js -i <ast-path> -o <js-path>")
	fmt.Println("  dittoc package_json -i <pkg-config.yaml> -o <out>")
	fmt.Println("  dittoc build --root <dir>... --build-dir <dir>")
}

// runAST implements "compile ast -i <src> -o <ast-path> --build-dir <dir>"
// (spec.md §6): reads <src>, reads <dir>/<Dep>.ast-exports for each
// declared import, writes <ast-path>, a sibling .ast-exports, and a
// sibling .checker-warnings.
func runAST(args []string) int {
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	src := fs.String("i", "", "source .ditto file")
	out := fs.String("o", "", "output .ast path")
	buildDir := fs.String("build-dir", ".", "build directory holding dependency .ast-exports files")
	if err := fs.Parse(args); err != nil {
		return exitUser
	}
	if *src == "" || *out == "" {
		fmt.Fprintf(os.Stderr, "%s: -i and -o are required\n", red("Error"))
		return exitUser
	}

	module := moduleNameFromOutputPath(*out)
	disc, err := builddriver.Discover([]string{*buildDir, dirOf(*src)})
	if err != nil {
		return reportAndExit(err)
	}
	// The single source file named by -i always wins over whatever
	// Discover happened to find at the same module name elsewhere on the
	// search path.
	disc.Sources[module] = builddriver.Source{Path: *src, Module: module}

	cache, err := builddriver.LoadCache(*buildDir)
	if err != nil {
		return reportAndExit(err)
	}
	ex := &builddriver.Executor{BuildDir: *buildDir, Cache: cache, Sources: disc.Sources}

	if _, err := ex.RunAST(module); err != nil {
		return reportAndExit(err)
	}
	if err := cache.Save(); err != nil {
		return reportAndExit(err)
	}
	fmt.Println(green("ok") + " " + module)
	return exitOK
}

// runJS implements "compile js -i <ast-path> -o <js-path>".
func runJS(args []string) int {
	fs := flag.NewFlagSet("js", flag.ContinueOnError)
	in := fs.String("i", "", "input .ast path")
	out := fs.String("o", "", "output .js path")
	if err := fs.Parse(args); err != nil {
		return exitUser
	}
	if *in == "" || *out == "" {
		fmt.Fprintf(os.Stderr, "%s: -i and -o are required\n", red("Error"))
		return exitUser
	}

	buildDir := dirOf(*in)
	module := moduleNameFromOutputPath(*in)
	ex := &builddriver.Executor{BuildDir: buildDir}

	// A bare "compile js" invocation (no build-driver context) has no
	// import-path map to draw on; it emits paths relative to the
	// sibling build directory, matching how the full build driver lays
	// out its own output tree.
	importPaths := map[string]string{}
	if f, err := os.Open(*in); err == nil {
		if m, err := ast.DecodeModule(f); err == nil {
			for _, imp := range m.Imports {
				if imp.Package != "" {
					importPaths[imp.Alias] = imp.Package + "/" + imp.Module + ".js"
				} else {
					importPaths[imp.Alias] = "./" + imp.Module + ".js"
				}
			}
		}
		f.Close()
	}
	if err := ex.RunJS(module, importPaths); err != nil {
		return reportAndExit(err)
	}
	// RunJS writes <build dir>/<Module>.js; move it to -o when that differs.
	if written := filepath.Join(buildDir, module+".js"); filepath.Clean(*out) != written {
		if err := os.Rename(written, *out); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
			return exitIO
		}
	}
	fmt.Println(green("ok") + " " + *out)
	return exitOK
}

// runPackageJSON implements "compile package_json -i <pkg-config> -o <out>".
func runPackageJSON(args []string) int {
	fs := flag.NewFlagSet("package_json", flag.ContinueOnError)
	in := fs.String("i", "", "package config YAML")
	out := fs.String("o", "", "output package.json path")
	if err := fs.Parse(args); err != nil {
		return exitUser
	}
	if *in == "" || *out == "" {
		fmt.Fprintf(os.Stderr, "%s: -i and -o are required\n", red("Error"))
		return exitUser
	}

	cfg, err := builddriver.LoadPackageConfig(*in)
	if err != nil {
		return reportAndExit(err)
	}
	jsPathFor := func(module string) string { return "./" + module + ".js" }
	if err := builddriver.RunPackageJSON(cfg, jsPathFor, *out); err != nil {
		return reportAndExit(err)
	}
	fmt.Println(green("ok") + " " + *out)
	return exitOK
}

// runBuild is the convenience subcommand wrapping internal/builddriver's
// full graph scheduler, for in-process local builds without a separate
// ninja-style executor driving the three entry points above one by one.
func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var roots multiFlag
	fs.Var(&roots, "root", "source root (repeatable)")
	buildDir := fs.String("build-dir", "build", "build directory")
	workers := fs.Int("workers", 0, "worker pool size (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return exitUser
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	d := builddriver.New(builddriver.Options{
		Roots:    roots,
		BuildDir: *buildDir,
		Workers:  *workers,
	})
	summary, err := d.Build()
	if err != nil {
		return reportAndExit(err)
	}
	fmt.Println(green("build ok") + " " + summary.String())
	return exitOK
}

func reportAndExit(err error) int {
	if rep, ok := errors.AsReport(err); ok {
		fmt.Fprintf(os.Stderr, "%s %s[%s]%s %s\n", red("error:"), yellow(""), rep.Code, yellow(""), rep.Message)
		if rep.Span != nil {
			fmt.Fprintf(os.Stderr, "  at %s\n", rep.Span.String())
		}
		if rep.Fix != nil {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", yellow("suggestion"), rep.Fix.Suggestion)
		}
		switch rep.Phase {
		case errors.PhaseParse, errors.PhaseCheck:
			return exitUser
		case errors.PhaseBuild:
			return exitIO
		default:
			return exitInternal
		}
	}
	if cerrs, ok := err.(*checker.Errors); ok {
		for _, rep := range cerrs.Reports {
			fmt.Fprintf(os.Stderr, "%s [%s] %s\n", red("error:"), rep.Code, rep.Message)
			if rep.Span != nil {
				fmt.Fprintf(os.Stderr, "  at %s\n", rep.Span.String())
			}
		}
		return exitUser
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
	return exitInternal
}

func dirOf(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return "."
}

func moduleNameFromOutputPath(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, ext := range []string{".ast-exports", ".checker-warnings", ".ast", ".ditto", ".js"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// multiFlag collects repeated -root flags into a []string.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
