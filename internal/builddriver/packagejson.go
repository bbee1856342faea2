package builddriver

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dittolang/ditto/internal/errors"
)

// PackageConfig is the small package-config document the
// "compile package_json" entry point decodes (spec.md §6): enough to
// synthesize a standard package.json with an `exports` map pointing at
// each module's generated JS, without pulling in the full `ditto.toml`
// project-configuration surface spec.md §1 keeps out of scope.
type PackageConfig struct {
	Name    string            `yaml:"name"`
	Version string            `yaml:"version"`
	// Exports maps each public entry-point subpath (e.g. ".", "./maybe")
	// to the module whose generated JS backs it.
	Exports map[string]string `yaml:"exports"`
}

// npmPackageJSON is the subset of package.json fields spec.md §6 says
// to emit: "name, version, and an exports map pointing at the generated
// JS".
type npmPackageJSON struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Type    string            `json:"type"`
	Exports map[string]string `json:"exports"`
}

// LoadPackageConfig reads and decodes a YAML package config.
func LoadPackageConfig(path string) (*PackageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	var cfg PackageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	return &cfg, nil
}

// RunPackageJSON executes the package_json(P) target: read a package
// config and write a standard package.json (spec.md §4.5, §6).
// jsPathFor resolves a module name to the relative JS path the package
// should point at; the build driver supplies this since it alone knows
// where each module's .js output landed on disk.
func RunPackageJSON(cfg *PackageConfig, jsPathFor func(module string) string, outPath string) error {
	exports := make(map[string]string, len(cfg.Exports))
	for subpath, module := range cfg.Exports {
		exports[subpath] = jsPathFor(module)
	}

	pkg := npmPackageJSON{
		Name:    cfg.Name,
		Version: cfg.Version,
		Type:    "module",
		Exports: exports,
	}

	// encoding/json sorts map keys when marshaling, so repeated builds
	// from the same config are byte-identical regardless of map
	// iteration order — the determinism property of spec.md §8.
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	data = append(data, '\n')

	if err := atomicWrite(outPath, data); err != nil {
		return errors.Wrap(errors.New(errors.PhaseBuild, errors.BldIOError, err.Error(), nil))
	}
	return nil
}
