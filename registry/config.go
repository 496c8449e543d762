package registry

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/dasguard/types"
)

// Profile selects optimized or debug compilation of modules.
type Profile string

const (
	ProfileRelease Profile = "release"
	ProfileDebug   Profile = "debug"
)

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileRelease, ProfileDebug:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("registry: unknown build profile %q (want release or debug)", s)
	}
}

// ProfileFromEnv reads the PROFILE environment variable. An unset
// variable means release.
func ProfileFromEnv() (Profile, error) {
	v := os.Getenv("PROFILE")
	if v == "" {
		return ProfileRelease, nil
	}
	return ParseProfile(v)
}

// ModuleSpec names one module to build, in order.
type ModuleSpec struct {
	Name     string         `yaml:"name"`
	Selector types.Selector `yaml:"selector"`
	// Package is the Go package (relative to the build root) holding
	// the module's wasip1 main.
	Package string `yaml:"package"`
}

// Config is the build orchestration input.
type Config struct {
	// GoPackage is the package name of the generated file.
	GoPackage string `yaml:"go_package"`
	// OutDir receives the generated file and a bin/ directory with the
	// embedded binaries.
	OutDir string `yaml:"out_dir"`
	// BuildDir holds the per-profile compiler output.
	BuildDir string       `yaml:"build_dir"`
	Modules  []ModuleSpec `yaml:"modules"`
}

// DefaultModules is the fixed module list, in build order.
func DefaultModules() []ModuleSpec {
	return []ModuleSpec{
		{Name: "eth_sign", Selector: types.AlgETH, Package: "./modules/eth/wasm"},
		{Name: "ckb_sign", Selector: types.AlgCKB, Package: "./modules/ckb/wasm"},
		{Name: "tron_sign", Selector: types.AlgTRON, Package: "./modules/tron/wasm"},
		{Name: "ed25519_sign", Selector: types.AlgEd25519, Package: "./modules/ed25519/wasm"},
		{Name: "ckb_multi_sign", Selector: types.AlgCKBMulti, Package: "./modules/ckbmulti/wasm"},
		{Name: "doge_sign", Selector: types.AlgDOGE, Package: "./modules/doge/wasm"},
	}
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		GoPackage: "contracts",
		OutDir:    "contracts",
		BuildDir:  "build",
		Modules:   DefaultModules(),
	}
}

// LoadConfig reads a yaml config. Unset fields fall back to
// DefaultConfig; an empty module list is an error, not a fallback.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("registry: read config: %w", err)
	}
	cfg := DefaultConfig()
	cfg.Modules = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("registry: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var moduleNameRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks the module list.
func (c Config) Validate() error {
	if c.GoPackage == "" || c.OutDir == "" || c.BuildDir == "" {
		return fmt.Errorf("registry: go_package, out_dir and build_dir are required")
	}
	if len(c.Modules) == 0 {
		return fmt.Errorf("registry: no modules configured")
	}
	names := make(map[string]bool, len(c.Modules))
	sels := make(map[types.Selector]string, len(c.Modules))
	for _, m := range c.Modules {
		if !moduleNameRE.MatchString(m.Name) {
			return fmt.Errorf("registry: invalid module name %q", m.Name)
		}
		if m.Package == "" {
			return fmt.Errorf("registry: module %s has no package", m.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("registry: duplicate module %s", m.Name)
		}
		if prev, ok := sels[m.Selector]; ok {
			return fmt.Errorf("registry: selector %s used by %s and %s", m.Selector, prev, m.Name)
		}
		names[m.Name] = true
		sels[m.Selector] = m.Name
	}
	return nil
}
