package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

// GeneratedFile is the name of the emitted manifest source.
const GeneratedFile = "contracts_gen.go"

// Command is one subprocess invocation of the build.
type Command struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes build subprocesses. A non-nil error aborts the build.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// Run executes cmd and fails on any non-zero exit, including stderr
// in the error.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// BuiltModule is one compiled and pinned module.
type BuiltModule struct {
	ModuleSpec
	Digest   Digest
	Size     int64
	Artifact string
	Embedded string
}

// BuildResult describes a completed build.
type BuildResult struct {
	Profile Profile
	Modules []BuiltModule
	Source  string
}

// Builder compiles, hashes and embeds every configured module.
type Builder struct {
	cfg     Config
	profile Profile
	root    string
	runner  Runner
	logger  *zap.Logger
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithProfile overrides the build profile.
func WithProfile(p Profile) BuildOption { return func(b *Builder) { b.profile = p } }

// WithRoot sets the directory all relative paths resolve against.
func WithRoot(dir string) BuildOption { return func(b *Builder) { b.root = dir } }

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) BuildOption { return func(b *Builder) { b.runner = r } }

// WithBuildLogger sets the logger.
func WithBuildLogger(l *zap.Logger) BuildOption { return func(b *Builder) { b.logger = l } }

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg Config, opts ...BuildOption) *Builder {
	b := &Builder{
		cfg:     cfg,
		profile: ProfileRelease,
		root:    ".",
		runner:  ExecRunner{},
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build runs the whole pipeline. Modules are built one at a time in
// configuration order and their binaries are staged outside bin/. Only
// once every module has built and the source has rendered are the
// binaries moved into bin/ and the generated file written, so a failed
// build leaves the previous manifest and its binaries untouched.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseProfile(string(b.profile)); err != nil {
		return nil, err
	}

	if err := b.checkoutDeps(ctx); err != nil {
		return nil, err
	}

	buildDir := filepath.Join(b.root, b.cfg.BuildDir, string(b.profile))
	outDir := filepath.Join(b.root, b.cfg.OutDir)
	binDir := filepath.Join(outDir, "bin")
	for _, dir := range []string{buildDir, binDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("registry: create %s: %w", dir, err)
		}
	}

	staging, err := os.MkdirTemp(outDir, ".modulegen-")
	if err != nil {
		return nil, fmt.Errorf("registry: create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	result := &BuildResult{Profile: b.profile}
	staged := make([]string, 0, len(b.cfg.Modules))
	for _, spec := range b.cfg.Modules {
		built, err := b.buildModule(ctx, spec, buildDir, staging)
		if err != nil {
			return nil, err
		}
		staged = append(staged, built.Embedded)
		built.Embedded = filepath.Join(binDir, spec.Name+".wasm")
		b.logger.Info("module pinned",
			zap.String("module", spec.Name),
			zap.Stringer("selector", spec.Selector),
			zap.String("digest", built.Digest.String()),
			zap.Int64("size", built.Size))
		result.Modules = append(result.Modules, built)
	}

	src, err := Render(b.cfg.GoPackage, b.profile, result.Modules)
	if err != nil {
		return nil, err
	}
	result.Source = filepath.Join(outDir, GeneratedFile)
	if err := b.install(result, staged, src); err != nil {
		return nil, err
	}
	return result, nil
}

// install moves the staged binaries into bin/ and writes the generated
// source. The old source is removed first: if installing stops midway,
// no manifest pins a binary that has already been replaced.
func (b *Builder) install(result *BuildResult, staged []string, src []byte) error {
	if err := os.Remove(result.Source); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("registry: remove %s: %w", result.Source, err)
	}
	for i, m := range result.Modules {
		if err := os.Rename(staged[i], m.Embedded); err != nil {
			return fmt.Errorf("registry: install %s: %w", m.Name, err)
		}
	}
	return writeFileAtomic(result.Source, src)
}

// checkoutDeps initializes git submodules when the tree declares any.
func (b *Builder) checkoutDeps(ctx context.Context) error {
	_, err := os.Stat(filepath.Join(b.root, ".gitmodules"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("registry: stat .gitmodules: %w", err)
	}
	cmd := Command{Dir: b.root, Name: "git", Args: []string{"submodule", "update", "--init", "--recursive"}}
	b.logger.Debug("checking out submodules", zap.Stringer("cmd", cmd))
	if err := b.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("registry: submodule checkout: %w", err)
	}
	return nil
}

func (b *Builder) buildModule(ctx context.Context, spec ModuleSpec, buildDir, stageDir string) (BuiltModule, error) {
	artifact := filepath.Join(buildDir, spec.Name+".wasm")
	// Never digest a stale artifact from an earlier build.
	if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		return BuiltModule{}, fmt.Errorf("registry: remove stale %s: %w", artifact, err)
	}

	absArtifact, err := filepath.Abs(artifact)
	if err != nil {
		return BuiltModule{}, fmt.Errorf("registry: %s: %w", spec.Name, err)
	}
	cmd := Command{
		Dir:  b.root,
		Env:  append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0"),
		Name: "go",
		Args: goBuildArgs(b.profile, absArtifact, spec.Package),
	}
	b.logger.Debug("building module", zap.String("module", spec.Name), zap.Stringer("cmd", cmd))
	if err := b.runner.Run(ctx, cmd); err != nil {
		return BuiltModule{}, fmt.Errorf("registry: build %s: %w", spec.Name, err)
	}

	embedded := filepath.Join(stageDir, spec.Name+".wasm")
	digest, size, err := copyAndDigest(artifact, embedded)
	if err != nil {
		return BuiltModule{}, fmt.Errorf("registry: pin %s: %w", spec.Name, err)
	}
	return BuiltModule{
		ModuleSpec: spec,
		Digest:     digest,
		Size:       size,
		Artifact:   artifact,
		Embedded:   embedded,
	}, nil
}

func goBuildArgs(p Profile, out, pkg string) []string {
	args := []string{"build"}
	if p == ProfileRelease {
		args = append(args, "-trimpath", "-ldflags=-s -w")
	} else {
		args = append(args, "-gcflags=all=-N -l")
	}
	return append(args, "-o", out, pkg)
}

// copyAndDigest copies src to dst while hashing it, so the digest is
// always over exactly the bytes that get embedded.
func copyAndDigest(src, dst string) (Digest, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return Digest{}, 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return Digest{}, 0, err
	}
	counter := &countingWriter{w: out}
	digest, err := SumReader(io.TeeReader(in, counter))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Digest{}, 0, err
	}
	return digest, counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("registry: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("registry: rename %s: %w", path, err)
	}
	return nil
}

var sourceTemplate = template.Must(template.New("contracts").Parse(`//go:build contracts

// Code generated by modulegen. DO NOT EDIT.

package {{.Package}}

import (
	_ "embed"

	"github.com/blockberries/dasguard/registry"
)
{{range .Modules}}
// {{.Name}}: {{.Size}} bytes, profile {{$.Profile}}.
//
//go:embed bin/{{.Name}}.wasm
var {{.Ident}}Binary []byte

var {{.Ident}}Hash = registry.Digest{ {{.Bytes}} }
{{end}}
var manifest = registry.MustManifest(
{{- range .Modules}}
	registry.Entry{Name: {{printf "%q" .Name}}, Selector: {{.Selector}}, Digest: {{.Ident}}Hash, Binary: {{.Ident}}Binary},
{{- end}}
)

// Manifest returns the modules embedded in this build.
func Manifest() *registry.Manifest { return manifest }
`))

type templateModule struct {
	Name     string
	Ident    string
	Selector uint8
	Size     int64
	Bytes    string
}

// Render produces the formatted Go source of the generated manifest.
func Render(pkg string, profile Profile, modules []BuiltModule) ([]byte, error) {
	data := struct {
		Package string
		Profile Profile
		Modules []templateModule
	}{Package: pkg, Profile: profile}
	for _, m := range modules {
		data.Modules = append(data.Modules, templateModule{
			Name:     m.Name,
			Ident:    identFor(m.Name),
			Selector: uint8(m.Selector),
			Size:     m.Size,
			Bytes:    byteLiteral(m.Digest[:]),
		})
	}
	var buf bytes.Buffer
	if err := sourceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("registry: render: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("registry: format generated source: %w", err)
	}
	return src, nil
}

// identFor turns eth_sign into ethSign.
func identFor(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func byteLiteral(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", v)
	}
	return sb.String()
}
