package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blockberries/dasguard/registry"
)

type buildFlags struct {
	config  string
	root    string
	profile string
	debug   bool
}

func newBuildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile, hash and embed every configured module",
		Long: `Builds each module listed in the config, one at a time and in order,
for GOOS=wasip1 GOARCH=wasm. Every binary is hashed with the
personalized BLAKE2b digest and copied next to the generated
contracts_gen.go. Any failure aborts the build and leaves the previous
manifest in place.

The profile defaults to $PROFILE, or release when unset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f, registry.ExecRunner{})
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "module config (yaml); defaults to the built-in list")
	cmd.Flags().StringVar(&f.root, "root", ".", "directory relative paths resolve against")
	cmd.Flags().StringVar(&f.profile, "profile", "", "release or debug; overrides $PROFILE")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "shorthand for --profile debug")
	return cmd
}

func resolveProfile(f buildFlags) (registry.Profile, error) {
	switch {
	case f.debug:
		return registry.ProfileDebug, nil
	case f.profile != "":
		return registry.ParseProfile(f.profile)
	default:
		return registry.ProfileFromEnv()
	}
}

func runBuild(cmd *cobra.Command, f buildFlags, runner registry.Runner) error {
	profile, err := resolveProfile(f)
	if err != nil {
		return err
	}
	cfg := registry.DefaultConfig()
	if f.config != "" {
		if cfg, err = registry.LoadConfig(f.config); err != nil {
			return err
		}
	}

	root, err := filepath.Abs(f.root)
	if err != nil {
		return err
	}
	logger.Info("building modules",
		zap.String("root", root),
		zap.String("profile", string(profile)),
		zap.Int("modules", len(cfg.Modules)))

	b := registry.NewBuilder(cfg,
		registry.WithProfile(profile),
		registry.WithRoot(root),
		registry.WithRunner(runner),
		registry.WithBuildLogger(logger))
	res, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("manifest written", zap.String("path", res.Source), zap.Int("modules", len(res.Modules)))
	return nil
}
