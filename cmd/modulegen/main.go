// Command modulegen compiles every signing module to wasm, pins each
// binary's digest and emits the embedded manifest consumed by the
// contracts package.
//
// It runs from go generate:
//
//	go generate ./contracts
//	PROFILE=debug go generate ./contracts
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modulegen",
		Short:         "Build and pin the signing modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every subprocess")
	root.AddCommand(newBuildCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "modulegen:", err)
		os.Exit(1)
	}
}
