// Command dasguard validates account transactions against the signing
// modules embedded in this build.
//
// Build with -tags contracts after go generate ./contracts to embed the
// modules; without the tag every selector is unsupported.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dasguard:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	debug  bool
	engine string
}

// app is the state shared by every subcommand once the root has run.
type app struct {
	flags  rootFlags
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "dasguard",
		Short:         "Account transaction validator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseEngine(a.flags.engine); err != nil {
				return err
			}
			config := zap.NewProductionConfig()
			if a.flags.debug {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.flags.engine, "engine", string(engineNative),
		"module engine: native runs the Go verifiers, sandbox runs the embedded wasm")

	root.AddCommand(
		newValidateCmd(a),
		newServeCmd(a),
		newManifestCmd(a),
	)
	return root
}
