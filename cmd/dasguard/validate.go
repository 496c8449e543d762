package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/local"
	"github.com/blockberries/dasguard/server"
	"github.com/blockberries/dasguard/types"
)

// errRejected makes the command exit non-zero when any file is rejected.
var errRejected = errors.New("one or more transactions rejected")

func newValidateCmd(a *app) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate cramberry-encoded transaction files",
		Long: `Decodes each file as a transaction and validates it. Files are
validated concurrently; verdicts are printed in argument order.

An integrity violation stops the run immediately.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeEngine, err := a.dispatcher(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			conn := local.NewConnection(d, server.WithLogger(a.logger))
			defer conn.Close()
			return validateFiles(cmd.Context(), conn, args, jobs, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "files validated in parallel")
	return cmd
}

func readTx(path string) (types.Tx, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tx{}, err
	}
	var tx types.Tx
	if err := cramberry.Unmarshal(data, &tx); err != nil {
		return types.Tx{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return tx, nil
}

func validateFiles(ctx context.Context, v dasguard.Validator, paths []string, jobs int, out io.Writer) error {
	verdicts := make([]types.Verdict, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			tx, err := readTx(path)
			if err != nil {
				return err
			}
			verdict, err := v.Validate(gctx, tx)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			verdicts[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rejected := 0
	for i, v := range verdicts {
		if v.Accepted() {
			fmt.Fprintf(out, "%s: accept module=%s sender=%s\n", paths[i], v.Module, v.Sender)
			continue
		}
		rejected++
		fmt.Fprintf(out, "%s: reject category=%s code=%d info=%q\n", paths[i], v.Category, v.Code, v.Info)
	}
	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d", errRejected, rejected, len(paths))
	}
	return nil
}
