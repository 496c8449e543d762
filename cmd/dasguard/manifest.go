package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blockberries/dasguard/contracts"
)

func newManifestCmd(a *app) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "List the embedded signing modules and their pinned digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := contracts.Manifest()
			if verify {
				if err := m.VerifyAll(); err != nil {
					return err
				}
				a.logger.Debug("manifest verified", zap.Int("modules", m.Len()))
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSELECTOR\tDIGEST")
			for _, info := range m.Info() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Selector, info.Digest)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "recompute every digest before listing")
	return cmd
}
