package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRenderCmd(out io.Writer, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <dashboard.yaml>",
		Short: "Render every chart of a dashboard once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0], opts, out, opts.menuOverride(cmd))
			if err != nil {
				return err
			}
			s.close()
			return nil
		},
	}
}
