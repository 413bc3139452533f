package main

import (
	"fmt"
	"io"
	"os"

	"chartview/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newReplayCmd(out io.Writer, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <dashboard.yaml> <script.yaml>",
		Short: "Replay a gesture script against a dashboard",
		Long: `Replay loads a dashboard, then applies every step of a YAML gesture
script in order. Each chart redraws after every step that touches it, and
synced charts redraw when a hover reaches them.

Example script:

  steps:
    - {chart: cpu, action: brush, from: 100, to: 200}
    - {chart: cpu, action: hover, at: 150}
    - {chart: cpu, action: toggle, source: "system:cpu.user"}
    - {action: resize, width: 800}`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(args[1])
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), args[0], opts, out, opts.menuOverride(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			for i, step := range script.Steps {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.run(step); err != nil {
					return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
				}
			}

			log.Info().Int("steps", len(script.Steps)).Msg("script replayed")
			return nil
		},
	}
}

func loadScript(path string) (config.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.Script{}, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return config.LoadScript(f)
}
