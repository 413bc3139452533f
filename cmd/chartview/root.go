package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"chartview/internal/config"
	"chartview/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel    string
	columns     int
	rows        int
	resizeDelay time.Duration

	// menu overrides
	palette    string
	downsample string
	sync       bool
	wheel      bool
	brushMain  bool
}

// newRootCmd builds the command tree writing frames to out.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chartview",
		Short: "Render and replay interactive time-series charts",
		Long: `chartview renders the charts of a YAML dashboard as styled text.

Each chart reads a metric query payload, fits its scales, downsamples its
series to the plot width and draws the main plot, the overview strip with its
brush, the quick range buttons, the hover tooltip and the legend.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.IntVar(&opts.columns, "columns", 0, "plot width in cells")
	flags.IntVar(&opts.rows, "rows", 0, "plot height in cells")
	flags.DurationVar(&opts.resizeDelay, "resize-delay", service.DefaultResizeDelay, "quiet period before a resize is applied")
	flags.StringVar(&opts.palette, "palette", "", "color palette (schemeCategory10, schemeDark2, schemeSet1)")
	flags.StringVar(&opts.downsample, "downsample", "", "downsampling method (average, min-max, largest-triangle-one-bucket, largest-triangle-three-bucket)")
	flags.BoolVar(&opts.sync, "sync", false, "synchronise hover across charts")
	flags.BoolVar(&opts.wheel, "wheel", false, "enable wheel zoom")
	flags.BoolVar(&opts.brushMain, "brush-main", false, "enable drag-to-zoom on the main plot")

	cmd.AddCommand(newRenderCmd(out, opts), newReplayCmd(out, opts))
	return cmd
}

// setupLogging configures the global zerolog logger for console output on stderr.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

// menuOverride returns the menu option selected by the menu flags, nil when
// no menu flag was given.
func (o *rootOptions) menuOverride(cmd *cobra.Command) *config.MenuOption {
	flags := cmd.Flags()
	if !flags.Changed("palette") && !flags.Changed("downsample") && !flags.Changed("sync") &&
		!flags.Changed("wheel") && !flags.Changed("brush-main") {
		return nil
	}

	opt := config.DefaultMenuOption()
	if o.palette != "" {
		opt.ColorPalette = o.palette
	}
	opt.DownSampleMethod = o.downsample
	opt.IsSyncChart = o.sync
	opt.IsWheelOn = o.wheel
	opt.IsBrushMainOn = o.brushMain
	return &opt
}
