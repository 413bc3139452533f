/*
Package main implements chartview, a command line host for interactive
time-series charts.

chartview reads a YAML dashboard whose charts point at metric query payloads
and renders every chart as styled text. It can also replay a YAML gesture
script against the dashboard (brushes, zooms, quick ranges, hovers, legend
toggles, resizes), printing every frame as the charts redraw.

Usage:

	chartview render dashboard.yaml --columns=100
	chartview replay dashboard.yaml script.yaml --log-level=debug

Menu flags such as --palette or --sync override the stored menu option of
every chart of the dashboard.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// main is the entry point of chartview. It cancels the command context on
// SIGINT or SIGTERM so a long replay stops between two steps.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("interrupted, stopping")
		cancel()
	}()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
