package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mwouters/varsim/internal/logging"
	"github.com/mwouters/varsim/internal/population"
	"github.com/mwouters/varsim/internal/sampling"
	"github.com/mwouters/varsim/internal/session"
	"github.com/mwouters/varsim/internal/simulation"
	"github.com/mwouters/varsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the interactive simulator",
		Long: `Start a local server with the interactive simulator page.

Each open page gets its own isolated simulation with start/pause and
reset controls, scatter panels per estimator, and bias box panels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			noOpen, _ := cmd.Flags().GetBool("no-open")

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

			pop, err := population.New(cfg.Population.Low, cfg.Population.High)
			if err != nil {
				return fmt.Errorf("build population: %w", err)
			}

			mgr := session.NewManager(pop,
				sampling.Config{MinSize: cfg.Sampling.MinSize, MaxSize: cfg.Sampling.MaxSize},
				simulation.Config{Interval: cfg.Simulation.Interval},
				logger)
			defer mgr.Close()

			tracer := logging.NewTraceLogger(".varsim", cfg.Logging.Level)
			defer tracer.Close()
			mgr.SetTracer(tracer)

			srv := visualization.NewServer(mgr, cfg.Simulation.Interval, logger)

			srvCtx, srvCancel := context.WithCancel(cmd.Context())
			defer srvCancel()

			// Handle SIGINT/SIGTERM for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			notifySignals(sigCh)

			go func() {
				select {
				case <-sigCh:
					srvCancel()
				case <-srvCtx.Done():
				}
			}()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(srvCtx) }()

			// Wait for server to start
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				if srv.Addr() != "" {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			addr := srv.Addr()
			if addr == "" {
				return fmt.Errorf("server failed to start")
			}

			url := "http://" + addr
			fmt.Fprintf(cmd.OutOrStdout(), "Simulator running at %s\n", url)
			fmt.Fprintf(cmd.OutOrStdout(), "Population %d..%d, true variance %.2f. Press Ctrl-C to stop.\n",
				cfg.Population.Low, cfg.Population.High, pop.TrueVariance())

			if !noOpen && cfg.Server.AutoOpen {
				if err := visualization.OpenBrowser(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
				}
			}

			return <-errCh
		},
	}

	cmd.Flags().Bool("no-open", false, "Don't open the browser")

	return cmd
}
