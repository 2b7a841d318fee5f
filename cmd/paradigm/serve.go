package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/paradigm/internal/cli"
	"github.com/aretw0/paradigm/internal/config"
	httpAdapter "github.com/aretw0/paradigm/pkg/adapters/http"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/observability"
	"github.com/aretw0/paradigm/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves sequence previews, stored trials, live trial events and Prometheus metrics.
With --simulate, the given experiment is simulated in the background and its trials are
streamed to /sessions/{id}/events as they finish.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		simulatePath, _ := cmd.Flags().GetString("simulate")

		storeOpts, err := storeOptions(cmd)
		if err != nil {
			return err
		}
		sessions, closeStore, err := cli.OpenSessions(storeOpts, session.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		streams := httpAdapter.NewStreamManager()

		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(
				httpAdapter.WithStore(sessions),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithMetrics(reg),
				httpAdapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 5 * time.Second,
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Stop()

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Paradigm Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		if simulatePath != "" {
			exp, err := config.Load(simulatePath)
			if err != nil {
				return err
			}
			delay, _ := cmd.Flags().GetDuration("stream-delay")
			go func() {
				res, err := cli.Simulate(sigCtx, exp, cli.SimulateOptions{
					Sessions: sessions,
					Metrics:  metrics,
					Logger:   logger,
					OnFinish: pace(sigCtx, streams, delay),
				})
				if err != nil {
					logger.Error("background simulation failed", "err", err)
					return
				}
				logger.Info("background simulation finished", "session", res.SessionID, "trials", res.Trials)
			}()
		}

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", sigCtx.Signal())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Paradigm Server stopped gracefully")
		return nil
	},
}

// pace publishes each finished trial and then sleeps in real time, so that background
// simulations stream at a watchable rate.
func pace(ctx context.Context, streams *httpAdapter.StreamManager, delay time.Duration) func(*domain.TrialRecord) {
	return func(rec *domain.TrialRecord) {
		streams.Publish(rec)
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addStoreFlags(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("simulate", "", "Experiment file to simulate in the background")
	serveCmd.Flags().Duration("stream-delay", 250*time.Millisecond, "Real-time delay between streamed trials")
}
