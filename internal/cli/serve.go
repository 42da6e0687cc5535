package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	goview "github.com/goliatone/go-view"
	"github.com/goliatone/go-view/pkg/metrics"
	"github.com/goliatone/go-view/pkg/server"
)

// newServeCommand creates the "serve" subcommand that renders templates over
// HTTP until interrupted.
func newServeCommand(opts *Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered templates over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			rec, err := metrics.NewPrometheus(reg)
			if err != nil {
				return err
			}

			rt, err := goview.FromConfig(cfg, goview.WithLogger(logger), goview.WithMetrics(rec))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			srv := server.New(rt.ViewFactory(),
				server.WithLogger(logger),
				server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
				server.WithReadTimeout(cfg.Server.ReadTimeout),
				server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("serving templates", "addr", cfg.Server.Addr, "dir", cfg.Templates.Dir)
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
