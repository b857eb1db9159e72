package cli

import (
	"net/http"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/metrics"
	"github.com/Fuabioo/gitdl/internal/server"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP download proxy",
	Long: `Serves normalized project archives over HTTP until interrupted.

Routes:
  GET /download?url=<reference>   archive for any allowed reference
  GET /github/{owner}/{repo}      archive for a GitHub project
  GET /healthz                    liveness
  GET /metrics                    Prometheus metrics (unless disabled)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", core.DefaultServerAddr, "Listen address")
	serveCmd.Flags().Bool("metrics", true, "Expose /metrics")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	opts := core.Options{Logger: log}
	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		reg := prom.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	pipeline, err := core.NewPipeline(cfg, opts)
	if err != nil {
		return err
	}

	log.Info().
		Str("work_dir", pipeline.Layout().Root()).
		Str("branch", cfg.Branch).
		Strs("allowed_hosts", cfg.AllowedHosts).
		Str("version", GetVersion()).
		Msg("starting gitdl proxy")

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Pipeline:        pipeline,
		Logger:          log,
		Metrics:         metricsHandler,
	})
	return srv.ListenAndServe(cmd.Context())
}
