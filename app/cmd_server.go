package app

import (
	"net"
	"net/http"

	"github.com/JiscSD/cessda-fair-checker/checks"
	"github.com/JiscSD/cessda-fair-checker/version"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCmdServer(logger logrus.FieldLogger, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP check service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.WithField("v", version.VERSION).Info("Starting server...")
			return doServer(logger, config)
		},
	}
}

func doServer(logger logrus.FieldLogger, config *Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	results := checks.NewResultCounter()
	registry.MustRegister(results)

	checker, cache := newChecker(logger, config, checks.WithResultCounter(results))

	var g run.Group
	{
		ln, err := net.Listen("tcp", config.Server.Addr)
		if err != nil {
			return err
		}
		logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

		srv := &http.Server{Handler: newServerHandler(logger, checker, registry)}
		g.Add(func() error {
			return srv.Serve(ln)
		}, func(error) {
			srv.Close()
		})
	}
	{
		cancel := make(chan struct{})

		g.Add(func() error {
			err := interrupt(cancel, cache)
			logger.Warn("Shutting down...")
			return err
		}, func(error) {
			close(cancel)
		})
	}

	return g.Run()
}
