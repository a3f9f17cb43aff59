package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/discoveryping/bootstrap"
	"github.com/kbukum/discoveryping/component"
	"github.com/kbukum/discoveryping/discovery"
	"github.com/kbukum/discoveryping/httpclient"
	"github.com/kbukum/discoveryping/logger"
	"github.com/kbukum/discoveryping/observability"
	"github.com/kbukum/discoveryping/pingproxy"
	"github.com/kbukum/discoveryping/server"

	_ "github.com/kbukum/discoveryping/discovery/consul"
	_ "github.com/kbukum/discoveryping/discovery/static"
)

func newServeCmd() *cobra.Command {
	var configFile, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery ping service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, envFile)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config.yml")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to a .env file")
	return cmd
}

// newApp wires the components. Start order is observability, outbound
// client, HTTP server, discovery, so self-registration happens once the
// health check route is being served and deregistration precedes shutdown.
func newApp(cfg *AppConfig, opts ...bootstrap.Option) (*bootstrap.App[*AppConfig], error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	obs := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, app.Logger)
	client := httpclient.NewComponent(cfg.HTTPClient)
	disc := discovery.NewComponent(cfg.Discovery, app.Logger)

	srv, err := server.New(cfg.Server, app.Logger)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	handler := pingproxy.NewHandler(disc, client, cfg.Proxy,
		pingproxy.WithLogger(app.Logger),
		pingproxy.WithMetrics(metrics),
	)
	pingproxy.RegisterRoutes(srv.GinEngine(), handler)
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)

	for _, c := range []component.Component{obs, client, server.NewComponent(srv), disc} {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	app.OnReady(func(context.Context) error {
		app.Logger.Info("Proxy target configured", logger.Fields(
			logger.FieldService, cfg.Proxy.TargetService,
			"path", cfg.Proxy.TargetPath,
			"provider", cfg.Discovery.Provider,
			"discovery_enabled", cfg.Discovery.Enabled,
		))
		return nil
	})
	return app, nil
}
