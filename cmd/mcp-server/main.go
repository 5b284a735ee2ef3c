package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/xscopehub/mcp-http-server/internal/audit"
	"github.com/xscopehub/mcp-http-server/internal/cache"
	"github.com/xscopehub/mcp-http-server/internal/catalog"
	"github.com/xscopehub/mcp-http-server/internal/config"
	"github.com/xscopehub/mcp-http-server/internal/dispatcher"
	"github.com/xscopehub/mcp-http-server/internal/limiter"
	"github.com/xscopehub/mcp-http-server/internal/metrics"
	"github.com/xscopehub/mcp-http-server/internal/registry"
	"github.com/xscopehub/mcp-http-server/internal/server"
	"github.com/xscopehub/mcp-http-server/internal/types"
	"github.com/xscopehub/mcp-http-server/internal/weather"
	mcplog "github.com/xscopehub/mcp-http-server/pkg/log"
	"github.com/xscopehub/mcp-http-server/pkg/manifest"
	"github.com/xscopehub/mcp-http-server/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type flags struct {
	configPath string
	addr       string
	daemonMode bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	rootCmd := &cobra.Command{
		Use:           "mcp-server",
		Short:         "MCP JSON-RPC server over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if f.daemonMode {
				cntxt := &daemon.Context{
					PidFileName: cfg.Server.PIDFile,
					PidFilePerm: 0644,
				}
				child, err := cntxt.Reborn()
				if err != nil {
					return fmt.Errorf("daemonize: %w", err)
				}
				if child != nil {
					return nil
				}
				defer cntxt.Release()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "configs/mcp-server.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&f.addr, "addr", "", "listen address, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&f.daemonMode, "daemon", false, "run in background")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-server %s\n", version)
		},
	})
	return rootCmd
}

func loadConfig(f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.addr != "" {
		cfg.Server.Address = f.addr
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, version, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logger, err := mcplog.New(cfg.Telemetry.ServiceName, mcplog.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		OTel:   cfg.Telemetry.Enabled(),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	srv, cleanup, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.Run(ctx)
}

// build wires every component behind the HTTP server.
func build(cfg config.Config, logger *slog.Logger) (*server.Server, func(), error) {
	mf, err := manifest.Load(cfg.Server.ManifestPath)
	if err != nil {
		return nil, nil, err
	}
	if version != "dev" && cfg.Server.ManifestPath == "" {
		mf.Version = version
	}

	m := metrics.New()

	weatherCache, err := cache.New(cache.Config{
		Enabled:     cfg.Weather.Cache.Enabled,
		NumCounters: cfg.Weather.Cache.NumCounters,
		MaxCost:     cfg.Weather.Cache.MaxCost,
		BufferItems: cfg.Weather.Cache.BufferItems,
		TTL:         cfg.Weather.Cache.TTL,
	})
	if err != nil {
		return nil, nil, err
	}

	provider := weather.New(weather.Config{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Lang:    cfg.Weather.Lang,
		Units:   cfg.Weather.Units,
		Timeout: cfg.Weather.Timeout,
	},
		weather.WithCache(weatherCache),
		weather.WithLimiter(limiter.New(limiter.Config{
			Enabled:           cfg.Weather.Limit.Enabled,
			RequestsPerSecond: cfg.Weather.Limit.RequestsPerSecond,
			Burst:             cfg.Weather.Limit.Burst,
		})),
		weather.WithObserver(m),
		weather.WithLogger(logger),
	)
	if cfg.Weather.APIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set, get_weather will return synthetic data")
	}

	reg, err := registry.New(catalog.Tools(provider), catalog.Resources(), catalog.Prompts())
	if err != nil {
		weatherCache.Close()
		return nil, nil, err
	}

	mf = mf.WithCatalog(toolNames(reg.ListTools()), resourceURIs(reg.ListResources()))

	d := dispatcher.New(reg,
		dispatcher.ServerInfo{Name: mf.Name, Version: mf.Version},
		dispatcher.WithObserver(m),
		dispatcher.WithLogger(logger),
	)

	var tracing string
	if cfg.Telemetry.Enabled() {
		tracing = cfg.Telemetry.ServiceName
	}
	srv := server.New(server.Options{
		Config:         cfg.Server,
		Manifest:       mf,
		Dispatcher:     d,
		Metrics:        m,
		Audit:          audit.New(cfg.Audit.Enabled, os.Stdout),
		Logger:         logger,
		TracingService: tracing,
	})
	return srv, weatherCache.Close, nil
}

func toolNames(tools []types.ToolDescriptor) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func resourceURIs(resources []types.ResourceDescriptor) []string {
	uris := make([]string, 0, len(resources))
	for _, r := range resources {
		uris = append(uris, r.URI)
	}
	return uris
}
