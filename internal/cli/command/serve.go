package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvsession/internal/core/session"
	"github.com/yndnr/kvsession/internal/infra/buildinfo"
	"github.com/yndnr/kvsession/internal/infra/confloader"
	"github.com/yndnr/kvsession/internal/infra/shutdown"
	"github.com/yndnr/kvsession/internal/infra/tlsroots"
	"github.com/yndnr/kvsession/internal/server/config"
	"github.com/yndnr/kvsession/internal/server/httpserver"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/storage/backends"
	"github.com/yndnr/kvsession/internal/telemetry/metric"
)

// ServeCommand runs the demo server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the demo HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "KV backend (overrides kv.backend)",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	extra := map[string]any{}
	if c.IsSet("addr") {
		extra["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("backend") {
		extra["kv.backend"] = c.String("backend")
	}

	loader, err := newLoader(c, extra)
	if err != nil {
		return err
	}
	cfg, err := loader.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogger, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting kvsession", buildinfo.LogAttrs()...)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	var reg *metric.Registry
	bcfg := cfg.BackendConfig()
	if cfg.Metrics.Enabled {
		reg = metric.NewRegistry()
		bcfg.Observer = reg
		bcfg.Metrics = reg.Registerer()
	}

	ctx := c.Context
	openCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	store, err := backends.Open(openCtx, bcfg, slogger)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.KV.Backend, err)
	}

	opts := []session.Option{session.WithLogger(log)}
	if reg != nil {
		opts = append(opts, session.WithRecorder(reg))
		if lister, ok := store.(storage.Lister); ok {
			reg.Registerer().MustRegister(metric.NewStoreCollector(lister, string(store.Kind())))
		}
	}
	manager, err := session.NewManager(cfg.SessionConfig(), opts...)
	if err != nil {
		store.Close()
		return err
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Manager:     manager,
		Store:       store,
		Logger:      slogger,
		Metrics:     reg,
		MetricsPath: cfg.Metrics.Path,
		RateLimit:   cfg.Server.RateLimit,
	})

	var (
		srvOpts []httpserver.Option
		keyPair *tlsroots.KeyPair
	)
	if cfg.Server.HTTP.TLSCertFile != "" {
		keyPair, err = tlsroots.NewKeyPair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(slogger))
		if err != nil {
			store.Close()
			return err
		}
		srvOpts = append(srvOpts, httpserver.WithTLSConfig(keyPair.ServerConfig()))
	}
	srv := httpserver.New(cfg.Server.HTTP.Addr, router, srvOpts...)

	// Hooks run in reverse: stop accepting requests, drain detached
	// renewals, then close the store they write to.
	sd := shutdown.NewHandler(cfg.Server.ShutdownTimeout, slogger)
	sd.OnShutdown("kv store", func(context.Context) error { return store.Close() })
	sd.OnShutdown("session renewals", manager.Wait)
	sd.OnShutdown("http server", srv.Shutdown)

	if loader.FilePath() != "" {
		w, err := confloader.WatchServer(loader, slogger, confloader.ApplyLogLevel)
		if err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			sd.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	if keyPair != nil {
		watchCtx, stopWatch := context.WithCancel(ctx)
		go func() {
			if err := keyPair.Watch(watchCtx); err != nil {
				log.Warn("certificate hot reload disabled", "error", err)
			}
		}()
		sd.OnShutdown("certificate watcher", func(context.Context) error {
			stopWatch()
			return nil
		})
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", srv.TLS(),
			"backend", string(store.Kind()),
		)
		if err := srv.ListenAndServe(); err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			sd.Trigger()
		}
	}()

	err = sd.Wait(ctx)
	select {
	case serr := <-serveErr:
		err = errors.Join(serr, err)
	default:
	}
	if err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}
