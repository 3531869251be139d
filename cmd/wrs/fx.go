package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/RobertWHurst/wrs"
	"github.com/RobertWHurst/wrs/config"
	"github.com/RobertWHurst/wrs/internal/httpserver"
	"github.com/RobertWHurst/wrs/logging"
	natsconnection "github.com/RobertWHurst/wrs/nats-connection"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideServer,
			ProvideHTTPServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		fx.Invoke(RegisterNats),
		fx.Invoke(RegisterLifecycle),
	)
}

func ProvideLogger(lc fx.Lifecycle, cfg *config.Config) *slog.Logger {
	logger, closer := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	slog.SetDefault(logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer.Close()
		},
	})
	return logger
}

func ProvideServer(cfg *config.Config, logger *slog.Logger) *wrs.Server {
	server := wrs.NewServer()
	server.SetProtocol(cfg.Protocol)
	server.SetOrigins(cfg.Origins)
	server.Module(NewSystemModule(server))
	logging.Attach(server.Events(), logger)
	return server
}

func ProvideHTTPServer(cfg *config.Config, server *wrs.Server) *httpserver.HTTPServer {
	return httpserver.New(server, filepath.Join(cfg.Directory, cfg.Root))
}

// RegisterNats links the server with other nodes when a NATS url is
// configured.
func RegisterNats(lc fx.Lifecycle, cfg *config.Config, server *wrs.Server, logger *slog.Logger) error {
	if cfg.Nats.URL == "" {
		return nil
	}

	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("wrs"))
	if err != nil {
		return errors.Wrapf(err, "failed to connect to nats at %s", cfg.Nats.URL)
	}

	connection := natsconnection.New(nc)
	connection.Prefix = cfg.Nats.Prefix
	connection.OnError = func(err error) {
		logger.Warn("[NATS] interplexer message dropped", slog.Any("err", err))
	}
	if err := server.SetInterplexerConnection(connection); err != nil {
		nc.Close()
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return nc.Drain()
		},
	})
	return nil
}

func RegisterLifecycle(lc fx.Lifecycle, cfg *config.Config, server *wrs.Server, httpServer *httpserver.HTTPServer, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := server.Start(ctx); err != nil {
				return err
			}

			readyCtx, cancel := context.WithTimeout(ctx, cfg.ReadyTimeout)
			defer cancel()
			if err := server.WaitReady(readyCtx); err != nil {
				return err
			}

			if err := httpServer.Listen(cfg.Port); err != nil {
				return err
			}
			logger.Info("[SERVER] listening", slog.String("addr", httpServer.Addr()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	})
}
