package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/RobertWHurst/wrs/config"
	"github.com/urfave/cli/v2"
)

const appName = "wrs"

var version = "0.0.0"

func run(args []string) error {
	app := &cli.App{
		Name:    appName,
		Usage:   "WebSocket request/response server",
		Version: version,
		Commands: []*cli.Command{
			serverCmd(),
		},
	}
	return app.Run(args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the WebSocket server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on, overrides the configuration",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config_file"))
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}

			app := NewApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return app.Stop(ctx)
		},
	}
}
