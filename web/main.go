package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/df07/go-packet-raytracer/internal/logger"
	"github.com/df07/go-packet-raytracer/web/server"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp()
	app.Name = "packet-raytracer-web"
	app.Usage = "stream progressive renders to the browser"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "port",
			Value: 8080,
			Usage: "port to serve on",
		},
		cli.StringFlag{
			Name:  "scenes",
			Usage: "directory of YAML scenes (default: ./scenes or ../scenes)",
		},
		cli.StringFlag{
			Name:  "static",
			Value: "static",
			Usage: "directory of the web client files; empty disables it",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "debug, info, warn or error",
		},
	}
	app.Action = serve

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx *cli.Context) error {
	if err := logger.Init(ctx.String("log-level"), true); err != nil {
		return err
	}
	defer logger.Sync()

	port := ctx.Int("port")
	opts := []server.Option{
		server.WithLogger(logger.Named("web")),
		server.WithScenesDir(ctx.String("scenes")),
	}
	if dir := ctx.String("static"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			opts = append(opts, server.WithStaticDir(dir))
		} else {
			logger.Warn("static directory not found, serving the API only", zap.String("dir", dir))
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("packet raytracer web server", zap.Int("port", port))
	return server.NewServer(port, opts...).Start(runCtx)
}
