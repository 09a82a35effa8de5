package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/unihub"
	"github.com/unkn0wn-root/unihub/config"
	"github.com/unkn0wn-root/unihub/logger"
	logruslog "github.com/unkn0wn-root/unihub/logger/logrus"
	sloglog "github.com/unkn0wn-root/unihub/logger/slog"
	zaplog "github.com/unkn0wn-root/unihub/logger/zap"
)

// App is one command invocation's wired client.
type App struct {
	cfg    *config.Config
	log    logger.Logger
	client *unihub.Client
	out    io.Writer
}

func newApp(ctx context.Context, g *globalFlags, out io.Writer) (*App, error) {
	loader := config.NewLoader(nil)
	loader.Path = g.configPath
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	client, err := unihub.New(ctx, unihub.Options{Config: cfg, Logger: log})
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, log: log, client: client, out: out}, nil
}

func (a *App) Close(ctx context.Context) {
	if err := a.client.Close(ctx); err != nil {
		a.log.Warn("close client", logger.Fields{"err": err.Error()})
	}
}

func newLogger(cfg config.LogConfig) (logger.Logger, error) {
	switch cfg.Backend {
	case "", "zap":
		return zaplog.New(cfg.Level)
	case "logrus":
		return logruslog.New(cfg.Level)
	case "slog":
		return sloglog.New(cfg.Level), nil
	}
	return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
}

// run builds the App for cmd, calls fn and closes the App.
func run(g *globalFlags, fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, g, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close(ctx)
		return fn(ctx, a, args)
	}
}
