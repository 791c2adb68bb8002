package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thep200/ecommerce-api/api"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type apiOptions struct {
	configDir    string
	port         int
	reindexDelay time.Duration
}

func newAPICommand() *cobra.Command {
	opts := apiOptions{}
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the e-commerce HTTP API",
		Long: `
Migrates the database, serves the REST API and rebuilds the product search
index in the background shortly after startup.
`,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runAPI(c.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", "cfg/yaml", "directory containing mode.yaml")
	flags.IntVar(&opts.port, "port", 0, "port to listen on, defaults to http.port from config")
	flags.DurationVar(&opts.reindexDelay, "reindex-delay", 5*time.Second, "delay before the startup reindex")
	return cmd
}

func runAPI(ctx context.Context, opts apiOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := api.NewShopAPI(api.WithConfigDir(opts.configDir))
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger().Error(context.Background(), "Failed to close resources: %v", err)
		}
	}()
	logger := app.Logger()

	if err := app.Migrate(); err != nil {
		return err
	}
	if status, err := app.GetDatabaseStatus(ctx); err != nil {
		logger.Error(ctx, "%s", status)
	} else {
		logger.Info(ctx, "%s", status)
	}
	if status, err := app.GetSearchStatus(ctx); err != nil {
		logger.Warn(ctx, "%s", status)
	} else {
		logger.Info(ctx, "%s", status)
	}

	server, err := app.NewServer(opts.port)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Received shutdown signal, gracefully shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	g.Go(func() error {
		<-app.StartReindex(gctx, opts.reindexDelay)
		return nil
	})
	return g.Wait()
}

func main() {
	if err := newAPICommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
