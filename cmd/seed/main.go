package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thep200/ecommerce-api/api"
	"github.com/thep200/ecommerce-api/internal/seed"
)

type seedOptions struct {
	configDir string
	reindex   bool
}

func newSeedCommand() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Insert sample categories, products and the admin account",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runSeed(c.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", "cfg/yaml", "directory containing mode.yaml")
	flags.BoolVar(&opts.reindex, "reindex", false, "rebuild the search index after seeding")
	return cmd
}

func runSeed(ctx context.Context, opts seedOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := api.NewShopAPI(api.WithConfigDir(opts.configDir))
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	defer app.Close()

	if err := app.Migrate(); err != nil {
		return err
	}
	seeder, err := seed.NewSeeder(app.Config(), app.Logger(), app.Mysql())
	if err != nil {
		return err
	}
	if err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}

	if opts.reindex {
		n, err := app.ReindexAll(ctx)
		if err != nil {
			return err
		}
		app.Logger().Info(ctx, "Indexed %d products", n)
	}
	return nil
}

func main() {
	if err := newSeedCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
