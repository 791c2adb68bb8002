package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thep200/ecommerce-api/api"
	"github.com/thep200/ecommerce-api/internal/indexer"
	"github.com/thep200/ecommerce-api/pkg/kafka"
	"golang.org/x/sync/errgroup"
)

type consumerOptions struct {
	configDir    string
	groupID      string
	batchSize    int
	batchTimeout time.Duration
}

func newConsumerCommand() *cobra.Command {
	opts := consumerOptions{}
	cmd := &cobra.Command{
		Use:   "consumer",
		Short: "Index product change events from Kafka into Elasticsearch",
		Long: `
Reads product events from the product topic and applies them to the search
index in batches. A batch is flushed when it is full, when the batch timeout
fires and once more on shutdown.
`,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runConsumer(c.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", "cfg/yaml", "directory containing mode.yaml")
	flags.StringVar(&opts.groupID, "group", "product-indexer", "kafka consumer group id")
	flags.IntVar(&opts.batchSize, "batch-size", 100, "messages per index batch")
	flags.DurationVar(&opts.batchTimeout, "batch-timeout", 5*time.Second, "max wait before flushing a partial batch")
	return cmd
}

func runConsumer(ctx context.Context, opts consumerOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := api.NewShopAPI(api.WithConfigDir(opts.configDir))
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	defer app.Close()

	config, logger := app.Config(), app.Logger()
	if app.Indexer == nil {
		return errors.New("elasticsearch addresses are required to run the indexing consumer")
	}
	if err := app.Indexer.EnsureIndex(ctx); err != nil {
		logger.Warn(ctx, "Could not ensure search index, continuing: %v", err)
	}

	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.TopicProduct, opts.groupID)
	if err != nil {
		return err
	}
	defer consumer.Close()

	batcher := indexer.NewBatcher(logger, app.Indexer, opts.batchSize, opts.batchTimeout)
	batcher.Register(consumer)

	logger.Info(ctx, "Product consumer started on topic %s (group %s)", config.Kafka.TopicProduct, opts.groupID)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return consumer.Start(gctx)
	})
	err = g.Wait()
	logger.Info(context.Background(), "Product consumer stopped")
	return err
}

func main() {
	if err := newConsumerCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
