package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/vietddude/biofetch/internal/infra/redis"
)

var queueBatches bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the queue of identifiers from failed batches",
}

var queueShowCmd = &cobra.Command{
	Use:   "show [backend]",
	Short: "Show queued identifiers for a backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(func(ctx context.Context, q *redisclient.FailureQueue) error {
			if queueBatches {
				return showBatches(ctx, q, args[0])
			}
			ids, err := q.Peek(ctx, args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		})
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear [backend]",
	Short: "Drop all queued identifiers for a backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(func(ctx context.Context, q *redisclient.FailureQueue) error {
			if err := q.Clear(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Cleared failure queue for %s\n", args[0])
			return nil
		})
	},
}

func init() {
	queueShowCmd.Flags().BoolVar(&queueBatches, "batches", false, "show failed batches with their error class")
	queueCmd.AddCommand(queueShowCmd, queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

func withQueue(fn func(ctx context.Context, q *redisclient.FailureQueue) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is not configured")
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, redisclient.NewFailureQueue(client, cfg.Redis.TTL))
}

func showBatches(ctx context.Context, q *redisclient.FailureQueue, backend string) error {
	batches, err := q.Batches(ctx, backend)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "INDEX\tCLASS\tSTAGE\tATTEMPTS\tIDS\tERROR")
	for _, b := range batches {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			b.Index, b.Class, b.Stage, b.Attempts, strings.Join(b.IDs, ","), b.Error)
	}
	return w.Flush()
}
