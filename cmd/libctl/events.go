package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/pkg/mq"
)

func newEventsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "领域事件",
	}
	cmd.AddCommand(newEventsTailCmd(c))
	return cmd
}

func newEventsTailCmd(c *cli) *cobra.Command {
	var keys []string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "实时打印发布到交换机的领域事件,Ctrl+C退出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 临时排他队列,退出后自动删除,不影响其他消费者
			consumer, err := mq.NewConsumer(c.cfg.MQ.URL, c.cfg.MQ.Exchange, mq.ExchangeTopic, "", keys)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tailing %s on %s (%v)\n", consumer.Queue(), c.cfg.MQ.Exchange, keys)
			return consumer.Consume(ctx, func(_ context.Context, d mq.Delivery) error {
				fmt.Fprintf(out, "%s  %-16s %s\n", d.Timestamp.Format(time.RFC3339), d.RoutingKey, d.Body)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&keys, "key", []string{"#"}, "routing key,支持topic通配符,可重复")
	return cmd
}
