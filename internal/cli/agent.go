package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/mq"
)

// NewAgentCmd создаёт команду агента deploy-запросов.
func NewAgentCmd(app *App) *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Execute deploy requests received from RabbitMQ",
		Long: `Agent consumes deploy requests published by "propeller deploy --remote"
from the ` + mq.QueueDeployRequested + ` queue and deploys them locally.

Requests for unknown or misconfigured environments are rejected to the
dead-letter queue; other failures are requeued.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Options.AMQPURL == "" {
				return errors.New("agent requires --amqp-url")
			}

			s, err := app.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			consumer := mq.NewConsumer(s.Connection(), mq.ConsumerConfig{
				Queue:    mq.QueueDeployRequested,
				Handler:  mq.DeployHandler(s.Propeller.Deploy),
				Prefetch: prefetch,
				Logger:   app.Logger,
			})

			return s.Serve(cmd.Context(), func(ctx context.Context) error {
				err := consumer.Run(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 1, "Unacknowledged deliveries per agent")
	return cmd
}
