package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/mq"
)

// ErrRemoteUnavailable — --remote без --amqp-url.
var ErrRemoteUnavailable = errors.New("--remote requires --amqp-url")

// NewDeployCmd создаёт команду deploy.
func NewDeployCmd(app *App) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "deploy ENV...",
		Short: "Deploy environments",
		Long: `Deploy runs the deployers of the given environments in order.

With --remote the requests are published to RabbitMQ and executed
by a running "propeller agent".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return publishDeploys(cmd, app, args)
			}

			s, err := app.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			for _, env := range args {
				if err := s.Propeller.Deploy(cmd.Context(), env); err != nil {
					return err
				}
			}

			if app.Out.JSONMode() {
				app.Out.JSON(map[string]any{"deployed": args})
				return nil
			}
			app.Out.Success(fmt.Sprintf("Deployed %d environment(s)", len(args)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Publish deploy requests for propeller agent instead of deploying")
	return cmd
}

// publishDeploys отправляет запросы агенту, не читая файл конфигурации.
func publishDeploys(cmd *cobra.Command, app *App, envs []string) error {
	if app.Options.AMQPURL == "" {
		return ErrRemoteUnavailable
	}

	conn, err := mq.Dial(mq.ConnectionConfig{
		URL:       app.Options.AMQPURL,
		OnConnect: mq.SetupTopology,
		Logger:    app.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect amqp: %w", err)
	}
	defer conn.Close()

	publisher := mq.NewPublisher(conn, app.Logger)
	for _, env := range envs {
		if err := publisher.PublishDeployRequested(cmd.Context(), env); err != nil {
			return err
		}
		app.Out.Info("requested deploy of " + app.Out.name.Sprint(env))
	}

	if app.Out.JSONMode() {
		app.Out.JSON(map[string]any{"requested": envs})
		return nil
	}
	app.Out.Success(fmt.Sprintf("Published %d deploy request(s)", len(envs)))
	return nil
}
