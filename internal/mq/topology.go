package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchanges.
const (
	// ExchangeEvents — topic exchange событий Propeller.
	ExchangeEvents = "propeller.events"

	// ExchangeDLQ — dead letter exchange для отклонённых запросов.
	ExchangeDLQ = "propeller.dlq"
)

// Queues.
const (
	// QueueDeployRequested — запросы на deploy, потребитель: propeller agent.
	QueueDeployRequested = "propeller.deploys.requested"

	// QueueDLQDeploys — отклонённые запросы на deploy.
	QueueDLQDeploys = "propeller.dlq.deploys"
)

// Routing keys.
const (
	RoutingKeyRunStarted      = "run.started"
	RoutingKeyRunFinished     = "run.finished"
	RoutingKeyStageFinished   = "stage.finished"
	RoutingKeyDeployRequested = "deploy.requested"
	RoutingKeyDLQDeploys      = "deploys"
)

type exchangeDecl struct {
	name string
	kind string
}

type queueDecl struct {
	name string
	args amqp.Table
}

type bindingDecl struct {
	queue      string
	routingKey string
	exchange   string
}

// topology — полный набор объявлений.
type topology struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}

func defaultTopology() topology {
	return topology{
		exchanges: []exchangeDecl{
			{ExchangeEvents, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		queues: []queueDecl{
			{QueueDeployRequested, amqp.Table{
				"x-dead-letter-exchange":    ExchangeDLQ,
				"x-dead-letter-routing-key": RoutingKeyDLQDeploys,
			}},
			{QueueDLQDeploys, nil},
		},
		bindings: []bindingDecl{
			{QueueDeployRequested, RoutingKeyDeployRequested, ExchangeEvents},
			{QueueDLQDeploys, RoutingKeyDLQDeploys, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет exchanges, queues и bindings.
// Подходит как ConnectionConfig.OnConnect.
func SetupTopology(ch *amqp.Channel) error {
	t := defaultTopology()

	for _, ex := range t.exchanges {
		err := ch.ExchangeDeclare(
			ex.name, // name
			ex.kind, // type
			true,    // durable
			false,   // auto-deleted
			false,   // internal
			false,   // no-wait
			nil,     // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range t.queues {
		_, err := ch.QueueDeclare(
			q.name, // name
			true,   // durable
			false,  // delete when unused
			false,  // exclusive
			false,  // no-wait
			q.args, // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range t.bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
