package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunStarted      MessageType = "run.started"
	MessageTypeRunFinished     MessageType = "run.finished"
	MessageTypeStageFinished   MessageType = "stage.finished"
	MessageTypeDeployRequested MessageType = "deploy.requested"
)

// Message — конверт сообщения.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunEventPayload — run.started и run.finished.
type RunEventPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Phase      string    `json:"phase"`
	Status     string    `json:"status"`
	Production bool      `json:"production"`
	Stages     int       `json:"stages"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// StageEventPayload — stage.finished.
type StageEventPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Kind       string    `json:"kind"`
	Stage      string    `json:"stage"`
	Target     string    `json:"target"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// DeployRequestedPayload — запрос на deploy окружения.
type DeployRequestedPayload struct {
	Environment string `json:"environment"`
}

// sendFunc отправляет готовое AMQP сообщение.
type sendFunc func(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	send   sendFunc
	logger *slog.Logger
}

// NewPublisher создаёт Publisher поверх conn.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		send: func(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
			ch, err := conn.Channel()
			if err != nil {
				return err
			}
			return ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
		},
		logger: logger,
	}
}

// Publish публикует payload с типом msgType в exchange.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, msgType MessageType, payload any) error {
	msg, err := newMessage(msgType, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.send(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishDeployRequested ставит запрос на deploy окружения env.
// Потребитель: propeller agent.
func (p *Publisher) PublishDeployRequested(ctx context.Context, env string) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKeyDeployRequested,
		MessageTypeDeployRequested, DeployRequestedPayload{Environment: env})
}

func newMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now(),
	}, nil
}

// ParsePayload разбирает payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return result, nil
}
