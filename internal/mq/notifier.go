package mq

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/propeller/internal/domain"
)

const publishTimeout = 5 * time.Second

// Notifier публикует события runs в ExchangeEvents.
//
// Реализует propeller.Observer. Ошибки публикации логируются.
type Notifier struct {
	publisher *Publisher
	logger    *slog.Logger
}

// NewNotifier создаёт Notifier.
func NewNotifier(publisher *Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: publisher, logger: logger}
}

// RunStarted публикует run.started.
func (n *Notifier) RunStarted(ctx context.Context, run *domain.Run) {
	n.publish(ctx, RoutingKeyRunStarted, MessageTypeRunStarted, runPayload(run))
}

// StageStarted не публикуется.
func (n *Notifier) StageStarted(context.Context, *domain.Run, *domain.StageResult) {}

// StageFinished публикует stage.finished.
func (n *Notifier) StageFinished(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	n.publish(ctx, RoutingKeyStageFinished, MessageTypeStageFinished, StageEventPayload{
		RunID:      run.ID,
		Kind:       stage.Kind.String(),
		Stage:      stage.Name,
		Target:     stage.Target,
		Status:     string(stage.Status),
		DurationMS: stage.Duration().Milliseconds(),
		Error:      stage.Error,
	})
}

// RunFinished публикует run.finished.
func (n *Notifier) RunFinished(ctx context.Context, run *domain.Run) {
	n.publish(ctx, RoutingKeyRunFinished, MessageTypeRunFinished, runPayload(run))
}

func (n *Notifier) publish(ctx context.Context, routingKey string, msgType MessageType, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, ExchangeEvents, routingKey, msgType, payload); err != nil {
		n.logger.Warn("publish event failed", "type", msgType, "error", err)
	}
}

func runPayload(run *domain.Run) RunEventPayload {
	return RunEventPayload{
		RunID:      run.ID,
		Phase:      string(run.Phase),
		Status:     string(run.Status),
		Production: run.Production,
		Stages:     len(run.Stages),
		DurationMS: run.Duration().Milliseconds(),
		Error:      run.Error,
	}
}
