package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	platformkafka "kyc/internal/platform/kafka"
	"kyc/internal/process/models"
)

// Publisher sends messages to the events topic.
type Publisher interface {
	Publish(ctx context.Context, msgs ...platformkafka.Message) error
}

// EventPublisher forwards committed events keyed by process id. Publishing
// happens after commit; a failure is logged and the event stays in the log.
type EventPublisher struct {
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration
}

func NewEventPublisher(publisher Publisher, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{publisher: publisher, logger: logger, timeout: 10 * time.Second}
}

func (p *EventPublisher) OnCommitted(ctx context.Context, ev models.Event, _ models.State) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode event for publishing",
			"process_id", ev.ProcessID.String(),
			"event", string(ev.Kind),
			"error", err,
		)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.publisher.Publish(ctx, platformkafka.Message{
		Key:   ev.ProcessID.String(),
		Value: value,
		Headers: map[string]string{
			"event_kind": string(ev.Kind),
			"version":    strconv.FormatInt(ev.Version, 10),
		},
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "publish committed event",
			"process_id", ev.ProcessID.String(),
			"event", string(ev.Kind),
			"version", ev.Version,
			"error", err,
		)
	}
}
