package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"kyc/internal/process/models"
	"kyc/internal/process/service"
	dErrors "kyc/pkg/domain-errors"
	"kyc/pkg/requestcontext"
)

// Dispatcher handles decoded commands.
type Dispatcher interface {
	Handle(ctx context.Context, cmd models.Command) (service.Result, error)
}

// CommandHandler turns command records into dispatched commands.
type CommandHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewCommandHandler(dispatcher Dispatcher, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher, logger: logger}
}

func (h *CommandHandler) Handle(ctx context.Context, rec *kgo.Record) error {
	ctx = requestcontext.WithDelivery(ctx, requestcontext.Delivery{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	})
	ctx = requestcontext.WithRequestID(ctx, requestID(rec))

	cmd, err := DecodeCommand(rec.Value)
	if err != nil {
		return err
	}
	res, err := h.dispatcher.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	if res.Duplicate {
		h.logger.InfoContext(ctx, "duplicate command acknowledged",
			"request_id", requestcontext.RequestID(ctx),
			"process_id", cmd.Target().String(),
			"command", string(cmd.Kind()),
			"offset", rec.Offset,
		)
	}
	return nil
}

// requestID prefers the engine's correlation header and falls back to the
// record coordinates.
func requestID(rec *kgo.Record) string {
	for _, h := range rec.Headers {
		if h.Key == "request_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return fmt.Sprintf("%s/%d/%d", rec.Topic, rec.Partition, rec.Offset)
}

// IsFatal reports errors a redelivery cannot fix: bad input, media and state
// violations. Upstream, timeout, conflict and internal failures are retried.
func IsFatal(err error) bool {
	return !dErrors.IsRecoverable(err)
}
