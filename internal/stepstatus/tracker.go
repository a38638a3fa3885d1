package stepstatus

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
	"kyc/pkg/platform/sentinel"
)

const maxCauseLength = 1024

// Tracker records step outcomes and answers idempotency queries.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record appends one row for step.
func (t *Tracker) Record(ctx context.Context, pid id.ProcessID, step models.Step, state models.StepState, cause string) (StepStatus, error) {
	cause = truncateCause(cause)
	rec, err := t.store.Append(ctx, StepStatus{
		ProcessID:  pid,
		Step:       step,
		State:      state,
		Cause:      cause,
		RecordedAt: t.now().UTC(),
	})
	if err != nil {
		return StepStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "record step status")
	}
	return rec, nil
}

// truncateCause keeps at most maxCauseLength bytes of valid UTF-8, cutting on
// a rune boundary.
func truncateCause(cause string) string {
	cause = strings.ToValidUTF8(cause, "\uFFFD")
	if len(cause) <= maxCauseLength {
		return cause
	}
	cut := maxCauseLength
	for cut > 0 && !utf8.RuneStart(cause[cut]) {
		cut--
	}
	return cause[:cut]
}

// RecordFailure appends a FAILED row carrying the error as cause. A failure
// to record is logged, not returned, so the original error reaches the caller.
func (t *Tracker) RecordFailure(ctx context.Context, pid id.ProcessID, step models.Step, cause error) {
	if _, err := t.Record(ctx, pid, step, models.StepFailed, cause.Error()); err != nil {
		t.logger.ErrorContext(ctx, "failed to record step failure",
			"process_id", pid.String(),
			"step", step.String(),
			"cause", cause.Error(),
			"error", err,
		)
	}
}

// IsPassed reports whether the latest row of step is PASSED.
func (t *Tracker) IsPassed(ctx context.Context, pid id.ProcessID, step models.Step) (bool, error) {
	rec, err := t.Latest(ctx, pid, step)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Passed(), nil
}

func (t *Tracker) Latest(ctx context.Context, pid id.ProcessID, step models.Step) (StepStatus, error) {
	rec, err := t.store.Latest(ctx, pid, step)
	if errors.Is(err, sentinel.ErrNotFound) {
		return StepStatus{}, dErrors.Wrap(err, dErrors.CodeNotFound, "no status for step "+step.String())
	}
	if err != nil {
		return StepStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "load step status")
	}
	return rec, nil
}

func (t *Tracker) History(ctx context.Context, pid id.ProcessID) ([]StepStatus, error) {
	rows, err := t.store.History(ctx, pid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load step history")
	}
	return rows, nil
}

// Project appends the row a committed event implies: PASSED for the step
// the event completes, or the reported state for a status update.
func (t *Tracker) Project(ctx context.Context, ev models.Event, _ models.State) error {
	step := models.Step(ev.Kind)
	state := models.StepPassed
	if d, ok := ev.Data.(models.StatusUpdated); ok {
		step, state = d.StepName, d.State
	}
	_, err := t.store.Append(ctx, StepStatus{
		ProcessID:  ev.ProcessID,
		Step:       step,
		State:      state,
		RecordedAt: ev.RecordedAt,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "project step status")
	}
	return nil
}
