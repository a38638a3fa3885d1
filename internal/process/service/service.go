// Package service dispatches workflow commands against process histories.
//
// Every command for a process id is validated and committed while holding
// that id's lock. Upload commands split into two locked phases around their
// side effects so storage and remote calls never run under the lock:
//
//	lock(load, check, idempotency) -> unlock -> prepare -> lock(reload, decide, commit)
//
// A commit appends the event, runs every projector in the same unit of work,
// and only then notifies listeners.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"kyc/internal/customer"
	"kyc/internal/process/aggregate"
	"kyc/internal/process/metrics"
	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
	"kyc/pkg/platform/keylock"
	"kyc/pkg/platform/sentinel"
	"kyc/pkg/platform/tx"
	"kyc/pkg/requestcontext"
)

var tracer = otel.Tracer("kyc/process")

// EventStore is the per-process append-only history.
type EventStore interface {
	Load(ctx context.Context, pid id.ProcessID) ([]models.Event, error)
	// Append fails with sentinel.ErrConflict when ev.Version is taken.
	Append(ctx context.Context, ev models.Event) error
}

// CustomerStore resolves the customer a new process belongs to.
type CustomerStore interface {
	Ensure(ctx context.Context, candidate customer.Customer) (customer.Customer, error)
}

// Preparer runs the side effects of a command outside the lock and returns
// the values its event will carry.
type Preparer interface {
	Prepare(ctx context.Context, state models.State, cmd models.Command) (aggregate.Input, error)
}

// Projector updates a read model inside the commit's unit of work. An error
// aborts the commit.
type Projector interface {
	Project(ctx context.Context, ev models.Event, state models.State) error
}

// Listener is notified after a commit. It cannot fail the command.
type Listener interface {
	OnCommitted(ctx context.Context, ev models.Event, state models.State)
}

// StepTracker guards upload side effects and records upload outcomes.
type StepTracker interface {
	IsPassed(ctx context.Context, pid id.ProcessID, step models.Step) (bool, error)
	RecordFailure(ctx context.Context, pid id.ProcessID, step models.Step, cause error)
}

// Result is the outcome of a handled command. For a duplicate, Event is the
// event that originally completed the step, if any.
type Result struct {
	Event     models.Event
	Duplicate bool
	State     models.State
}

type Service struct {
	events     EventStore
	customers  CustomerStore
	steps      StepTracker
	tx         tx.Runner
	preparers  map[models.CommandKind]Preparer
	projectors []Projector
	listeners  []Listener
	locks      *keylock.Map
	flight     singleflight.Group
	now        func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

// WithPreparer registers p for the given command kinds.
func WithPreparer(p Preparer, kinds ...models.CommandKind) Option {
	return func(s *Service) {
		for _, k := range kinds {
			s.preparers[k] = p
		}
	}
}

func WithProjectors(p ...Projector) Option {
	return func(s *Service) {
		s.projectors = append(s.projectors, p...)
	}
}

func WithListeners(l ...Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l...)
	}
}

func WithStepTracker(t StepTracker) Option {
	return func(s *Service) {
		s.steps = t
	}
}

func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(events EventStore, customers CustomerStore, opts ...Option) *Service {
	s := &Service{
		events:    events,
		customers: customers,
		tx:        tx.NoopRunner{},
		preparers: make(map[models.CommandKind]Preparer),
		locks:     keylock.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle validates cmd, runs its side effects and commits its event.
// Re-delivered commands for completed steps succeed as duplicates without
// repeating side effects.
func (s *Service) Handle(ctx context.Context, cmd models.Command) (Result, error) {
	if cmd == nil {
		return Result{}, dErrors.New(dErrors.CodeValidation, "command is required")
	}
	start := time.Now()
	ctx, span := tracer.Start(ctx, "process.handle")
	span.SetAttributes(
		attribute.String("process_id", cmd.Target().String()),
		attribute.String("command", string(cmd.Kind())),
	)
	defer span.End()

	var (
		res Result
		err error
	)
	if cmd.Kind().IsUpload() {
		res, err = s.coalesce(ctx, cmd)
	} else {
		res, err = s.handle(ctx, cmd)
	}

	outcome := "committed"
	switch {
	case err != nil && dErrors.IsRecoverable(err):
		outcome = "failed"
	case err != nil:
		outcome = "rejected"
	case res.Duplicate:
		outcome = "duplicate"
	}
	if s.metrics != nil {
		s.metrics.ObserveCommand(string(cmd.Kind()), outcome, start)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "command not committed",
			"process_id", cmd.Target().String(),
			"command", string(cmd.Kind()),
			"code", string(dErrors.CodeOf(err)),
			"error", err,
		)
	}
	return res, err
}

// coalesce shares one in-flight execution between concurrent uploads for the
// same process step. Callers that joined report a duplicate.
func (s *Service) coalesce(ctx context.Context, cmd models.Command) (Result, error) {
	key := cmd.Target().String() + ":" + string(cmd.Kind())
	leader := false
	ch := s.flight.DoChan(key, func() (any, error) {
		leader = true
		return s.handle(ctx, cmd)
	})
	select {
	case <-ctx.Done():
		return Result{}, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "command aborted: context cancelled")
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		res := r.Val.(Result)
		if !leader {
			res.Duplicate = true
			if s.metrics != nil {
				s.metrics.Coalesced.Inc()
			}
		}
		return res, nil
	}
}

func (s *Service) handle(ctx context.Context, cmd models.Command) (Result, error) {
	prep, ok := s.preparers[cmd.Kind()]
	if !ok {
		return s.commit(ctx, cmd, aggregate.Input{})
	}

	state, dup, err := s.precheck(ctx, cmd)
	if err != nil || dup != nil {
		return derefResult(dup), err
	}
	in, err := prep.Prepare(ctx, state, cmd)
	if err != nil {
		return Result{}, err
	}
	res, err := s.commit(ctx, cmd, in)
	if err != nil && s.steps != nil {
		s.steps.RecordFailure(ctx, cmd.Target(), models.StepFor(cmd), err)
	}
	return res, err
}

// precheck is the first locked phase of a command with side effects.
func (s *Service) precheck(ctx context.Context, cmd models.Command) (models.State, *Result, error) {
	pid := cmd.Target()
	unlock, err := s.locks.Lock(ctx, pid.String())
	if err != nil {
		return models.State{}, nil, err
	}
	defer unlock()

	state, err := s.load(ctx, pid)
	if err != nil {
		return models.State{}, nil, err
	}
	d, err := aggregate.Check(state, cmd)
	if err != nil {
		return models.State{}, nil, err
	}
	if d.Duplicate {
		return state, duplicate(state, d), nil
	}

	if s.steps != nil {
		step := models.StepFor(cmd)
		passed, err := s.steps.IsPassed(ctx, pid, step)
		if err != nil {
			return models.State{}, nil, err
		}
		if passed {
			res := Result{Duplicate: true, State: state}
			if ev, ok := state.EventFor(step); ok {
				res.Event = ev
			}
			return state, &res, nil
		}
	}
	return state, nil, nil
}

// commit is the final locked phase: re-validate against the current history
// and persist the resulting event with its projections.
func (s *Service) commit(ctx context.Context, cmd models.Command, in aggregate.Input) (Result, error) {
	pid := cmd.Target()
	unlock, err := s.locks.Lock(ctx, pid.String())
	if err != nil {
		return Result{}, err
	}

	var (
		res       Result
		committed bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		state, err := s.load(ctx, pid)
		if err != nil {
			return err
		}
		d, err := aggregate.Check(state, cmd)
		if err != nil {
			return err
		}
		if d.Duplicate {
			res = *duplicate(state, d)
			return nil
		}

		in.Now = s.clock(ctx)
		if start, ok := cmd.(models.StartProcess); ok {
			customerID, err := s.ensureCustomer(ctx, start, in.Now)
			if err != nil {
				return err
			}
			in.CustomerID = customerID
		}

		d, err = aggregate.Decide(state, cmd, in)
		if err != nil {
			return err
		}
		ev := *d.Event
		if err := s.events.Append(ctx, ev); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				if s.metrics != nil {
					s.metrics.Conflicts.Inc()
				}
				return dErrors.Wrap(err, dErrors.CodeConflict, "process was modified concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "append event")
		}
		next := models.Apply(state, ev)
		for _, p := range s.projectors {
			if err := p.Project(ctx, ev, next); err != nil {
				return err
			}
		}
		res = Result{Event: ev, State: next}
		committed = true
		return nil
	})
	unlock()
	if err != nil {
		return Result{}, err
	}

	if committed {
		s.logger.InfoContext(ctx, "event committed",
			"process_id", pid.String(),
			"event", string(res.Event.Kind),
			"version", res.Event.Version,
			"status", res.State.Status.String(),
		)
		for _, l := range s.listeners {
			l.OnCommitted(ctx, res.Event, res.State)
		}
	}
	return res, nil
}

// clock prefers the injected clock, then the time stamped on the request.
func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) ensureCustomer(ctx context.Context, cmd models.StartProcess, now time.Time) (id.CustomerID, error) {
	code, err := id.ParseNationalCode(cmd.NationalCode)
	if err != nil {
		return id.CustomerID{}, err
	}
	c, err := s.customers.Ensure(ctx, customer.Customer{
		ID:           id.NewCustomerID(),
		NationalCode: code,
		CreatedAt:    now.UTC(),
	})
	if err != nil {
		return id.CustomerID{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve customer")
	}
	return c.ID, nil
}

func (s *Service) load(ctx context.Context, pid id.ProcessID) (models.State, error) {
	history, err := s.events.Load(ctx, pid)
	if err != nil {
		return models.State{}, dErrors.Wrap(err, dErrors.CodeInternal, "load process history")
	}
	return models.Replay(history), nil
}

// State returns the current folded state of pid.
func (s *Service) State(ctx context.Context, pid id.ProcessID) (models.State, error) {
	state, err := s.load(ctx, pid)
	if err != nil {
		return models.State{}, err
	}
	if !state.Started() {
		return models.State{}, dErrors.New(dErrors.CodeNotFound, "process not found")
	}
	return state, nil
}

func duplicate(state models.State, d aggregate.Decision) *Result {
	res := &Result{Duplicate: true, State: state}
	if d.Previous != nil {
		res.Event = *d.Previous
	}
	return res
}

func derefResult(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}
