package customer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"kyc/internal/process/models"
	"kyc/internal/stepstatus"
	"kyc/internal/verification"
	id "kyc/pkg/domain"
)

// Registerer is the remote side of customer registration.
type Registerer interface {
	RegisterCustomer(ctx context.Context, req verification.RegistrationRequest) error
}

// StepRecorder records the outcome of the registration step.
type StepRecorder interface {
	IsPassed(ctx context.Context, pid id.ProcessID, step models.Step) (bool, error)
	Record(ctx context.Context, pid id.ProcessID, step models.Step, state models.StepState, cause string) (stepstatus.StepStatus, error)
	RecordFailure(ctx context.Context, pid id.ProcessID, step models.Step, cause error)
}

// Registrar registers a customer with the identity registry once a process
// has started. Registration runs in the background with a bounded constant
// backoff; its outcome is recorded as the CUSTOMER_REGISTERED step.
type Registrar struct {
	remote   Registerer
	steps    StepRecorder
	attempts int
	delay    time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	wg sync.WaitGroup
}

type RegistrarOption func(*Registrar)

// WithRetry sets the total attempts and the fixed delay between them.
func WithRetry(attempts int, delay time.Duration) RegistrarOption {
	return func(r *Registrar) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.delay = delay
	}
}

func WithRegistrarLogger(logger *slog.Logger) RegistrarOption {
	return func(r *Registrar) {
		r.logger = logger
	}
}

func NewRegistrar(remote Registerer, steps StepRecorder, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		remote:   remote,
		steps:    steps,
		attempts: 5,
		delay:    2 * time.Second,
		timeout:  2 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnCommitted starts registration for ProcessStarted events and ignores the rest.
func (r *Registrar) OnCommitted(ctx context.Context, ev models.Event, state models.State) {
	if ev.Kind != models.EventProcessStarted {
		return
	}
	// Detached from the command context: registration outlives the command.
	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(bg, r.timeout)
		defer cancel()
		_ = r.Register(ctx, state.ProcessID, state.CustomerID, state.NationalCode)
	}()
}

// Register runs the registration synchronously and records the outcome.
func (r *Registrar) Register(ctx context.Context, pid id.ProcessID, customerID id.CustomerID, nationalCode string) error {
	if done, err := r.steps.IsPassed(ctx, pid, models.StepCustomerRegistered); err == nil && done {
		return nil
	}

	req := verification.RegistrationRequest{CustomerID: customerID.String(), NationalCode: nationalCode}
	attempt := 0
	op := func() error {
		attempt++
		err := r.remote.RegisterCustomer(ctx, req)
		if err == nil {
			return nil
		}
		if !verification.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		r.logger.WarnContext(ctx, "customer registration attempt failed",
			"process_id", pid.String(),
			"attempt", attempt,
			"error", err,
		)
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.delay), uint64(r.attempts-1)),
		ctx,
	)

	if err := backoff.Retry(op, policy); err != nil {
		r.logger.ErrorContext(ctx, "customer registration failed",
			"process_id", pid.String(),
			"attempts", attempt,
			"error", err,
		)
		r.steps.RecordFailure(ctx, pid, models.StepCustomerRegistered, err)
		return err
	}
	if _, err := r.steps.Record(ctx, pid, models.StepCustomerRegistered, models.StepPassed, ""); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "customer registered",
		"process_id", pid.String(),
		"attempts", attempt,
	)
	return nil
}

// Wait blocks until background registrations finish.
func (r *Registrar) Wait() {
	r.wg.Wait()
}
