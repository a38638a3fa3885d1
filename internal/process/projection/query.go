package projection

import (
	"context"
	"errors"
	"log/slog"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

// StatusCache is a read-through cache in front of LatestStatus.
type StatusCache interface {
	Get(ctx context.Context, nationalCode string) (models.Status, bool, error)
	Set(ctx context.Context, nationalCode string, status models.Status) error
	Invalidate(ctx context.Context, nationalCode string) error
}

// Query answers status lookups. It never fails: anything it cannot answer
// is reported as UNKNOWN.
type Query struct {
	store  Store
	cache  StatusCache
	logger *slog.Logger
}

type QueryOption func(*Query)

func WithCache(cache StatusCache) QueryOption {
	return func(q *Query) {
		q.cache = cache
	}
}

func WithLogger(logger *slog.Logger) QueryOption {
	return func(q *Query) {
		q.logger = logger
	}
}

func NewQuery(store Store, opts ...QueryOption) *Query {
	q := &Query{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// FindStatus returns the status of the latest process for nationalCode.
func (q *Query) FindStatus(ctx context.Context, nationalCode string) models.Status {
	code, err := id.ParseNationalCode(nationalCode)
	if err != nil {
		return models.StatusUnknown
	}
	key := code.String()

	if q.cache != nil {
		status, ok, err := q.cache.Get(ctx, key)
		if err != nil {
			q.logger.WarnContext(ctx, "status cache read failed", "error", err)
		} else if ok {
			return status
		}
	}

	status, err := q.store.LatestStatus(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.StatusUnknown
	}
	if err != nil {
		q.logger.ErrorContext(ctx, "status lookup failed",
			"national_code", code.Masked(),
			"error", err,
		)
		return models.StatusUnknown
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, key, status); err != nil {
			q.logger.WarnContext(ctx, "status cache write failed", "error", err)
		}
	}
	return status
}

// OnCommitted drops the cached status of the committed process's customer.
func (q *Query) OnCommitted(ctx context.Context, _ models.Event, state models.State) {
	if q.cache == nil || state.NationalCode == "" {
		return
	}
	if err := q.cache.Invalidate(ctx, state.NationalCode); err != nil {
		q.logger.WarnContext(ctx, "status cache invalidation failed",
			"process_id", state.ProcessID.String(),
			"error", err,
		)
	}
}
