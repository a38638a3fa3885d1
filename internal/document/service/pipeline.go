// Package service runs the document ingestion pipeline for upload commands:
// validation, image reduction, hashing, dedup and storage.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"kyc/internal/document/metrics"
	"kyc/internal/document/models"
	"kyc/internal/document/storage"
	"kyc/internal/document/validation"
	"kyc/internal/process/aggregate"
	processmodels "kyc/internal/process/models"
	"kyc/internal/stepstatus"
	"kyc/internal/verification"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
	"kyc/pkg/platform/sentinel"
)

var tracer = otel.Tracer("kyc/document")

// Storage writes document payloads.
type Storage interface {
	Upload(ctx context.Context, obj storage.Object) (storage.Stored, error)
}

// Inquirer submits a stored video for a liveness check.
type Inquirer interface {
	SubmitInquiry(ctx context.Context, req verification.InquiryRequest) (verification.InquiryResult, error)
}

// Compressor reduces an image to the configured budget. It returns the input
// slice itself when the image already fits and a new JPEG otherwise.
type Compressor interface {
	Reduce(ctx context.Context, data []byte) ([]byte, error)
}

// Store holds document rows.
type Store interface {
	Insert(ctx context.Context, doc models.Document) (models.Document, error)
	Current(ctx context.Context, pid id.ProcessID, docType models.DocumentType) (models.Document, error)
	ListByProcess(ctx context.Context, pid id.ProcessID, types ...models.DocumentType) ([]models.Document, error)
}

// StepRecorder records pipeline progress and failures.
type StepRecorder interface {
	Record(ctx context.Context, pid id.ProcessID, step processmodels.Step, state processmodels.StepState, cause string) (stepstatus.StepStatus, error)
	RecordFailure(ctx context.Context, pid id.ProcessID, step processmodels.Step, cause error)
}

// Pipeline prepares upload commands outside the per-process lock. It never
// writes Document rows itself; Project does that when the upload event commits.
type Pipeline struct {
	storage        Storage
	compressor     Compressor
	docs           Store
	steps          StepRecorder
	inquirer       Inquirer
	storageTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Pipeline)

func WithInquirer(i Inquirer) Option {
	return func(p *Pipeline) {
		p.inquirer = i
	}
}

func WithStorageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.storageTimeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func New(store Storage, compressor Compressor, docs Store, steps StepRecorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		storage:        store,
		compressor:     compressor,
		docs:           docs,
		steps:          steps,
		storageTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare runs the side effects of an upload command and returns the document
// refs the upload event will carry. Any failure records a FAILED step with its
// cause and leaves no Document row.
func (p *Pipeline) Prepare(ctx context.Context, state processmodels.State, cmd processmodels.Command) (aggregate.Input, error) {
	pid := cmd.Target()
	step := processmodels.StepFor(cmd)

	ctx, span := tracer.Start(ctx, "document.prepare")
	span.SetAttributes(
		attribute.String("process_id", pid.String()),
		attribute.String("step", step.String()),
	)
	defer span.End()

	if _, err := p.steps.Record(ctx, pid, step, processmodels.StepStarted, ""); err != nil {
		return aggregate.Input{}, err
	}

	in, err := p.prepare(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.steps.RecordFailure(ctx, pid, step, err)
		p.logger.WarnContext(ctx, "document upload failed",
			"process_id", pid.String(),
			"step", step.String(),
			"error", err,
		)
		return aggregate.Input{}, err
	}
	p.logger.InfoContext(ctx, "documents prepared",
		"process_id", pid.String(),
		"step", step.String(),
		"documents", len(in.Documents),
	)
	return in, nil
}

func (p *Pipeline) prepare(ctx context.Context, cmd processmodels.Command) (aggregate.Input, error) {
	pid := cmd.Target()
	uploads := processmodels.UploadsOf(cmd)
	refs := make([]processmodels.DocumentRef, len(uploads))

	// Files of one command are independent (card front and back, booklet pages).
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		g.Go(func() error {
			ref, err := p.ingest(gctx, pid, u)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return aggregate.Input{}, err
	}

	in := aggregate.Input{Documents: refs}
	if video, ok := cmd.(processmodels.UploadVideo); ok {
		inquiryID, err := p.submitInquiry(ctx, pid, video, refs[0])
		if err != nil {
			return aggregate.Input{}, err
		}
		in.InquiryID = inquiryID
	}
	return in, nil
}

func (p *Pipeline) ingest(ctx context.Context, pid id.ProcessID, u processmodels.Upload) (processmodels.DocumentRef, error) {
	outcome := "stored"
	defer func() {
		if p.metrics != nil {
			p.metrics.ObserveUpload(u.Type.String(), outcome)
		}
	}()

	accepted, err := validation.Validate(u.Type, u.File)
	if err != nil {
		outcome = "rejected"
		return processmodels.DocumentRef{}, err
	}

	payload, contentType := u.File.Bytes, accepted.ContentType
	if accepted.Kind == validation.KindImage {
		payload, err = p.reduce(ctx, payload)
		if err != nil {
			outcome = "rejected"
			return processmodels.DocumentRef{}, err
		}
		if !sameBuffer(payload, u.File.Bytes) {
			contentType = "image/jpeg"
		}
	}

	hash := Hash(payload)
	if ref, ok, err := p.reuse(ctx, pid, u.Type, hash); err != nil {
		outcome = "failed"
		return processmodels.DocumentRef{}, err
	} else if ok {
		outcome = "deduplicated"
		return ref, nil
	}

	stored, err := p.store(ctx, storage.Object{
		ProcessID:   pid,
		Type:        u.Type,
		ContentType: contentType,
		Payload:     payload,
		Hash:        hash,
	})
	if err != nil {
		outcome = "failed"
		return processmodels.DocumentRef{}, err
	}
	return processmodels.DocumentRef{
		Type:        u.Type,
		StoragePath: stored.Path,
		Hash:        hash,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		Encryption:  stored.Encryption,
	}, nil
}

func (p *Pipeline) reduce(ctx context.Context, data []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "document.compress")
	defer span.End()
	start := time.Now()
	out, err := p.compressor.Reduce(ctx, data)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ObserveCompression(start, len(data), len(out))
	}
	return out, nil
}

// reuse returns the current document of docType when it already has hash.
func (p *Pipeline) reuse(ctx context.Context, pid id.ProcessID, docType models.DocumentType, hash string) (processmodels.DocumentRef, bool, error) {
	current, err := p.docs.Current(ctx, pid, docType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return processmodels.DocumentRef{}, false, nil
	}
	if err != nil {
		return processmodels.DocumentRef{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "load current document")
	}
	if current.Hash != hash {
		return processmodels.DocumentRef{}, false, nil
	}
	if p.metrics != nil {
		p.metrics.DedupHits.Inc()
	}
	return processmodels.DocumentRef{
		Type:        docType,
		StoragePath: current.StoragePath,
		Hash:        current.Hash,
		ContentType: current.ContentType,
		SizeBytes:   current.SizeBytes,
		Encryption:  current.Encryption,
		Reused:      true,
	}, true, nil
}

func (p *Pipeline) store(ctx context.Context, obj storage.Object) (storage.Stored, error) {
	ctx, span := tracer.Start(ctx, "document.store")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, p.storageTimeout)
	defer cancel()

	start := time.Now()
	stored, err := p.storage.Upload(ctx, obj)
	if p.metrics != nil {
		p.metrics.ObserveStorage(start)
	}
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			return storage.Stored{}, dErrors.Wrap(err, dErrors.CodeTimeout, "document storage timed out")
		}
		return storage.Stored{}, dErrors.Wrap(err, dErrors.CodeUpstreamServiceFailure, "document storage failed")
	}
	return stored, nil
}

func (p *Pipeline) submitInquiry(ctx context.Context, pid id.ProcessID, cmd processmodels.UploadVideo, video processmodels.DocumentRef) (string, error) {
	if p.inquirer == nil {
		return "", nil
	}
	res, err := p.inquirer.SubmitInquiry(ctx, verification.InquiryRequest{
		ProcessID:    pid.String(),
		InquiryToken: cmd.InquiryToken,
		DocumentPath: video.StoragePath,
		DocumentHash: video.Hash,
	})
	if err != nil {
		return "", err
	}
	return res.InquiryID, nil
}

func sameBuffer(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Hash is the hex SHA-256 used for integrity and dedup.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
