package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"kyc/internal/credential"
	credentialmetrics "kyc/internal/credential/metrics"
	"kyc/internal/customer"
	"kyc/internal/document/compress"
	documentmetrics "kyc/internal/document/metrics"
	documentservice "kyc/internal/document/service"
	"kyc/internal/document/storage"
	documentstore "kyc/internal/document/store"
	"kyc/internal/platform/config"
	platformkafka "kyc/internal/platform/kafka"
	"kyc/internal/platform/postgres"
	platformredis "kyc/internal/platform/redis"
	processmetrics "kyc/internal/process/metrics"
	"kyc/internal/process/models"
	"kyc/internal/process/projection"
	processservice "kyc/internal/process/service"
	processstore "kyc/internal/process/store"
	"kyc/internal/stepstatus"
	httptransport "kyc/internal/transport/http"
	kafkatransport "kyc/internal/transport/kafka"
	"kyc/internal/verification"
	"kyc/pkg/platform/circuit"
	"kyc/pkg/platform/tx"
)

type stores struct {
	events    processservice.EventStore
	customers customer.Store
	steps     stepstatus.Store
	documents documentservice.Store
	processes projection.Store
	tx        tx.Runner
}

type app struct {
	service   *processservice.Service
	query     *projection.Query
	tracker   *stepstatus.Tracker
	registrar *customer.Registrar
	consumer  *platformkafka.Consumer
	checks    []httptransport.Check
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	st, err := a.openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.tracker = stepstatus.NewTracker(st.steps, stepstatus.WithLogger(log))

	queryOpts := []projection.QueryOption{projection.WithLogger(log)}
	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.checks = append(a.checks, httptransport.Check{Name: "redis", Check: rdb.Health})
		queryOpts = append(queryOpts, projection.WithCache(projection.NewRedisStatusCache(rdb.Client, cfg.Redis.StatusTTL)))
	}
	a.query = projection.NewQuery(st.processes, queryOpts...)

	objects, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	tokens := credential.NewCache(
		credential.NewHTTPFetcher(cfg.Credential, cfg.IsProduction(), credential.WithFetcherLogger(log)),
		credential.WithLogger(log),
		credential.WithMetrics(credentialmetrics.New()),
	)
	remote := verification.New(cfg.Verification.BaseURL, tokens,
		verification.WithBreaker(circuit.New("verification")),
		verification.WithTimeout(cfg.Verification.Timeout),
		verification.WithLogger(log),
	)
	a.registrar = customer.NewRegistrar(remote, a.tracker,
		customer.WithRetry(cfg.Verification.RegisterAttempts, cfg.Verification.RegisterDelay),
		customer.WithRegistrarLogger(log),
	)

	pipeline := documentservice.New(
		objects,
		compress.NewPool(cfg.Pipeline.CompressWorker, cfg.Pipeline.MaxImageBytes),
		st.documents,
		a.tracker,
		documentservice.WithInquirer(remote),
		documentservice.WithStorageTimeout(cfg.Storage.Timeout),
		documentservice.WithLogger(log),
		documentservice.WithMetrics(documentmetrics.New()),
	)

	listeners := []processservice.Listener{a.query, a.registrar}

	var producer *kgo.Client
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = platformkafka.NewProducerClient(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := platformkafka.EnsureTopics(ctx, producer, cfg.Kafka.Partitions, cfg.Kafka.Replication,
			cfg.Kafka.CommandsTopic, cfg.Kafka.EventsTopic); err != nil {
			return nil, err
		}
		a.checks = append(a.checks, httptransport.Check{Name: "kafka", Check: producer.Ping})
		listeners = append(listeners, kafkatransport.NewEventPublisher(
			platformkafka.NewProducer(producer, cfg.Kafka.EventsTopic), log,
		))
	} else {
		log.Warn("no kafka brokers configured, command intake and event publishing disabled")
	}

	a.service = processservice.New(st.events, st.customers,
		processservice.WithPreparer(pipeline,
			models.CommandUploadCardDocuments,
			models.CommandUploadIDPages,
			models.CommandUploadSelfie,
			models.CommandUploadVideo,
			models.CommandUploadSignature,
		),
		processservice.WithStepTracker(a.tracker),
		processservice.WithProjectors(a.tracker, documentservice.NewProjector(st.documents), projection.NewProjector(st.processes)),
		processservice.WithListeners(listeners...),
		processservice.WithTxRunner(st.tx),
		processservice.WithLogger(log),
		processservice.WithMetrics(processmetrics.New()),
	)

	if producer != nil {
		consumer, err := platformkafka.NewConsumerClient(cfg.Kafka, cfg.Kafka.CommandsTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, consumer.Close)
		a.consumer = platformkafka.NewConsumer(consumer,
			kafkatransport.NewCommandHandler(a.service, log),
			log,
			platformkafka.WithFatalClassifier(kafkatransport.IsFatal),
		)
	}

	ok = true
	return a, nil
}

func (a *app) openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	if cfg.Database.URL == "" {
		log.Warn("no database configured, using in-memory stores")
		return stores{
			events:    processstore.NewInMemoryEvents(),
			customers: customer.NewInMemoryStore(),
			steps:     stepstatus.NewInMemoryStore(),
			documents: documentstore.NewInMemory(),
			processes: projection.NewInMemoryStore(),
			tx:        tx.NoopRunner{},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return stores{}, err
	}
	a.checks = append(a.checks, httptransport.Check{Name: "postgres", Check: db.PingContext})
	return stores{
		events:    processstore.NewPostgresEvents(db),
		customers: customer.NewPostgresStore(db),
		steps:     stepstatus.NewPostgresStore(db),
		documents: documentstore.NewPostgres(db),
		processes: projection.NewPostgresStore(db),
		tx:        tx.NewSQLRunner(db),
	}, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Uploader, error) {
	var backend storage.Uploader
	if cfg.S3Bucket != "" {
		s3, err := storage.NewS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = s3
	} else {
		backend = storage.NewInMemory(cfg.Prefix)
	}
	if cfg.EncryptionKey == "" {
		return backend, nil
	}
	sealed, err := storage.NewSealed(backend, cfg.EncryptionKey, cfg.EncryptionKID)
	if err != nil {
		return nil, fmt.Errorf("document encryption: %w", err)
	}
	return sealed, nil
}
