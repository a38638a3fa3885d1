//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"kyc/internal/customer"
	"kyc/internal/platform/config"
	platformkafka "kyc/internal/platform/kafka"
	"kyc/internal/platform/logger"
	"kyc/internal/process/models"
	"kyc/internal/process/service"
	"kyc/internal/process/store"
	"kyc/internal/transport/kafka"
	"kyc/pkg/testutil/containers"
)

type IntakeSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	cfg      config.KafkaConfig
	svc      *service.Service
	producer *kgo.Client
	cancel   context.CancelFunc
	done     chan error
}

func TestIntakeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IntakeSuite))
}

func (s *IntakeSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redpanda = mgr.GetRedpanda(s.T())
}

func (s *IntakeSuite) SetupTest() {
	suffix := uuid.NewString()
	s.cfg = config.KafkaConfig{
		Brokers:       s.redpanda.Brokers,
		CommandsTopic: "commands-" + suffix,
		EventsTopic:   "events-" + suffix,
		ConsumerGroup: "kyc-" + suffix,
	}
	log := logger.Discard()

	var err error
	s.producer, err = platformkafka.NewProducerClient(s.cfg)
	s.Require().NoError(err)
	s.Require().NoError(platformkafka.EnsureTopics(context.Background(), s.producer, 1, 1, s.cfg.CommandsTopic, s.cfg.EventsTopic))

	s.svc = service.New(store.NewInMemoryEvents(), customer.NewInMemoryStore(),
		service.WithListeners(kafka.NewEventPublisher(platformkafka.NewProducer(s.producer, s.cfg.EventsTopic), log)),
		service.WithLogger(log),
	)

	consumerClient, err := platformkafka.NewConsumerClient(s.cfg, s.cfg.CommandsTopic, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	s.Require().NoError(err)
	consumer := platformkafka.NewConsumer(consumerClient, kafka.NewCommandHandler(s.svc, log), log,
		platformkafka.WithFatalClassifier(kafka.IsFatal),
		platformkafka.WithMaxBackoff(200*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- consumer.Run(ctx)
		consumerClient.Close()
	}()
}

func (s *IntakeSuite) TearDownTest() {
	s.cancel()
	<-s.done
	s.producer.Close()
}

func (s *IntakeSuite) send(key string, value []byte) {
	pub := platformkafka.NewProducer(s.producer, s.cfg.CommandsTopic)
	s.Require().NoError(pub.Publish(context.Background(), platformkafka.Message{Key: key, Value: value}))
}

func (s *IntakeSuite) sendCommand(cmd models.Command) {
	value, err := kafka.EncodeCommand(cmd)
	s.Require().NoError(err)
	s.send(cmd.Target().String(), value)
}

func (s *IntakeSuite) TestCommandsAreAppliedAndEventsPublished() {
	accepted := true
	s.sendCommand(models.StartProcess{ProcessID: "p-int", NationalCode: "0012345679"})
	s.send("p-int", []byte(`{"type":"NOT_A_COMMAND","payload":{}}`))
	s.sendCommand(models.AcceptConsent{ProcessID: "p-int", TermsVersion: "v1", Accepted: &accepted})

	s.Eventually(func() bool {
		state, err := s.svc.State(context.Background(), "p-int")
		return err == nil && state.Status == models.StatusConsentAccepted
	}, 30*time.Second, 100*time.Millisecond, "malformed record must not block the partition")

	reader, err := kgo.NewClient(
		kgo.SeedBrokers(s.cfg.Brokers...),
		kgo.ConsumeTopics(s.cfg.EventsTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer reader.Close()

	var records []*kgo.Record
	deadline, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for len(records) < 2 && deadline.Err() == nil {
		fetches := reader.PollFetches(deadline)
		records = append(records, fetches.Records()...)
	}
	s.Require().Len(records, 2)
	s.Equal("p-int", string(records[0].Key))
	s.Equal(string(models.EventProcessStarted), header(records[0], "event_kind"))
	s.Equal("1", header(records[0], "version"))
	s.Equal(string(models.EventConsentAccepted), header(records[1], "event_kind"))
}

func (s *IntakeSuite) TestRedeliveredStartIsIdempotent() {
	start := models.StartProcess{ProcessID: "p-dup", NationalCode: "0012345679"}
	s.sendCommand(start)
	s.sendCommand(start)
	s.sendCommand(models.CollectAddress{ProcessID: "p-other", PostalCode: "1234567890", Address: "x"})

	s.Eventually(func() bool {
		state, err := s.svc.State(context.Background(), "p-dup")
		return err == nil && state.Version == 1
	}, 30*time.Second, 100*time.Millisecond)
	s.Never(func() bool {
		state, err := s.svc.State(context.Background(), "p-dup")
		return err == nil && state.Version > 1
	}, 2*time.Second, 200*time.Millisecond)
}

func header(rec *kgo.Record, key string) string {
	for _, h := range rec.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
