//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"veriform/internal/audit"
	"veriform/internal/platform/kafka"
	id "veriform/pkg/domain"
	"veriform/pkg/testutil/containers"
)

const auditTopic = "veriform.audit.test"

type KafkaSinkSuite struct {
	suite.Suite
	seed     string
	producer *kafka.Producer
	ctx      context.Context
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.seed = containers.GetManager().GetRedpanda(s.T()).Seed
	s.ctx = context.Background()

	producer, err := kafka.NewProducer(s.ctx, []string{s.seed}, auditTopic)
	s.Require().NoError(err)
	s.producer = producer
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func TestKafkaSinkSuite(t *testing.T) {
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) TestAppendAndConsume() {
	candidateID := id.CandidateID(uuid.New())
	sink := audit.NewKafkaSink(s.producer)
	publisher := audit.NewPublisher(sink)

	sent := audit.Event{
		CandidateID: candidateID,
		ServiceID:   "education",
		Unit:        "annexure_education_check",
		Action:      audit.ActionSubmitted,
		RecordID:    uuid.New(),
		Inserted:    true,
	}
	s.Require().NoError(publisher.Emit(s.ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.seed),
		kgo.ConsumeTopics(auditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	last := records[len(records)-1]
	s.Equal(candidateID.String(), string(last.Key), "events are keyed by candidate")

	var got audit.Event
	s.Require().NoError(json.Unmarshal(last.Value, &got))
	s.Equal(sent.Unit, got.Unit)
	s.Equal(sent.Action, got.Action)
	s.Equal(sent.RecordID, got.RecordID)
	s.False(got.Timestamp.IsZero(), "publisher stamps the timestamp")
}
