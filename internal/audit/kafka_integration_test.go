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

	"vetcore/internal/audit"
	"vetcore/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	broker    string
	publisher *audit.Kafka
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.broker = mgr.GetRedpanda(s.T()).Broker

	publisher, err := audit.NewKafka(context.Background(), []string{s.broker})
	s.Require().NoError(err)
	s.publisher = publisher
}

func (s *KafkaSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *KafkaSuite) TestTopicCreationIsIdempotent() {
	second, err := audit.NewKafka(context.Background(), []string{s.broker})
	s.Require().NoError(err)
	second.Close()
}

func (s *KafkaSuite) TestPublish() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := audit.Event{
		Type:         audit.EventDoseCompleted,
		Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
		OrgID:        uuid.NewString(),
		Actor:        "dr.lane",
		AssignmentID: uuid.NewString(),
		PatientID:    uuid.NewString(),
		ProtocolID:   uuid.NewString(),
		DoseID:       uuid.NewString(),
	}
	s.Require().NoError(s.publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(audit.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	for {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(fetches.Err())

		var found *kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			if string(rec.Key) == event.AssignmentID {
				found = rec
			}
		})
		if found == nil {
			continue
		}

		var got audit.Event
		s.Require().NoError(json.Unmarshal(found.Value, &got))
		s.Equal(event, got)
		return
	}
}
