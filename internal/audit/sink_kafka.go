package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"veriform/internal/platform/kafka"
)

// KafkaSink publishes events to the audit topic, keyed by candidate so one
// candidate's trail stays ordered within a partition.
type KafkaSink struct {
	producer *kafka.Producer
}

func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.CandidateID.String()), payload)
}
