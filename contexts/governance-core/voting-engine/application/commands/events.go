package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance-core/voting-engine/ports"
)

// newEngineEnvelope partitions by proposal id so proposal-scoped consumers
// observe a stable order. Round-level events use partition key "round".
func newEngineEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "partition_key",
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

// appendEngineEvent is a best-effort append executed after state commit.
// A nil outbox keeps pure read/test wiring quiet.
func (uc *EngineUseCase) appendEngineEvent(
	ctx context.Context,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEngineEnvelope(eventID, eventType, partitionKey, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func proposalPartition(id uint64) string {
	return strconv.FormatUint(id, 10)
}
