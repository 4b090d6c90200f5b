package commands

import (
	"encoding/json"
	"time"

	"questfund/contexts/funding/ledger-service/ports"
)

func newLedgerEnvelope(
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
		SourceService:    "ledger-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "campaign_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}
