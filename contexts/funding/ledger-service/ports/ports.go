package ports

import (
	"context"
	"time"

	"questfund/contexts/funding/ledger-service/domain/entities"
	"questfund/internal/shared/events"
)

// CampaignRepository owns the campaign table, the gapless campaign id
// counter, and the per-initiator index. The id is assigned inside
// CreateCampaign so it is consumed only when the record commits.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) (entities.Campaign, error)
	GetCampaign(ctx context.Context, campaignID uint64) (entities.Campaign, error)
	CampaignsByAccount(ctx context.Context, account string) ([]uint64, error)
}

// ContributionRepository validates and records contribution batches
// atomically: the first invalid record aborts the batch with an
// InvalidContributionError and no partial writes, no ids consumed.
// Validation order per record is campaignId, challengeIndex, amount.
// Accepted records increment the targeted challenge's accumulation.
type ContributionRepository interface {
	RecordContributions(ctx context.Context, records []entities.Contribution) ([]entities.Contribution, error)
	GetContribution(ctx context.Context, contributionID uint64) (entities.Contribution, error)
	CampaignContributions(ctx context.Context, campaignID uint64) ([]entities.Contribution, error)
}

// TokenTransfer is the external fungible-token collaborator. Any failure is
// opaque to the ledger; the escrow layer maps it to ErrEscrowFailed.
type TokenTransfer interface {
	TransferFrom(ctx context.Context, token string, owner string, destination string, amount uint64) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
