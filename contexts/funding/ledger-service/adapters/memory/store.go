package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"questfund/contexts/funding/ledger-service/domain/entities"
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	"questfund/contexts/funding/ledger-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory ledger. One mutex serializes every mutating
// operation, matching the execution model the ledger assumes: a mutation
// runs to completion or not at all before the next one observes state.
// Id counters move only inside committed writes, so ids stay gapless.
type Store struct {
	mu sync.RWMutex

	campaigns    map[uint64]entities.Campaign
	campaignSeq  uint64
	accountIndex map[string][]uint64

	contributions   map[uint64]entities.Contribution
	contributionSeq uint64
	campaignIndex   map[uint64][]uint64

	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRow
}

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

func NewStore(seed []entities.Campaign) *Store {
	store := &Store{
		campaigns:     make(map[uint64]entities.Campaign, len(seed)),
		accountIndex:  make(map[string][]uint64),
		contributions: make(map[uint64]entities.Contribution),
		campaignIndex: make(map[uint64][]uint64),
		idempotency:   make(map[string]ports.IdempotencyRecord),
	}
	for _, item := range seed {
		store.campaigns[item.CampaignID] = item
		store.accountIndex[item.Initiator] = append(store.accountIndex[item.Initiator], item.CampaignID)
		if item.CampaignID > store.campaignSeq {
			store.campaignSeq = item.CampaignID
		}
	}
	return store
}

func (s *Store) CreateCampaign(_ context.Context, campaign entities.Campaign) (entities.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaignSeq++
	campaign.CampaignID = s.campaignSeq
	campaign.Challenges = campaign.FreshChallenges()

	s.campaigns[campaign.CampaignID] = campaign
	s.accountIndex[campaign.Initiator] = append(s.accountIndex[campaign.Initiator], campaign.CampaignID)
	return campaign, nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID uint64) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[campaignID]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	item.Challenges = item.CloneChallenges()
	return item, nil
}

func (s *Store) CampaignsByAccount(_ context.Context, account string) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]uint64(nil), s.accountIndex[account]...), nil
}

// RecordContributions stages every validation and accumulation update on
// copies before touching the ledger: the first failing record aborts the
// whole batch with nothing written and no ids consumed.
func (s *Store) RecordContributions(_ context.Context, records []entities.Contribution) ([]entities.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[uint64]entities.Campaign)
	for _, record := range records {
		campaign, touched := staged[record.CampaignID]
		if !touched {
			stored, exists := s.campaigns[record.CampaignID]
			if !exists {
				return nil, domainerrors.NewInvalidContribution(domainerrors.FieldCampaignID)
			}
			stored.Challenges = stored.CloneChallenges()
			campaign = stored
		}
		if !campaign.HasChallenge(record.ChallengeIndex) {
			return nil, domainerrors.NewInvalidContribution(domainerrors.FieldChallengeIndex)
		}
		if record.Amount == 0 {
			return nil, domainerrors.NewInvalidContribution(domainerrors.FieldAmount)
		}
		campaign.Challenges[record.ChallengeIndex].ContributionsSpent += record.Amount
		staged[record.CampaignID] = campaign
	}

	recorded := make([]entities.Contribution, len(records))
	for i, record := range records {
		s.contributionSeq++
		record.ContributionID = s.contributionSeq
		s.contributions[record.ContributionID] = record
		s.campaignIndex[record.CampaignID] = append(s.campaignIndex[record.CampaignID], record.ContributionID)
		recorded[i] = record
	}
	for campaignID, campaign := range staged {
		s.campaigns[campaignID] = campaign
	}
	return recorded, nil
}

func (s *Store) GetContribution(_ context.Context, contributionID uint64) (entities.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.contributions[contributionID]
	if !exists {
		return entities.Contribution{}, domainerrors.ErrContributionNotFound
	}
	return item, nil
}

func (s *Store) CampaignContributions(_ context.Context, campaignID uint64) ([]entities.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.campaignIndex[campaignID]
	items := make([]entities.Contribution, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.contributions[id])
	}
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
