package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	application "questfund/contexts/funding/ledger-service/application"
	"questfund/contexts/funding/ledger-service/domain/entities"
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	"questfund/contexts/funding/ledger-service/ports"
)

type ContributionInput struct {
	CampaignID     uint64
	ChallengeIndex int
	Amount         uint64
}

type ContributeCommand struct {
	IdempotencyKey string
	Contributions  []ContributionInput
}

// ContributeUseCase records an ordered contribution batch. Validation and
// the challenge accumulation update happen inside the repository so the
// check-and-apply step shares one serialization boundary with the tables it
// mutates; the batch is all-or-nothing and ids are consumed only on success.
type ContributeUseCase struct {
	Contributions  ports.ContributionRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type ContributeResult struct {
	Contributions []entities.Contribution
	Replayed      bool
}

type contributionReplayItem struct {
	ContributionID uint64    `json:"contribution_id"`
	CampaignID     uint64    `json:"campaign_id"`
	ChallengeIndex int       `json:"challenge_index"`
	Amount         uint64    `json:"amount"`
	RecordedAt     time.Time `json:"recorded_at"`
}

func (uc ContributeUseCase) Execute(ctx context.Context, cmd ContributeCommand) (ContributeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.IdempotencyKey == "" {
		return ContributeResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if len(cmd.Contributions) == 0 {
		return ContributeResult{}, domainerrors.ErrEmptyContributionBatch
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashContributeCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return ContributeResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return ContributeResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var items []contributionReplayItem
		if err := json.Unmarshal(record.ResponsePayload, &items); err != nil {
			return ContributeResult{}, err
		}
		return ContributeResult{Contributions: replayItemsToEntities(items), Replayed: true}, nil
	}

	records := make([]entities.Contribution, len(cmd.Contributions))
	for i, input := range cmd.Contributions {
		records[i] = entities.Contribution{
			CampaignID:     input.CampaignID,
			ChallengeIndex: input.ChallengeIndex,
			Amount:         input.Amount,
			RecordedAt:     now,
		}
	}

	recorded, err := uc.Contributions.RecordContributions(ctx, records)
	if err != nil {
		return ContributeResult{}, err
	}

	items := make([]contributionReplayItem, len(recorded))
	for i, record := range recorded {
		items[i] = contributionReplayItem{
			ContributionID: record.ContributionID,
			CampaignID:     record.CampaignID,
			ChallengeIndex: record.ChallengeIndex,
			Amount:         record.Amount,
			RecordedAt:     record.RecordedAt,
		}
	}
	serialized, err := json.Marshal(items)
	if err != nil {
		return ContributeResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return ContributeResult{}, err
	}

	if uc.Outbox != nil {
		for _, record := range recorded {
			eventID, err := uc.IDGenerator.NewID(ctx)
			if err != nil {
				return ContributeResult{}, err
			}
			envelope, err := newLedgerEnvelope(
				eventID,
				"contribution.recorded",
				strconv.FormatUint(record.CampaignID, 10),
				now,
				map[string]any{
					"contribution_id": record.ContributionID,
					"campaign_id":     record.CampaignID,
					"challenge_index": record.ChallengeIndex,
					"amount":          record.Amount,
				},
			)
			if err != nil {
				return ContributeResult{}, err
			}
			if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
				return ContributeResult{}, err
			}
		}
	}

	logger.Info("contribution batch recorded",
		"event", "contribution_batch_recorded",
		"module", "funding/ledger-service",
		"layer", "application",
		"batch_size", len(recorded),
		"first_contribution_id", recorded[0].ContributionID,
	)
	return ContributeResult{Contributions: recorded}, nil
}

func replayItemsToEntities(items []contributionReplayItem) []entities.Contribution {
	records := make([]entities.Contribution, len(items))
	for i, item := range items {
		records[i] = entities.Contribution{
			ContributionID: item.ContributionID,
			CampaignID:     item.CampaignID,
			ChallengeIndex: item.ChallengeIndex,
			Amount:         item.Amount,
			RecordedAt:     item.RecordedAt,
		}
	}
	return records
}

func hashContributeCommand(cmd ContributeCommand) string {
	records := make([]map[string]any, 0, len(cmd.Contributions))
	for _, input := range cmd.Contributions {
		records = append(records, map[string]any{
			"campaign_id":     input.CampaignID,
			"challenge_index": input.ChallengeIndex,
			"amount":          input.Amount,
		})
	}
	raw, _ := json.Marshal(records)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
