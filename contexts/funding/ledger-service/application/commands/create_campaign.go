package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "questfund/contexts/funding/ledger-service/application"
	"questfund/contexts/funding/ledger-service/domain/entities"
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	"questfund/contexts/funding/ledger-service/ports"
)

type ChallengeInput struct {
	KPI              string
	Points           uint64
	MaxContributions uint64
}

type CreateCampaignCommand struct {
	CallerAccount  string
	IdempotencyKey string
	Initiator      string
	Title          string
	IpfsCID        string
	RewardToken    string
	RewardAmount   uint64
	Challenges     []ChallengeInput
}

// CreateCampaignUseCase runs the registry's creation sequence: authorization
// gate, reward escrow, then commit. The campaign id is assigned by the
// repository inside the commit, so failed attempts consume no id.
type CreateCampaignUseCase struct {
	Campaigns      ports.CampaignRepository
	Guard          application.IdentityGuard
	Escrow         application.RewardEscrow
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
	Replayed bool
}

type challengeReplayItem struct {
	KPI                string `json:"kpi"`
	Points             uint64 `json:"points"`
	MaxContributions   uint64 `json:"max_contributions"`
	ContributionsSpent uint64 `json:"contributions_spent"`
}

type createCampaignReplayPayload struct {
	CampaignID   uint64                `json:"campaign_id"`
	Initiator    string                `json:"initiator"`
	Title        string                `json:"title"`
	IpfsCID      string                `json:"ipfs_cid"`
	RewardToken  string                `json:"reward_token"`
	RewardAmount uint64                `json:"reward_amount"`
	Challenges   []challengeReplayItem `json:"challenges"`
	CreatedAt    time.Time             `json:"created_at"`
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	campaign := entities.Campaign{
		Initiator:    strings.TrimSpace(cmd.Initiator),
		Title:        strings.TrimSpace(cmd.Title),
		IpfsCID:      strings.TrimSpace(cmd.IpfsCID),
		RewardToken:  strings.TrimSpace(cmd.RewardToken),
		RewardAmount: cmd.RewardAmount,
		Challenges:   challengesFromInputs(cmd.Challenges),
	}
	if !campaign.ValidateBasics() {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashCreateCampaignCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateCampaignResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var payload createCampaignReplayPayload
		if err := json.Unmarshal(record.ResponsePayload, &payload); err != nil {
			return CreateCampaignResult{}, err
		}
		return CreateCampaignResult{Campaign: payload.toEntity(), Replayed: true}, nil
	}

	// Authorization strictly precedes the escrow transfer, which strictly
	// precedes any durable write. A failure on either path leaves the ledger
	// untouched and no campaign id consumed.
	if err := uc.Guard.AuthorizeCreation(strings.TrimSpace(cmd.CallerAccount), campaign.Initiator); err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Escrow.Fund(ctx, campaign.Initiator, campaign.RewardToken, campaign.RewardAmount); err != nil {
		return CreateCampaignResult{}, err
	}

	campaign.CreatedAt = now
	created, err := uc.Campaigns.CreateCampaign(ctx, campaign)
	if err != nil {
		// Storage fault after a successful pull: compensate once, surface the
		// original error.
		if campaign.HasReward() {
			if releaseErr := uc.Escrow.Release(ctx, campaign.Initiator, campaign.RewardToken, campaign.RewardAmount); releaseErr != nil {
				logger.Error("escrow release after failed commit failed",
					"event", "escrow_release_failed",
					"module", "funding/ledger-service",
					"layer", "application",
					"initiator", campaign.Initiator,
					"reward_token", campaign.RewardToken,
					"reward_amount", campaign.RewardAmount,
					"error", releaseErr.Error(),
				)
			}
		}
		return CreateCampaignResult{}, err
	}

	serialized, err := json.Marshal(replayPayloadFromCampaign(created))
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateCampaignResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		envelope, err := newLedgerEnvelope(
			eventID,
			"campaign.created",
			strconv.FormatUint(created.CampaignID, 10),
			now,
			map[string]any{
				"campaign_id":     created.CampaignID,
				"initiator":       created.Initiator,
				"reward_token":    created.RewardToken,
				"reward_amount":   created.RewardAmount,
				"challenge_count": len(created.Challenges),
			},
		)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CreateCampaignResult{}, err
		}
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "funding/ledger-service",
		"layer", "application",
		"campaign_id", created.CampaignID,
		"initiator", created.Initiator,
		"reward_amount", created.RewardAmount,
		"challenge_count", len(created.Challenges),
	)
	return CreateCampaignResult{Campaign: created}, nil
}

func challengesFromInputs(inputs []ChallengeInput) []entities.Challenge {
	items := make([]entities.Challenge, len(inputs))
	for i, input := range inputs {
		items[i] = entities.Challenge{
			KPI:              strings.TrimSpace(input.KPI),
			Points:           input.Points,
			MaxContributions: input.MaxContributions,
		}
	}
	return items
}

func replayPayloadFromCampaign(campaign entities.Campaign) createCampaignReplayPayload {
	challenges := make([]challengeReplayItem, len(campaign.Challenges))
	for i, challenge := range campaign.Challenges {
		challenges[i] = challengeReplayItem{
			KPI:                challenge.KPI,
			Points:             challenge.Points,
			MaxContributions:   challenge.MaxContributions,
			ContributionsSpent: challenge.ContributionsSpent,
		}
	}
	return createCampaignReplayPayload{
		CampaignID:   campaign.CampaignID,
		Initiator:    campaign.Initiator,
		Title:        campaign.Title,
		IpfsCID:      campaign.IpfsCID,
		RewardToken:  campaign.RewardToken,
		RewardAmount: campaign.RewardAmount,
		Challenges:   challenges,
		CreatedAt:    campaign.CreatedAt,
	}
}

func (p createCampaignReplayPayload) toEntity() entities.Campaign {
	challenges := make([]entities.Challenge, len(p.Challenges))
	for i, item := range p.Challenges {
		challenges[i] = entities.Challenge{
			KPI:                item.KPI,
			Points:             item.Points,
			MaxContributions:   item.MaxContributions,
			ContributionsSpent: item.ContributionsSpent,
		}
	}
	return entities.Campaign{
		CampaignID:   p.CampaignID,
		Initiator:    p.Initiator,
		Title:        p.Title,
		IpfsCID:      p.IpfsCID,
		RewardToken:  p.RewardToken,
		RewardAmount: p.RewardAmount,
		Challenges:   challenges,
		CreatedAt:    p.CreatedAt,
	}
}

func hashCreateCampaignCommand(cmd CreateCampaignCommand) string {
	challenges := make([]map[string]any, 0, len(cmd.Challenges))
	for _, challenge := range cmd.Challenges {
		challenges = append(challenges, map[string]any{
			"kpi":               strings.TrimSpace(challenge.KPI),
			"points":            challenge.Points,
			"max_contributions": challenge.MaxContributions,
		})
	}
	payload := map[string]any{
		"caller_account": strings.TrimSpace(cmd.CallerAccount),
		"initiator":      strings.TrimSpace(cmd.Initiator),
		"title":          strings.TrimSpace(cmd.Title),
		"ipfs_cid":       strings.TrimSpace(cmd.IpfsCID),
		"reward_token":   strings.TrimSpace(cmd.RewardToken),
		"reward_amount":  cmd.RewardAmount,
		"challenges":     challenges,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
