package queries

import (
	"context"
	"log/slog"

	"questfund/contexts/funding/ledger-service/domain/entities"
	"questfund/contexts/funding/ledger-service/ports"
)

type GetContributionUseCase struct {
	Contributions ports.ContributionRepository
	Logger        *slog.Logger
}

func (uc GetContributionUseCase) Execute(ctx context.Context, contributionID uint64) (entities.Contribution, error) {
	return uc.Contributions.GetContribution(ctx, contributionID)
}

// CampaignContributionsUseCase returns every contribution recorded against a
// campaign in recording order; empty for campaigns with no contributions.
type CampaignContributionsUseCase struct {
	Contributions ports.ContributionRepository
	Logger        *slog.Logger
}

func (uc CampaignContributionsUseCase) Execute(ctx context.Context, campaignID uint64) ([]entities.Contribution, error) {
	return uc.Contributions.CampaignContributions(ctx, campaignID)
}
