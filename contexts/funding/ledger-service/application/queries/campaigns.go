package queries

import (
	"context"
	"log/slog"
	"strings"

	"questfund/contexts/funding/ledger-service/domain/entities"
	"questfund/contexts/funding/ledger-service/ports"
)

// CampaignsByAccountUseCase lists the ids of every campaign created by an
// account, in creation order. Unknown accounts yield an empty list.
type CampaignsByAccountUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc CampaignsByAccountUseCase) Execute(ctx context.Context, account string) ([]uint64, error) {
	return uc.Campaigns.CampaignsByAccount(ctx, strings.TrimSpace(account))
}

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID uint64) (entities.Campaign, error) {
	return uc.Campaigns.GetCampaign(ctx, campaignID)
}
