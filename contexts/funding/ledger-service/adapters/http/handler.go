package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"questfund/contexts/funding/ledger-service/application/commands"
	"questfund/contexts/funding/ledger-service/application/queries"
	"questfund/contexts/funding/ledger-service/domain/entities"
	httptransport "questfund/contexts/funding/ledger-service/transport/http"
)

type Handler struct {
	CreateCampaign        commands.CreateCampaignUseCase
	Contribute            commands.ContributeUseCase
	CampaignsByAccount    queries.CampaignsByAccountUseCase
	GetCampaign           queries.GetCampaignUseCase
	GetContribution       queries.GetContributionUseCase
	CampaignContributions queries.CampaignContributionsUseCase
	Logger                *slog.Logger
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	callerAccount string,
	idempotencyKey string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	challenges := make([]commands.ChallengeInput, 0, len(req.Challenges))
	for _, item := range req.Challenges {
		challenges = append(challenges, commands.ChallengeInput{
			KPI:              item.KPI,
			Points:           item.Points,
			MaxContributions: item.MaxContributions,
		})
	}
	result, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		CallerAccount:  callerAccount,
		IdempotencyKey: idempotencyKey,
		Initiator:      req.Initiator,
		Title:          req.Title,
		IpfsCID:        req.IpfsCID,
		RewardToken:    req.RewardToken,
		RewardAmount:   req.RewardAmount,
		Challenges:     challenges,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{
		Campaign: mapCampaign(result.Campaign),
		Replayed: result.Replayed,
	}, nil
}

func (h Handler) ContributeHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.ContributeRequest,
) (httptransport.ContributeResponse, error) {
	records := make([]commands.ContributionInput, 0, len(req.Contributions))
	for _, item := range req.Contributions {
		records = append(records, commands.ContributionInput{
			CampaignID:     item.CampaignID,
			ChallengeIndex: item.ChallengeIndex,
			Amount:         item.Amount,
		})
	}
	result, err := h.Contribute.Execute(ctx, commands.ContributeCommand{
		IdempotencyKey: idempotencyKey,
		Contributions:  records,
	})
	if err != nil {
		return httptransport.ContributeResponse{}, err
	}
	items := make([]httptransport.ContributionDTO, 0, len(result.Contributions))
	for _, item := range result.Contributions {
		items = append(items, mapContribution(item))
	}
	return httptransport.ContributeResponse{
		Contributions: items,
		Replayed:      result.Replayed,
	}, nil
}

func (h Handler) CampaignsByAccountHandler(ctx context.Context, account string) (httptransport.ListAccountCampaignsResponse, error) {
	ids, err := h.CampaignsByAccount.Execute(ctx, account)
	if err != nil {
		return httptransport.ListAccountCampaignsResponse{}, err
	}
	return httptransport.ListAccountCampaignsResponse{
		Account:     account,
		CampaignIDs: ids,
	}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID uint64) (httptransport.GetCampaignResponse, error) {
	item, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(item)}, nil
}

func (h Handler) GetContributionHandler(ctx context.Context, contributionID uint64) (httptransport.GetContributionResponse, error) {
	item, err := h.GetContribution.Execute(ctx, contributionID)
	if err != nil {
		return httptransport.GetContributionResponse{}, err
	}
	return httptransport.GetContributionResponse{Contribution: mapContribution(item)}, nil
}

func (h Handler) CampaignContributionsHandler(ctx context.Context, campaignID uint64) (httptransport.ListCampaignContributionsResponse, error) {
	items, err := h.CampaignContributions.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ListCampaignContributionsResponse{}, err
	}
	result := make([]httptransport.ContributionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapContribution(item))
	}
	return httptransport.ListCampaignContributionsResponse{
		CampaignID:    campaignID,
		Contributions: result,
	}, nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	challenges := make([]httptransport.ChallengeDTO, 0, len(item.Challenges))
	for _, challenge := range item.Challenges {
		challenges = append(challenges, httptransport.ChallengeDTO{
			KPI:                challenge.KPI,
			Points:             challenge.Points,
			MaxContributions:   challenge.MaxContributions,
			ContributionsSpent: challenge.ContributionsSpent,
		})
	}
	return httptransport.CampaignDTO{
		CampaignID:   item.CampaignID,
		Initiator:    item.Initiator,
		Title:        item.Title,
		IpfsCID:      item.IpfsCID,
		RewardToken:  item.RewardToken,
		RewardAmount: item.RewardAmount,
		Challenges:   challenges,
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func mapContribution(item entities.Contribution) httptransport.ContributionDTO {
	return httptransport.ContributionDTO{
		ContributionID: item.ContributionID,
		CampaignID:     item.CampaignID,
		ChallengeIndex: item.ChallengeIndex,
		Amount:         item.Amount,
		RecordedAt:     item.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}
