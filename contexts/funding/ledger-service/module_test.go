package ledgerservice

import (
	"context"
	"errors"
	"testing"

	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	httptransport "questfund/contexts/funding/ledger-service/transport/http"
)

func createRequest() httptransport.CreateCampaignRequest {
	return httptransport.CreateCampaignRequest{
		Initiator:    "acct-a",
		Title:        "Launch push",
		IpfsCID:      "QmLaunchCid",
		RewardToken:  "tok-1",
		RewardAmount: 500,
		Challenges: []httptransport.ChallengeInputDTO{
			{KPI: "signups", Points: 10, MaxContributions: 3},
			{KPI: "referrals", Points: 20, MaxContributions: 5},
		},
	}
}

func TestModuleCampaignAndContributionFlow(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	module.Tokens.Credit("tok-1", "acct-a", 1000)
	ctx := context.Background()

	created, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-1", createRequest())
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if created.Campaign.CampaignID != 1 {
		t.Fatalf("expected campaign id 1, got %d", created.Campaign.CampaignID)
	}
	if got := module.Tokens.BalanceOf("tok-1", "questfund-custody"); got != 500 {
		t.Fatalf("expected 500 escrowed, custody holds %d", got)
	}
	if got := module.Tokens.BalanceOf("tok-1", "acct-a"); got != 500 {
		t.Fatalf("expected 500 left with initiator, got %d", got)
	}

	// Any caller may contribute; identity is not recorded.
	recorded, err := module.Handler.ContributeHandler(ctx, "batch-1", httptransport.ContributeRequest{
		Contributions: []httptransport.ContributionInputDTO{
			{CampaignID: 1, ChallengeIndex: 0, Amount: 1},
			{CampaignID: 1, ChallengeIndex: 1, Amount: 2},
		},
	})
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if len(recorded.Contributions) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recorded.Contributions))
	}
	if recorded.Contributions[0].ContributionID != 1 || recorded.Contributions[1].ContributionID != 2 {
		t.Fatalf("expected contribution ids 1 and 2, got %d and %d",
			recorded.Contributions[0].ContributionID, recorded.Contributions[1].ContributionID)
	}

	listed, err := module.Handler.CampaignContributionsHandler(ctx, 1)
	if err != nil {
		t.Fatalf("campaign contributions failed: %v", err)
	}
	if len(listed.Contributions) != 2 {
		t.Fatalf("expected 2 listed records, got %d", len(listed.Contributions))
	}

	first, err := module.Handler.GetContributionHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get contribution failed: %v", err)
	}
	if first.Contribution.ChallengeIndex != 0 || first.Contribution.Amount != 1 {
		t.Fatalf("unexpected first contribution %+v", first.Contribution)
	}
	second, err := module.Handler.GetContributionHandler(ctx, 2)
	if err != nil {
		t.Fatalf("get contribution failed: %v", err)
	}
	if second.Contribution.ChallengeIndex != 1 || second.Contribution.Amount != 2 {
		t.Fatalf("unexpected second contribution %+v", second.Contribution)
	}

	campaign, err := module.Handler.GetCampaignHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.Campaign.Challenges[0].ContributionsSpent != 1 {
		t.Fatalf("expected challenge 0 accumulation 1, got %d", campaign.Campaign.Challenges[0].ContributionsSpent)
	}
	if campaign.Campaign.Challenges[1].ContributionsSpent != 2 {
		t.Fatalf("expected challenge 1 accumulation 2, got %d", campaign.Campaign.Challenges[1].ContributionsSpent)
	}

	accounts, err := module.Handler.CampaignsByAccountHandler(ctx, "acct-a")
	if err != nil {
		t.Fatalf("campaigns by account failed: %v", err)
	}
	if len(accounts.CampaignIDs) != 1 || accounts.CampaignIDs[0] != 1 {
		t.Fatalf("expected [1], got %v", accounts.CampaignIDs)
	}
}

func TestModuleRejectsCallerImpersonation(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	module.Tokens.Credit("tok-1", "acct-a", 1000)

	_, err := module.Handler.CreateCampaignHandler(context.Background(), "acct-b", "create-1", createRequest())
	if !errors.Is(err, domainerrors.ErrNotInitiator) {
		t.Fatalf("expected ErrNotInitiator, got %v", err)
	}
	if got := module.Tokens.BalanceOf("tok-1", "acct-a"); got != 1000 {
		t.Fatalf("rejected creation must not move funds, owner has %d", got)
	}
}

func TestModuleEscrowFailureLeavesLedgerUntouched(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	ctx := context.Background()

	// No balance credited: the exact-amount pull fails.
	_, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-1", createRequest())
	if !errors.Is(err, domainerrors.ErrEscrowFailed) {
		t.Fatalf("expected ErrEscrowFailed, got %v", err)
	}

	accounts, listErr := module.Handler.CampaignsByAccountHandler(ctx, "acct-a")
	if listErr != nil {
		t.Fatalf("campaigns by account failed: %v", listErr)
	}
	if len(accounts.CampaignIDs) != 0 {
		t.Fatalf("failed creation must record nothing, got %v", accounts.CampaignIDs)
	}

	// After funding, the same request succeeds under a fresh key and takes id 1.
	module.Tokens.Credit("tok-1", "acct-a", 500)
	created, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-2", createRequest())
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if created.Campaign.CampaignID != 1 {
		t.Fatalf("expected id 1 after failed attempt, got %d", created.Campaign.CampaignID)
	}
}

func TestModuleReplayedCreateDoesNotDoubleEscrow(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	module.Tokens.Credit("tok-1", "acct-a", 500)
	ctx := context.Background()

	if _, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-1", createRequest()); err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	replayed, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-1", createRequest())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replayed.Replayed {
		t.Fatalf("expected replayed response")
	}
	if got := module.Tokens.BalanceOf("tok-1", "questfund-custody"); got != 500 {
		t.Fatalf("replay must not escrow again, custody holds %d", got)
	}
}

func TestModuleInvalidBatchRecordsNothing(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	module.Tokens.Credit("tok-1", "acct-a", 500)
	ctx := context.Background()

	if _, err := module.Handler.CreateCampaignHandler(ctx, "acct-a", "create-1", createRequest()); err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	_, err := module.Handler.ContributeHandler(ctx, "batch-1", httptransport.ContributeRequest{
		Contributions: []httptransport.ContributionInputDTO{
			{CampaignID: 1, ChallengeIndex: 0, Amount: 1},
			{CampaignID: 7, ChallengeIndex: 0, Amount: 1},
		},
	})
	var invalid domainerrors.InvalidContributionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidContributionError, got %v", err)
	}
	if invalid.Field != domainerrors.FieldCampaignID {
		t.Fatalf("expected field %q, got %q", domainerrors.FieldCampaignID, invalid.Field)
	}

	listed, listErr := module.Handler.CampaignContributionsHandler(ctx, 1)
	if listErr != nil {
		t.Fatalf("campaign contributions failed: %v", listErr)
	}
	if len(listed.Contributions) != 0 {
		t.Fatalf("failed batch must record nothing, got %d", len(listed.Contributions))
	}
	campaign, getErr := module.Handler.GetCampaignHandler(ctx, 1)
	if getErr != nil {
		t.Fatalf("get campaign failed: %v", getErr)
	}
	if campaign.Campaign.Challenges[0].ContributionsSpent != 0 {
		t.Fatalf("failed batch must leave accumulation untouched, got %d", campaign.Campaign.Challenges[0].ContributionsSpent)
	}
}
