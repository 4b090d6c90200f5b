package ledgerservice

import (
	"log/slog"
	"time"

	httpadapter "questfund/contexts/funding/ledger-service/adapters/http"
	"questfund/contexts/funding/ledger-service/adapters/memory"
	application "questfund/contexts/funding/ledger-service/application"
	"questfund/contexts/funding/ledger-service/application/commands"
	"questfund/contexts/funding/ledger-service/application/queries"
	"questfund/contexts/funding/ledger-service/domain/entities"
	"questfund/contexts/funding/ledger-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Tokens  *memory.TokenBank
}

type Dependencies struct {
	Campaigns      ports.CampaignRepository
	Contributions  ports.ContributionRepository
	Tokens         ports.TokenTransfer
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	CustodyAccount string
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	escrow := application.RewardEscrow{
		Tokens:  deps.Tokens,
		Custody: deps.CustodyAccount,
		Logger:  deps.Logger,
	}
	createCampaign := commands.CreateCampaignUseCase{
		Campaigns:      deps.Campaigns,
		Guard:          application.IdentityGuard{},
		Escrow:         escrow,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	contribute := commands.ContributeUseCase{
		Contributions:  deps.Contributions,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}

	campaignsByAccount := queries.CampaignsByAccountUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	getCampaign := queries.GetCampaignUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	getContribution := queries.GetContributionUseCase{
		Contributions: deps.Contributions,
		Logger:        deps.Logger,
	}
	campaignContributions := queries.CampaignContributionsUseCase{
		Contributions: deps.Contributions,
		Logger:        deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateCampaign:        createCampaign,
			Contribute:            contribute,
			CampaignsByAccount:    campaignsByAccount,
			GetCampaign:           getCampaign,
			GetContribution:       getContribution,
			CampaignContributions: campaignContributions,
			Logger:                deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory ledger and token
// bank. Used by tests and local development.
func NewInMemoryModule(seed []entities.Campaign, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	bank := memory.NewTokenBank()
	module := NewModule(Dependencies{
		Campaigns:      store,
		Contributions:  store,
		Tokens:         bank,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		CustodyAccount: "questfund-custody",
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	module.Tokens = bank
	return module
}
