package postgresadapter

import (
	"time"

	"questfund/contexts/funding/ledger-service/domain/entities"
)

type campaignModel struct {
	CampaignID   uint64    `gorm:"column:campaign_id;primaryKey"`
	Initiator    string    `gorm:"column:initiator"`
	Title        string    `gorm:"column:title"`
	IpfsCID      string    `gorm:"column:ipfs_cid"`
	RewardToken  string    `gorm:"column:reward_token"`
	RewardAmount uint64    `gorm:"column:reward_amount"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

type challengeModel struct {
	CampaignID         uint64 `gorm:"column:campaign_id;primaryKey"`
	Position           int    `gorm:"column:position;primaryKey"`
	KPI                string `gorm:"column:kpi"`
	Points             uint64 `gorm:"column:points"`
	MaxContributions   uint64 `gorm:"column:max_contributions"`
	ContributionsSpent uint64 `gorm:"column:contributions_spent"`
}

func (challengeModel) TableName() string {
	return "campaign_challenges"
}

type contributionModel struct {
	ContributionID uint64    `gorm:"column:contribution_id;primaryKey"`
	CampaignID     uint64    `gorm:"column:campaign_id"`
	ChallengeIndex int       `gorm:"column:challenge_index"`
	Amount         uint64    `gorm:"column:amount"`
	RecordedAt     time.Time `gorm:"column:recorded_at"`
}

func (contributionModel) TableName() string {
	return "contributions"
}

type counterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value uint64 `gorm:"column:value"`
}

func (counterModel) TableName() string {
	return "counters"
}

type tokenBalanceModel struct {
	Token   string `gorm:"column:token;primaryKey"`
	Account string `gorm:"column:account;primaryKey"`
	Balance uint64 `gorm:"column:balance"`
}

func (tokenBalanceModel) TableName() string {
	return "token_balances"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "idempotency_keys"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "outbox"
}

func campaignModelFromEntity(item entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:   item.CampaignID,
		Initiator:    item.Initiator,
		Title:        item.Title,
		IpfsCID:      item.IpfsCID,
		RewardToken:  item.RewardToken,
		RewardAmount: item.RewardAmount,
		CreatedAt:    item.CreatedAt.UTC(),
	}
}

func (m campaignModel) toEntity(challengeRows []challengeModel) entities.Campaign {
	challenges := make([]entities.Challenge, len(challengeRows))
	for i, row := range challengeRows {
		challenges[i] = entities.Challenge{
			KPI:                row.KPI,
			Points:             row.Points,
			MaxContributions:   row.MaxContributions,
			ContributionsSpent: row.ContributionsSpent,
		}
	}
	return entities.Campaign{
		CampaignID:   m.CampaignID,
		Initiator:    m.Initiator,
		Title:        m.Title,
		IpfsCID:      m.IpfsCID,
		RewardToken:  m.RewardToken,
		RewardAmount: m.RewardAmount,
		Challenges:   challenges,
		CreatedAt:    m.CreatedAt,
	}
}

func contributionModelFromEntity(item entities.Contribution) contributionModel {
	return contributionModel{
		ContributionID: item.ContributionID,
		CampaignID:     item.CampaignID,
		ChallengeIndex: item.ChallengeIndex,
		Amount:         item.Amount,
		RecordedAt:     item.RecordedAt.UTC(),
	}
}

func (m contributionModel) toEntity() entities.Contribution {
	return entities.Contribution{
		ContributionID: m.ContributionID,
		CampaignID:     m.CampaignID,
		ChallengeIndex: m.ChallengeIndex,
		Amount:         m.Amount,
		RecordedAt:     m.RecordedAt,
	}
}
