package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ChallengeInputDTO struct {
	KPI              string `json:"kpi"`
	Points           uint64 `json:"points"`
	MaxContributions uint64 `json:"max_contributions"`
}

type CreateCampaignRequest struct {
	Initiator    string              `json:"initiator"`
	Title        string              `json:"title"`
	IpfsCID      string              `json:"ipfs_cid"`
	RewardToken  string              `json:"reward_token"`
	RewardAmount uint64              `json:"reward_amount"`
	Challenges   []ChallengeInputDTO `json:"challenges"`
}

type ChallengeDTO struct {
	KPI                string `json:"kpi"`
	Points             uint64 `json:"points"`
	MaxContributions   uint64 `json:"max_contributions"`
	ContributionsSpent uint64 `json:"contributions_spent"`
}

type CampaignDTO struct {
	CampaignID   uint64         `json:"campaign_id"`
	Initiator    string         `json:"initiator"`
	Title        string         `json:"title"`
	IpfsCID      string         `json:"ipfs_cid"`
	RewardToken  string         `json:"reward_token"`
	RewardAmount uint64         `json:"reward_amount"`
	Challenges   []ChallengeDTO `json:"challenges"`
	CreatedAt    string         `json:"created_at"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
	Replayed bool        `json:"replayed"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListAccountCampaignsResponse struct {
	Account     string   `json:"account"`
	CampaignIDs []uint64 `json:"campaign_ids"`
}

type ContributionInputDTO struct {
	CampaignID     uint64 `json:"campaign_id"`
	ChallengeIndex int    `json:"challenge_index"`
	Amount         uint64 `json:"amount"`
}

type ContributeRequest struct {
	Contributions []ContributionInputDTO `json:"contributions"`
}

type ContributionDTO struct {
	ContributionID uint64 `json:"contribution_id"`
	CampaignID     uint64 `json:"campaign_id"`
	ChallengeIndex int    `json:"challenge_index"`
	Amount         uint64 `json:"amount"`
	RecordedAt     string `json:"recorded_at"`
}

type ContributeResponse struct {
	Contributions []ContributionDTO `json:"contributions"`
	Replayed      bool              `json:"replayed"`
}

type GetContributionResponse struct {
	Contribution ContributionDTO `json:"contribution"`
}

type ListCampaignContributionsResponse struct {
	CampaignID    uint64            `json:"campaign_id"`
	Contributions []ContributionDTO `json:"contributions"`
}
