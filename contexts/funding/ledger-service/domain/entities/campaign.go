package entities

import (
	"strings"
	"time"
)

// Campaign is a permanent ledger entry. After creation the challenge list is
// fixed in length and order; only each challenge's ContributionsSpent moves.
type Campaign struct {
	CampaignID   uint64
	Initiator    string
	Title        string
	IpfsCID      string
	RewardToken  string
	RewardAmount uint64
	Challenges   []Challenge
	CreatedAt    time.Time
}

// Challenge is a weighted sub-goal (KPI) embedded in a campaign, addressed by
// its position in the campaign's challenge list.
type Challenge struct {
	KPI    string
	Points uint64

	// MaxContributions caps the accumulated contribution quantity. The cap is
	// stored and reported but not enforced; accepted contributions may push
	// ContributionsSpent past it.
	MaxContributions   uint64
	ContributionsSpent uint64
}

func (c Campaign) ValidateBasics() bool {
	title := strings.TrimSpace(c.Title)
	ipfsCID := strings.TrimSpace(c.IpfsCID)
	initiator := strings.TrimSpace(c.Initiator)
	if title == "" || ipfsCID == "" || initiator == "" {
		return false
	}
	if c.RewardAmount > 0 && strings.TrimSpace(c.RewardToken) == "" {
		return false
	}
	for _, challenge := range c.Challenges {
		if strings.TrimSpace(challenge.KPI) == "" {
			return false
		}
	}
	return true
}

// InitiatedBy is the creation authorization rule: the caller must equal the
// declared initiator exactly.
func (c Campaign) InitiatedBy(caller string) bool {
	return caller != "" && caller == c.Initiator
}

func (c Campaign) HasReward() bool {
	return c.RewardAmount > 0
}

func (c Campaign) HasChallenge(index int) bool {
	return index >= 0 && index < len(c.Challenges)
}

// FreshChallenges copies the challenge list with every accumulation zeroed,
// regardless of any caller-supplied ContributionsSpent value.
func (c Campaign) FreshChallenges() []Challenge {
	items := make([]Challenge, len(c.Challenges))
	for i, challenge := range c.Challenges {
		items[i] = Challenge{
			KPI:              strings.TrimSpace(challenge.KPI),
			Points:           challenge.Points,
			MaxContributions: challenge.MaxContributions,
		}
	}
	return items
}

// CloneChallenges copies the challenge list as-is, accumulation included.
func (c Campaign) CloneChallenges() []Challenge {
	return append([]Challenge(nil), c.Challenges...)
}
