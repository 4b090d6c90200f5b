package entities

import "time"

// Contribution is an immutable record of progress against one challenge of
// one campaign. Ids are global, sequential from 1, and never reused.
type Contribution struct {
	ContributionID uint64
	CampaignID     uint64
	ChallengeIndex int
	Amount         uint64
	RecordedAt     time.Time
}
