package errors

import "errors"

var (
	ErrNotInitiator           = errors.New("caller is not the campaign initiator")
	ErrEscrowFailed           = errors.New("reward escrow transfer failed")
	ErrInvalidCampaignInput   = errors.New("invalid campaign input")
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrContributionNotFound   = errors.New("contribution not found")
	ErrEmptyContributionBatch = errors.New("contribution batch is empty")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
)

// ContributionField names the first field that failed contribution
// validation. The check order is fixed: campaignId, then challengeIndex,
// then amount.
type ContributionField string

const (
	FieldCampaignID     ContributionField = "campaignId"
	FieldChallengeIndex ContributionField = "challengeIndex"
	FieldAmount         ContributionField = "amount"
)

type InvalidContributionError struct {
	Field ContributionField
}

func (e InvalidContributionError) Error() string {
	return "invalid contribution: " + string(e.Field)
}

func NewInvalidContribution(field ContributionField) error {
	return InvalidContributionError{Field: field}
}
