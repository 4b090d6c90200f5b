package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator creates event/outbox identifiers. Campaign and contribution
// ids are never uuids; those come from the gapless counters.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
