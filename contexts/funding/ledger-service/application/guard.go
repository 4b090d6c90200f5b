package application

import (
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
)

// IdentityGuard is the sole authorization check in the ledger. The caller
// identity is trusted as already authenticated by the external multi-party
// authorization mechanism; the guard only compares it against the declared
// initiator. It runs before any escrow or mutation, so a failure has zero
// side effects.
type IdentityGuard struct{}

func (IdentityGuard) AuthorizeCreation(caller string, initiator string) error {
	if caller == "" || caller != initiator {
		return domainerrors.ErrNotInitiator
	}
	return nil
}
