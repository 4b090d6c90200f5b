package application

import (
	"context"
	"fmt"
	"log/slog"

	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	"questfund/contexts/funding/ledger-service/ports"
)

// RewardEscrow pulls a campaign's reward budget from the initiator into the
// ledger's custody account before the campaign commits. Escrow and
// registration form a single all-or-nothing unit: the transfer runs after
// authorization and before any durable write, and a rejected transfer aborts
// the whole creation with no retry.
type RewardEscrow struct {
	Tokens  ports.TokenTransfer
	Custody string
	Logger  *slog.Logger
}

// Fund is a no-op when amount is zero. Otherwise it requests exactly one
// transfer of amount units of token from the initiator into custody; any
// collaborator failure surfaces opaquely as ErrEscrowFailed.
func (e RewardEscrow) Fund(ctx context.Context, initiator string, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := e.Tokens.TransferFrom(ctx, token, initiator, e.Custody, amount); err != nil {
		ResolveLogger(e.Logger).Warn("reward escrow transfer rejected",
			"event", "reward_escrow_rejected",
			"module", "funding/ledger-service",
			"layer", "application",
			"initiator", initiator,
			"reward_token", token,
			"reward_amount", amount,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrEscrowFailed, err)
	}
	return nil
}

// Release returns escrowed funds from custody to the recipient. Used only to
// compensate a storage fault after a successful pull.
func (e RewardEscrow) Release(ctx context.Context, recipient string, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return e.Tokens.TransferFrom(ctx, token, e.Custody, recipient, amount)
}
