package memory

import (
	"context"
	"errors"
	"sync"
)

// TokenBank is the in-memory fungible-token collaborator used by tests and
// the in-memory module. Balances are per token, per account; a rejected
// transfer reports why, but the ledger treats any failure opaquely.
type TokenBank struct {
	mu        sync.Mutex
	balances  map[string]map[string]uint64
	transfers []Transfer
}

// Transfer is a completed transfer, kept for inspection.
type Transfer struct {
	Token       string
	Owner       string
	Destination string
	Amount      uint64
}

func NewTokenBank() *TokenBank {
	return &TokenBank{
		balances: make(map[string]map[string]uint64),
	}
}

func (b *TokenBank) Credit(token string, account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[token] == nil {
		b.balances[token] = make(map[string]uint64)
	}
	b.balances[token][account] += amount
}

func (b *TokenBank) BalanceOf(token string, account string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.balances[token][account]
}

func (b *TokenBank) TransferFrom(_ context.Context, token string, owner string, destination string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if token == "" {
		return errors.New("unknown token")
	}
	accounts := b.balances[token]
	if accounts == nil || accounts[owner] < amount {
		return errors.New("insufficient balance")
	}
	accounts[owner] -= amount
	accounts[destination] += amount
	b.transfers = append(b.transfers, Transfer{
		Token:       token,
		Owner:       owner,
		Destination: destination,
		Amount:      amount,
	})
	return nil
}

// Transfers returns every completed transfer in order.
func (b *TokenBank) Transfers() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Transfer(nil), b.transfers...)
}
