// Package wallet checks that a requester's wallet may submit on a network.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrUnsupportedNetwork = errors.New("unsupported network")
)

// Authorizer implements ports.Authorizer for Ethereum-style wallets.
type Authorizer struct {
	chains map[string]bool
	logger *zap.Logger
}

// NewAuthorizer creates an authorizer accepting the given networks
func NewAuthorizer(chains []string, logger *zap.Logger) *Authorizer {
	allowed := make(map[string]bool, len(chains))
	for _, c := range chains {
		allowed[c] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{chains: allowed, logger: logger}
}

// Authorize rejects malformed addresses, the zero address and networks the
// service is not configured for.
func (a *Authorizer) Authorize(ctx context.Context, requesterAddress, chain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !a.chains[chain] {
		return fmt.Errorf("%w: %s", ErrUnsupportedNetwork, chain)
	}

	if !common.IsHexAddress(requesterAddress) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, requesterAddress)
	}

	addr := common.HexToAddress(requesterAddress)
	if addr == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}

	a.logger.Debug("wallet authorized",
		zap.String("address", addr.Hex()),
		zap.String("chain", chain))

	return nil
}
