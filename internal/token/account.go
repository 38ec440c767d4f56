package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"
)

// BasicAccount is a minimal wallet-style implementation of the pull
// capability: it moves its own native balance and nothing else. The daemon
// registers one for every wallet address it manages; tests use it as the
// well-behaved source fixture.
type BasicAccount struct {
	addr  common.Address
	state StateDB
}

func NewBasicAccount(addr common.Address, state StateDB) *BasicAccount {
	return &BasicAccount{addr: addr, state: state}
}

func (a *BasicAccount) Address() common.Address {
	return a.addr
}

// TransferFromNative moves amount of the account's own native balance to
// recipient. It refuses to move anyone else's funds.
func (a *BasicAccount) TransferFromNative(from, recipient common.Address, amount *uint256.Int) (bool, error) {
	if from != a.addr {
		return false, fmt.Errorf("transferFromNative: %s cannot move funds of %s", a.addr.Hex(), from.Hex())
	}
	if a.state.GetBalance(a.addr).Lt(amount) {
		return false, ErrInsufficientFunds
	}
	a.state.SubBalance(a.addr, amount, tracing.BalanceChangeTransfer)
	a.state.AddBalance(recipient, amount, tracing.BalanceChangeTransfer)
	return true, nil
}

// ApproveNative is the account's own authorization surface, separate from the
// adapter's allowance ledger. BasicAccount keeps no spender list; the call is
// accepted and has no effect.
func (a *BasicAccount) ApproveNative(spender common.Address, amount *uint256.Int) (bool, error) {
	return true, nil
}
