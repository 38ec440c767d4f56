package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Token metadata. The adapter mints nothing and keeps no balance ledger of
// its own, so total supply is a constant zero.
const (
	Name     = "Wrapped Native"
	Symbol   = "WNAT"
	Decimals = 18
)

// DefaultRelayer is the Permit2 allowance relayer. A delegated transfer whose
// caller is this address skips the allowance ledger entirely: it holds an
// implicit, permanent, unlimited quota with no stored entry.
var DefaultRelayer = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")

// Unlimited is the sentinel quota. A debit never decrements it.
var Unlimited = new(uint256.Int).SetAllOne()

// StateDB is the slice of host state the adapter touches: native balances,
// its own storage slots, the log journal, and the snapshot machinery that
// gives every entry point all-or-nothing semantics. *host.State satisfies it.
type StateDB interface {
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason)
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason)
	GetState(addr common.Address, slot common.Hash) common.Hash
	SetState(addr common.Address, slot common.Hash, value common.Hash)
	AddLog(l *types.Log)
	Snapshot() int
	RevertToSnapshot(snapshot int)
}

// Token adapts native base-currency holdings to a fungible-token transfer
// interface. It owns the allowance ledger (in its own storage slots) and the
// transfer engine; account balances stay in the host's authoritative ledger.
type Token struct {
	address  common.Address
	relayer  common.Address
	state    StateDB
	accounts *Registry
}

// New creates the adapter at the given address. A zero relayer selects
// DefaultRelayer; tests inject their own.
func New(address common.Address, state StateDB, accounts *Registry, relayer common.Address) *Token {
	if relayer == (common.Address{}) {
		relayer = DefaultRelayer
	}
	return &Token{
		address:  address,
		relayer:  relayer,
		state:    state,
		accounts: accounts,
	}
}

// Address returns the adapter's own account address.
func (t *Token) Address() common.Address {
	return t.address
}

// Relayer returns the configured implicit-quota relayer.
func (t *Token) Relayer() common.Address {
	return t.relayer
}

// TotalSupply is a constant zero: the adapter mints nothing.
func (t *Token) TotalSupply() *uint256.Int {
	return new(uint256.Int)
}

// BalanceOf always fails. The host's balance ledger is the single source of
// truth and the adapter refuses to offer a second, possibly divergent view.
func (t *Token) BalanceOf(common.Address) (*uint256.Int, error) {
	return nil, ErrBalanceOfNotSupported
}

// Approve unconditionally overwrites the stored quota for (owner, spender).
// Zero revokes; Unlimited persists across any number of delegated transfers.
// It always succeeds and emits an Approval notification.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.setQuota(owner, spender, amount)
	t.emitApproval(owner, spender, amount)
}

// Allowance returns the stored quota for (owner, spender), zero when absent.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	return t.quota(owner, spender)
}

// Transfer moves amount from the caller to recipient. The caller must itself
// expose the pull capability.
func (t *Token) Transfer(caller, recipient common.Address, amount *uint256.Int) error {
	snap := t.state.Snapshot()
	if err := t.executeTransfer(caller, caller, recipient, amount); err != nil {
		t.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// TransferFrom moves amount from source to recipient on behalf of caller,
// debiting the (source, caller) quota first. The delegate identity is used
// only for allowance accounting; the pull is always invoked on the source.
func (t *Token) TransferFrom(caller, source, recipient common.Address, amount *uint256.Int) error {
	snap := t.state.Snapshot()
	if err := t.transferFrom(caller, source, recipient, amount); err != nil {
		t.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}

func (t *Token) transferFrom(caller, source, recipient common.Address, amount *uint256.Int) error {
	if caller != t.relayer {
		// Debit before the pull so a reentrant call cannot observe a
		// not-yet-debited quota.
		if err := t.debit(source, caller, amount); err != nil {
			return err
		}
	}
	return t.executeTransfer(source, source, recipient, amount)
}

// executeTransfer pulls amount from pullTarget into the adapter's own held
// balance, verifies receipt, and forwards it to recipient. Any failure leaves
// the enclosing entry point to unwind the whole chain via its snapshot.
func (t *Token) executeTransfer(from, pullTarget, recipient common.Address, amount *uint256.Int) error {
	src, ok := t.accounts.Source(pullTarget)
	if !ok {
		return ErrNotNativeSource
	}

	// The pull runs untrusted code: it may fail, lie, or re-enter. Its error
	// propagates unchanged. Its bool return is ignored; a false return
	// without funds moved is caught by the balance check below.
	if _, err := src.TransferFromNative(pullTarget, t.address, amount); err != nil {
		return err
	}

	// Floor check, not a delta check: a residual balance held by the
	// adapter before the pull can mask a short pull.
	if t.state.GetBalance(t.address).Lt(amount) {
		return ErrInsufficientTransferAmount
	}

	t.state.SubBalance(t.address, amount, tracing.BalanceChangeTransfer)
	t.state.AddBalance(recipient, amount, tracing.BalanceChangeTransfer)
	if hook, ok := t.accounts.Receiver(recipient); ok {
		if err := hook.ReceiveNative(t.address, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	t.emitTransfer(from, recipient, amount)
	return nil
}
