package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// allowanceSlotPrefix salts the slot derivation so allowance entries cannot
// collide with any other storage the adapter's address might carry.
var allowanceSlotPrefix = []byte("nativewrap.allowance")

func allowanceSlot(owner, spender common.Address) common.Hash {
	return crypto.Keccak256Hash(allowanceSlotPrefix, owner.Bytes(), spender.Bytes())
}

// quota reads the stored (owner, spender) quota. An absent entry reads as the
// zero hash, which is a zero quota.
func (t *Token) quota(owner, spender common.Address) *uint256.Int {
	h := t.state.GetState(t.address, allowanceSlot(owner, spender))
	return new(uint256.Int).SetBytes(h[:])
}

func (t *Token) setQuota(owner, spender common.Address, q *uint256.Int) {
	t.state.SetState(t.address, allowanceSlot(owner, spender), common.Hash(q.Bytes32()))
}

// debit reduces the (owner, spender) quota by amount. The Unlimited sentinel
// is preserved untouched. Must run before any currency moves; the enclosing
// snapshot rolls it back together with a failed pull.
func (t *Token) debit(owner, spender common.Address, amount *uint256.Int) error {
	q := t.quota(owner, spender)
	if q.Eq(Unlimited) {
		return nil
	}
	if amount.Gt(q) {
		return ErrInsufficientAllowance
	}
	t.setQuota(owner, spender, new(uint256.Int).Sub(q, amount))
	return nil
}
