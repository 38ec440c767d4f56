package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Standard fungible-token event topics.
var (
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	ApprovalTopic = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
)

// Notifications go through the host's log journal so that a reverted call
// chain discards them together with every other mutation.

func (t *Token) emitTransfer(from, to common.Address, amount *uint256.Int) {
	t.state.AddLog(&types.Log{
		Address: t.address,
		Topics:  []common.Hash{TransferTopic, addressTopic(from), addressTopic(to)},
		Data:    amountData(amount),
	})
}

func (t *Token) emitApproval(owner, spender common.Address, amount *uint256.Int) {
	t.state.AddLog(&types.Log{
		Address: t.address,
		Topics:  []common.Hash{ApprovalTopic, addressTopic(owner), addressTopic(spender)},
		Data:    amountData(amount),
	})
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func amountData(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}
