package token

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// erc20ABI is the fixed calldata surface the adapter answers to. The set is
// closed: no method outside this list is ever dispatched.
const erc20ABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"source","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// ABI is the parsed calldata surface, exported so clients and tests can pack
// calls without re-declaring the JSON.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}
	ABI = parsed
}

// Call dispatches ABI-encoded calldata against the adapter, the way an EVM
// host routes a call to a precompiled contract. caller is the authenticated
// message sender; errors surface as call failures with no return data.
func (t *Token) Call(caller common.Address, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(input))
	}
	method, err := ABI.MethodById(input[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method.Name, err)
	}

	switch method.Name {
	case "name":
		return method.Outputs.Pack(Name)
	case "symbol":
		return method.Outputs.Pack(Symbol)
	case "decimals":
		return method.Outputs.Pack(uint8(Decimals))
	case "totalSupply":
		return method.Outputs.Pack(t.TotalSupply().ToBig())
	case "balanceOf":
		// Unconditional refusal, argument irrelevant.
		_, err := t.BalanceOf(args[0].(common.Address))
		return nil, err
	case "allowance":
		owner := args[0].(common.Address)
		spender := args[1].(common.Address)
		return method.Outputs.Pack(t.Allowance(owner, spender).ToBig())
	case "approve":
		spender := args[0].(common.Address)
		amount := callAmount(args[1])
		t.Approve(caller, spender, amount)
		return method.Outputs.Pack(true)
	case "transfer":
		recipient := args[0].(common.Address)
		amount := callAmount(args[1])
		if err := t.Transfer(caller, recipient, amount); err != nil {
			return nil, err
		}
		return method.Outputs.Pack(true)
	case "transferFrom":
		source := args[0].(common.Address)
		recipient := args[1].(common.Address)
		amount := callAmount(args[2])
		if err := t.TransferFrom(caller, source, recipient, amount); err != nil {
			return nil, err
		}
		return method.Outputs.Pack(true)
	default:
		return nil, fmt.Errorf("unsupported method %s", method.Name)
	}
}

// callAmount converts an unpacked uint256 argument. ABI decoding guarantees
// the value fits, so the conversion cannot overflow.
func callAmount(arg any) *uint256.Int {
	return uint256.MustFromBig(arg.(*big.Int))
}
