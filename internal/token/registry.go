package token

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeSource is the pull capability a collaborating account must implement
// to act as a transfer source. The adapter always supplies its own address as
// the recipient. The wider account convention also carries an
// approveNative(spender, amount) entry point; that is the collaborator's own
// authorization mechanism and is never consumed by the adapter, so it is not
// part of this interface.
type NativeSource interface {
	TransferFromNative(from, recipient common.Address, amount *uint256.Int) (bool, error)
}

// NativeReceiver is an optional guard on incoming native transfers. An
// account that registers it can refuse funds, which fails the whole transfer.
type NativeReceiver interface {
	ReceiveNative(from common.Address, amount *uint256.Int) error
}

// Registry maps account addresses to their capability implementations. The
// adapter resolves pull targets and receive hooks through it; everything
// behind the boundary is untrusted and may re-enter the adapter.
type Registry struct {
	mu       sync.RWMutex
	accounts map[common.Address]any
}

func NewRegistry() *Registry {
	return &Registry{
		accounts: make(map[common.Address]any),
	}
}

// Register binds an account implementation to an address, replacing any
// previous binding.
func (r *Registry) Register(addr common.Address, impl any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[addr] = impl
}

// Source returns the pull capability registered at addr, if any.
func (r *Registry) Source(addr common.Address) (NativeSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.accounts[addr].(NativeSource)
	return src, ok
}

// Receiver returns the receive hook registered at addr, if any. Accounts
// without a hook accept funds unconditionally.
func (r *Registry) Receiver(addr common.Address) (NativeReceiver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recv, ok := r.accounts[addr].(NativeReceiver)
	return recv, ok
}

// Registered reports whether any implementation is bound to addr.
func (r *Registry) Registered(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[addr]
	return ok
}
