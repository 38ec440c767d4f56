package token

// TokenError is a terminal failure of a token operation. Failures are never
// retried internally; the enclosing call chain unwinds as a whole.
type TokenError struct {
	msg string
}

func (e *TokenError) Error() string {
	return e.msg
}

var (
	// ErrBalanceOfNotSupported is returned unconditionally by BalanceOf.
	ErrBalanceOfNotSupported = &TokenError{"balanceOf is not supported"}

	// ErrInsufficientAllowance is returned when a delegated transfer exceeds
	// the caller's non-unlimited quota.
	ErrInsufficientAllowance = &TokenError{"insufficient allowance"}

	// ErrInsufficientTransferAmount is returned when the adapter's held
	// balance is still short of the required amount after the pull.
	ErrInsufficientTransferAmount = &TokenError{"insufficient transfer amount"}

	// ErrTransferFailed is returned when forwarding currency to the
	// recipient fails.
	ErrTransferFailed = &TokenError{"transfer failed"}

	// ErrNotNativeSource is returned when the pull target has no registered
	// transferFromNative capability.
	ErrNotNativeSource = &TokenError{"account does not expose transferFromNative"}

	// ErrInsufficientFunds is the host-level failure a source account raises
	// when its own balance cannot cover a pull.
	ErrInsufficientFunds = &TokenError{"insufficient funds"}
)
