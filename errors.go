package chainable

import "errors"

var (
	// Construction errors.
	ErrLinkOwned   = errors.New("chainable: link already belongs to a chain")
	ErrChainSealed = errors.New("chainable: chain is sealed after execution begins")
	ErrEmptyChain  = errors.New("chainable: chain has no links")
	ErrNoHost      = errors.New("chainable: no host configured")

	// Reconstruction errors.
	ErrNotRegistered   = errors.New("chainable: link type not registered")
	ErrVariantMismatch = errors.New("chainable: job does not implement its variant contract")

	// Serialization errors.
	ErrCaptureArgs = errors.New("chainable: capture link args")
	ErrRestoreArgs = errors.New("chainable: restore link args")
	ErrBadEnvelope = errors.New("chainable: malformed envelope")

	// Schedule errors.
	ErrBadSchedule = errors.New("chainable: invalid timer schedule")

	// Host errors.
	ErrHostStopped = errors.New("chainable: host is not running")
)
