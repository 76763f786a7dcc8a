package swapnet

// NormalizedStatus is the closed status set every consumer switches on. The
// provider emits more raw strings than there are distinct behaviors (two
// "in progress" variants among them), so the mapping lives here and nowhere
// else.
type NormalizedStatus string

const (
	StatusPending    NormalizedStatus = "pending"
	StatusProcessing NormalizedStatus = "processing"
	StatusCompleted  NormalizedStatus = "completed"
	StatusFailed     NormalizedStatus = "failed"
)

// Provider raw status strings
const (
	rawPendingDeposit    = "PENDING_DEPOSIT"
	rawKnownDepositTx    = "KNOWN_DEPOSIT_TX"
	rawProcessing        = "PROCESSING"
	rawIncompleteDeposit = "INCOMPLETE_DEPOSIT"
	rawSuccess           = "SUCCESS"
	rawRefunded          = "REFUNDED"
	rawFailed            = "FAILED"
)

// Normalize maps a provider status string to the closed normalized set.
// Unknown strings map to pending: the safe reading of a status this service
// has never seen is "nothing actionable yet, poll again".
func Normalize(raw string) NormalizedStatus {
	switch raw {
	case rawPendingDeposit, rawIncompleteDeposit:
		return StatusPending
	case rawKnownDepositTx, rawProcessing:
		return StatusProcessing
	case rawSuccess:
		return StatusCompleted
	case rawRefunded, rawFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// NewStatusResult builds a StatusResult from a raw provider status
func NewStatusResult(raw string) *StatusResult {
	return &StatusResult{
		Raw:      raw,
		Status:   Normalize(raw),
		Refunded: raw == rawRefunded,
	}
}
