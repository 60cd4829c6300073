package errors

import "errors"

// Authorization failures: wrong role for the attempted operation.
var (
	ErrNotOrganizer   = errors.New("caller is not the organizer")
	ErrNotParticipant = errors.New("caller is not a registered participant")
	ErrNotCreator     = errors.New("caller is not the proposal creator")
)

// State failures: wrong round state or period mismatch.
var (
	ErrRoundNotOpen   = errors.New("voting round is not open")
	ErrRoundNotClosed = errors.New("voting round is not closed")
	ErrRoundStillOpen = errors.New("proposal round has not closed yet")
	ErrPeriodMismatch = errors.New("proposal does not belong to the current round")
)

// Funds failures: payments, credit balances, caps and budgets.
var (
	ErrPaymentBelowUnitPrice = errors.New("payment is below the credit unit price")
	ErrInsufficientCredit    = errors.New("insufficient unlocked credit balance")
	ErrSupplyCapExceeded     = errors.New("credit supply cap exceeded")
	ErrInsufficientTreasury  = errors.New("treasury cannot cover the refund")
	ErrInvalidBudget         = errors.New("initial budget must be positive")
)

// Proposal failures.
var (
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrProposalFinalized    = errors.New("proposal is already approved or canceled")
	ErrAlreadyExecuted      = errors.New("signaling proposal already executed")
	ErrNotSignaling         = errors.New("proposal is not a signaling proposal")
	ErrNotRefundable        = errors.New("proposal is not refundable")
	ErrNothingToRefund      = errors.New("caller has no locked credit on this proposal")
	ErrNoVotesToWithdraw    = errors.New("withdraw exceeds the caller's vote count")
	ErrInvalidProposalInput = errors.New("invalid proposal input")
	ErrInvalidVoteCount     = errors.New("vote count must be positive")
	ErrInvalidPayment       = errors.New("payment must be positive")
)

// External collaborator failures. Either aborts the whole operation.
var (
	ErrExecutionFailed = errors.New("executable target invocation failed")
	ErrLedgerRejected  = errors.New("credit ledger rejected the operation")
)
