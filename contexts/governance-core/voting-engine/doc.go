// Package votingengine implements the quadratic-voting governance engine
// inside the governance-core context.
//
// The module owns the voting-round state machine (open/close, budget and
// treasury bookkeeping, participant registry), the proposal arena with its
// swap-remove indexed sets, quadratic stake/withdraw cost accounting, the
// fixed-point approval threshold with automatic disbursement, and the
// pull-based refund ledger. External collaborators (the fungible credit
// ledger and the executable proposal targets) sit behind ports.
package votingengine
