package entities

import "time"

type RoundState string

const (
	RoundStateOpen   RoundState = "open"
	RoundStateClosed RoundState = "closed"
)

// Round is the single voting-round aggregate the engine mutates.
// Budget backs funding disbursement; Treasury backs credit buy-backs.
// Budget never goes negative and is only decremented by the amount
// disbursed in the same operation.
type Round struct {
	State            RoundState
	Period           uint64
	Budget           int64
	Treasury         int64
	ParticipantCount int
	UpdatedAt        time.Time
}

type ProposalKind string

const (
	ProposalKindFunding   ProposalKind = "funding"
	ProposalKindSignaling ProposalKind = "signaling"
)

// Proposal is arena-addressed by its monotonically allocated ID.
// SlotIndex is the proposal's position inside whichever indexed set
// currently holds it; the set invariant is maintained on every swap-remove.
type Proposal struct {
	ID           uint64
	Creator      string
	Title        string
	Description  string
	Budget       int64
	Target       string
	TotalVotes   int64
	TotalTokens  int64
	Approved     bool
	Canceled     bool
	Refundable   bool
	VotesByVoter map[string]int64
	SlotIndex    int
	Period       uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Proposal) Kind() ProposalKind {
	if p.Budget > 0 {
		return ProposalKindFunding
	}
	return ProposalKindSignaling
}

// Finalized reports whether the proposal reached one of its two terminal
// flags. Approved and Canceled are mutually exclusive.
func (p Proposal) Finalized() bool {
	return p.Approved || p.Canceled
}

func (p Proposal) Votes(voter string) int64 {
	if p.VotesByVoter == nil {
		return 0
	}
	return p.VotesByVoter[voter]
}

// CloneVotes returns a private copy of the per-voter ledger so callers can
// stage mutations without aliasing stored state.
func (p Proposal) CloneVotes() map[string]int64 {
	votes := make(map[string]int64, len(p.VotesByVoter))
	for voter, count := range p.VotesByVoter {
		votes[voter] = count
	}
	return votes
}

type SetName string

const (
	SetPendingFunding  SetName = "pending_funding"
	SetApprovedFunding SetName = "approved_funding"
	SetSignaling       SetName = "signaling"
	SetRefundable      SetName = "refundable"
)
