package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OpenRoundRequest struct {
	InitialBudget int64 `json:"initial_budget"`
}

type RoundResponse struct {
	State            string `json:"state"`
	Period           uint64 `json:"period"`
	Budget           int64  `json:"budget"`
	Treasury         int64  `json:"treasury"`
	ParticipantCount int    `json:"participant_count"`
}

type CloseRoundResponse struct {
	Round RoundResponse `json:"round"`
	Swept int64         `json:"swept"`
}

type BuyCreditRequest struct {
	Payment int64 `json:"payment"`
}

type BuyCreditResponse struct {
	Units      int64 `json:"units"`
	Registered bool  `json:"registered"`
	Balance    int64 `json:"balance"`
}

type SellCreditRequest struct {
	Amount int64 `json:"amount"`
}

type SellCreditResponse struct {
	Refund  int64 `json:"refund"`
	Balance int64 `json:"balance"`
}

type AddProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Target      string `json:"target"`
}

type StakeRequest struct {
	AdditionalVotes int64 `json:"additional_votes"`
}

type StakeResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	Cost     int64            `json:"cost"`
	Approved bool             `json:"approved"`
}

type WithdrawRequest struct {
	VotesToWithdraw int64 `json:"votes_to_withdraw"`
}

type WithdrawResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	Refund   int64            `json:"refund"`
}

type ClaimRefundResponse struct {
	Refund           int64 `json:"refund"`
	RemainingTokens  int64 `json:"remaining_tokens"`
	DroppedFromQueue bool  `json:"dropped_from_queue"`
}

type ProposalResponse struct {
	ProposalID  uint64 `json:"proposal_id"`
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Budget      int64  `json:"budget"`
	Target      string `json:"target,omitempty"`
	TotalVotes  int64  `json:"total_votes"`
	TotalTokens int64  `json:"total_tokens"`
	Approved    bool   `json:"approved"`
	Canceled    bool   `json:"canceled"`
	Period      uint64 `json:"period"`
}

type ProposalListItem struct {
	ProposalID  uint64 `json:"proposal_id"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	Budget      int64  `json:"budget"`
	TotalVotes  int64  `json:"total_votes"`
	TotalTokens int64  `json:"total_tokens"`
	Period      uint64 `json:"period"`
	Approved    bool   `json:"approved"`
	Canceled    bool   `json:"canceled"`
}

type ProposalListResponse struct {
	Items []ProposalListItem `json:"items"`
}
