package commands

import "math/big"

// fixedPointScale is the 10^18 scale factor the approval formula is
// evaluated in; math/big keeps the intermediate products exact.
var fixedPointScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// approvalThreshold computes the vote count a funding proposal must reach:
//
//	ratio     = floor(proposalBudget * S / roundBudget)
//	scaled    = (S/5 + ratio) * participantCount
//	threshold = floor(scaled / S) + pendingFundingCount
//
// i.e. (0.2 + budget_i/roundBudget) * participants, plus one vote per
// currently pending funding proposal. Pure in its inputs.
func approvalThreshold(proposalBudget int64, roundBudget int64, participantCount int, pendingFundingCount int) int64 {
	ratio := new(big.Int).Mul(big.NewInt(proposalBudget), fixedPointScale)
	ratio.Quo(ratio, big.NewInt(roundBudget))

	scaled := new(big.Int).Quo(fixedPointScale, big.NewInt(5))
	scaled.Add(scaled, ratio)
	scaled.Mul(scaled, big.NewInt(int64(participantCount)))

	scaled.Quo(scaled, fixedPointScale)
	return scaled.Int64() + int64(pendingFundingCount)
}

// meetsApproval decides auto-approval for a funding proposal given the
// hypothetical post-stake vote total. Signaling proposals never pass here
// and an empty round budget can never disburse.
func meetsApproval(totalVotes int64, proposalBudget int64, roundBudget int64, participantCount int, pendingFundingCount int) bool {
	if proposalBudget <= 0 || roundBudget <= 0 || roundBudget < proposalBudget {
		return false
	}
	return totalVotes >= approvalThreshold(proposalBudget, roundBudget, participantCount, pendingFundingCount)
}
