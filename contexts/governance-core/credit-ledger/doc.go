// Package creditledger implements the fungible voting-credit ledger inside
// the governance-core context: capped mint, burn, balance and transfer
// capabilities. The voting engine is the only registered mint/burn
// authority and the only transfer-from operator.
package creditledger
