package httptransport

// BalanceResponse reports the unlocked credit balance of one account.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// SupplyResponse reports live supply against the global cap.
type SupplyResponse struct {
	Cap       int64 `json:"cap"`
	Minted    int64 `json:"minted"`
	Remaining int64 `json:"remaining"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
