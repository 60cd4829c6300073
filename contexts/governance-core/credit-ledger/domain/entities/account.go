package entities

import "time"

type Account struct {
	Address   string
	Balance   int64
	UpdatedAt time.Time
}

// Supply tracks live credit against the global cap. Burning frees cap room
// for later mints.
type Supply struct {
	Cap       int64
	Minted    int64
	UpdatedAt time.Time
}

func (s Supply) Remaining() int64 {
	if s.Cap <= 0 {
		return 0
	}
	return s.Cap - s.Minted
}
