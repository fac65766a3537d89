package domain

// Position is an open holding in a single symbol. AvgPrice is the
// quantity-weighted average of the fills that built the position.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// Account is the simulated account ledger.
//
// Equity is cash plus the book value of open positions scaled by the
// account multiplier. BuyingPower is reserved optimistically when a buy
// order is placed and reconciled against actual cost at fill time.
type Account struct {
	Cash        float64 `json:"cash"`
	Equity      float64 `json:"equity"`
	BuyingPower float64 `json:"buying_power"`
	Multiplier  float64 `json:"multiplier"`
}
