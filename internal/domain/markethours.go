package domain

import "time"

// MarketHours describes one trading day. OpenAt and CloseAt are nil
// when the market does not open that day.
type MarketHours struct {
	IsOpen  bool       `json:"is_open"`
	OpenAt  *time.Time `json:"open_at"`
	CloseAt *time.Time `json:"close_at"`
}
