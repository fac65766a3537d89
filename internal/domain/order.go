package domain

import "time"

// Side is the direction of an order.
type Side string

// Order sides.
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus is the lifecycle state of an order. An order is created
// OPEN and transitions once, irreversibly, to FILLED or CANCELLED.
type OrderStatus string

// Order statuses.
const (
	OrderOpen      OrderStatus = "OPEN"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// TimeInForce describes how long an order stays active.
type TimeInForce string

// Time-in-force values.
const (
	GTC TimeInForce = "gtc"
	Day TimeInForce = "day"
)

// Order is a limit order tracked by the simulated execution engine.
// Filled* fields are nil until the order fills.
type Order struct {
	ID          int         `json:"id"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Quantity    float64     `json:"quantity"`
	LimitPrice  float64     `json:"limit_price"`
	TimeInForce TimeInForce `json:"time_in_force"`
	Status      OrderStatus `json:"status"`

	FilledPrice    *float64   `json:"filled_price,omitempty"`
	FilledQuantity *float64   `json:"filled_quantity,omitempty"`
	FilledTime     *time.Time `json:"filled_time,omitempty"`
}

// Terminal reports whether the order reached a final state.
func (o *Order) Terminal() bool {
	return o.Status != OrderOpen
}

// FillEvent is emitted when a simulated order fills.
type FillEvent struct {
	ID          string    `json:"id"`
	OrderID     int       `json:"order_id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    float64   `json:"quantity"`
	FilledPrice float64   `json:"filled_price"`
	FilledTime  time.Time `json:"filled_time"`
}
