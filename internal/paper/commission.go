package paper

import (
	"fmt"
	"regexp"
	"strconv"

	"algotrade-core/internal/domain"
)

var percentPattern = regexp.MustCompile(`^([0-9]+\.?[0-9]*)%$`)

// fee is a single commission rule: a flat amount or a percentage of
// notional.
type fee struct {
	percent bool
	value   float64
}

func (f fee) amount(notional float64) float64 {
	if f.percent {
		return notional * f.value / 100
	}
	return f.value
}

// Commission models trading fees. Fees are applied additively to cost
// on buys and subtractively to proceeds on sells.
type Commission struct {
	buy  fee
	sell fee
}

// ParseCommission accepts the supported commission specs:
// a flat numeric fee (float64 or int), a percentage string like "0.5%",
// or a map with "buy" and "sell" entries of either form.
// Returns domain.ErrConfiguration for anything else.
func ParseCommission(spec any) (Commission, error) {
	if m, ok := spec.(map[string]any); ok {
		buy, err := parseFee(m["buy"])
		if err != nil {
			return Commission{}, err
		}
		sell, err := parseFee(m["sell"])
		if err != nil {
			return Commission{}, err
		}
		return Commission{buy: buy, sell: sell}, nil
	}

	f, err := parseFee(spec)
	if err != nil {
		return Commission{}, err
	}
	return Commission{buy: f, sell: f}, nil
}

func parseFee(spec any) (fee, error) {
	switch v := spec.(type) {
	case nil:
		return fee{}, nil
	case int:
		return fee{value: float64(v)}, nil
	case float64:
		return fee{value: v}, nil
	case string:
		m := percentPattern.FindStringSubmatch(v)
		if m == nil {
			return fee{}, fmt.Errorf("%w: commission %q must be a number or %q-style percentage", domain.ErrConfiguration, v, "X%")
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return fee{}, fmt.Errorf("%w: commission %q: %v", domain.ErrConfiguration, v, err)
		}
		return fee{percent: true, value: pct}, nil
	default:
		return fee{}, fmt.Errorf("%w: unsupported commission spec %T", domain.ErrConfiguration, spec)
	}
}

// Apply returns the effective cash amount for a trade of the given
// notional: notional plus fee for buys, notional minus fee for sells.
func (c Commission) Apply(notional float64, side domain.Side) float64 {
	if side == domain.SideBuy {
		return notional + c.buy.amount(notional)
	}
	return notional - c.sell.amount(notional)
}

// Fee returns just the fee portion for the given notional and side.
func (c Commission) Fee(notional float64, side domain.Side) float64 {
	if side == domain.SideBuy {
		return c.buy.amount(notional)
	}
	return c.sell.amount(notional)
}
