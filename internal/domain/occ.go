package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// AssetType classifies a symbol string.
type AssetType string

// Asset types.
const (
	AssetStock  AssetType = "STOCK"
	AssetCrypto AssetType = "CRYPTO"
	AssetOption AssetType = "OPTION"
)

// SymbolType determines the asset class of a symbol. Crypto symbols are
// prefixed with '@'; OCC option symbols are longer than six characters;
// everything else is a stock.
func SymbolType(symbol string) AssetType {
	switch {
	case len(symbol) > 6:
		return AssetOption
	case strings.HasPrefix(symbol, "@"):
		return AssetCrypto
	default:
		return AssetStock
	}
}

// OptionType is the kind of an option contract.
type OptionType string

// Option types.
const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ToOCC encodes an option into an OCC-style composite symbol:
// underlying padded to six characters, expiration as YYMMDD, C or P,
// then the strike in thousandths as an eight-digit integer. The
// underlying must be one to six characters.
func ToOCC(symbol string, expiration time.Time, optionType OptionType, strike float64) (string, error) {
	if len(symbol) == 0 || len(symbol) > 6 {
		return "", fmt.Errorf("%w: OCC underlying %q must be 1-6 characters", ErrConfiguration, symbol)
	}
	var b strings.Builder
	b.WriteString(symbol)
	b.WriteString(strings.Repeat(" ", 6-len(symbol)))
	b.WriteString(expiration.Format("060102"))
	if optionType == Call {
		b.WriteByte('C')
	} else {
		b.WriteByte('P')
	}
	fmt.Fprintf(&b, "%08d", int(strike*1000))
	return b.String(), nil
}

// FromOCC decodes an OCC-style symbol into its parts.
func FromOCC(occ string) (symbol string, expiration time.Time, optionType OptionType, strike float64, err error) {
	i := 0
	for i < len(occ) && unicode.IsLetter(rune(occ[i])) {
		i++
	}
	symbol = occ[:i]
	rest := strings.ReplaceAll(occ[i:], " ", "")
	if len(rest) != 15 {
		err = fmt.Errorf("malformed OCC symbol %q", occ)
		return
	}
	expiration, err = time.Parse("060102", rest[:6])
	if err != nil {
		err = fmt.Errorf("malformed OCC expiration in %q: %w", occ, err)
		return
	}
	if rest[6] == 'C' {
		optionType = Call
	} else {
		optionType = Put
	}
	thousandths, err := strconv.Atoi(rest[7:])
	if err != nil {
		err = fmt.Errorf("malformed OCC strike in %q: %w", occ, err)
		return
	}
	strike = float64(thousandths) / 1000
	return
}
