package domain

import (
	"testing"
	"time"
)

func TestSymbolType(t *testing.T) {
	cases := map[string]AssetType{
		"AAPL":                 AssetStock,
		"@BTC":                 AssetCrypto,
		"AAPL  230616C00150000": AssetOption,
	}
	for sym, want := range cases {
		if got := SymbolType(sym); got != want {
			t.Errorf("SymbolType(%q) = %s, want %s", sym, got, want)
		}
	}
}

func TestOCCRoundTrip(t *testing.T) {
	exp := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	occ, err := ToOCC("AAPL", exp, Call, 150.0)
	if err != nil {
		t.Fatal(err)
	}

	if len(occ) != 21 {
		t.Fatalf("OCC symbol %q has length %d, want 21", occ, len(occ))
	}

	sym, gotExp, optType, strike, err := FromOCC(occ)
	if err != nil {
		t.Fatalf("FromOCC(%q) failed: %v", occ, err)
	}
	if sym != "AAPL" || !gotExp.Equal(exp) || optType != Call || strike != 150.0 {
		t.Errorf("FromOCC(%q) = (%q, %s, %s, %g)", occ, sym, gotExp, optType, strike)
	}
}

func TestToOCCRejectsBadUnderlying(t *testing.T) {
	exp := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	for _, sym := range []string{"", "GOOGLEX"} {
		if _, err := ToOCC(sym, exp, Call, 150.0); err == nil {
			t.Errorf("ToOCC(%q) accepted an invalid underlying", sym)
		}
	}
}

func TestCandleValidate(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0).UTC()

	valid := Candle{Timestamp: ts, Open: 9.5, High: 12, Low: 8, Close: 10.5, Volume: 100}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid candle rejected: %v", err)
	}

	bad := Candle{Timestamp: ts, Open: 9.5, High: 9, Low: 8, Close: 10.5, Volume: 100}
	if err := bad.Validate(); err == nil {
		t.Error("candle with close > high accepted")
	}

	if !PlaceholderCandle(ts).IsPlaceholder() {
		t.Error("placeholder candle not recognized")
	}
}
