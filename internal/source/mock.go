package source

import (
	"context"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/pricegen"
)

// Mock session hours, modeled on a US equities day in UTC.
const (
	mockOpenHour    = 13
	mockOpenMinute  = 30
	mockCloseHour   = 20
	mockCloseMinute = 0
)

// MockSource is a DataSource backed by the deterministic price
// generator. It serves reproducible data for backtests and tests
// without any network access.
type MockSource struct {
	gen   *pricegen.Generator
	nowFn func() time.Time
}

// MockOptions configures a MockSource.
type MockOptions struct {
	// Generator supplies the synthetic series. A fresh default
	// generator is created when nil.
	Generator *pricegen.Generator

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewMockSource creates a mock data source.
func NewMockSource(opts MockOptions) *MockSource {
	gen := opts.Generator
	if gen == nil {
		gen = pricegen.New(pricegen.Options{})
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &MockSource{gen: gen, nowFn: nowFn}
}

var _ DataSource = (*MockSource)(nil)

// PriceHistory returns the deterministic series for the range.
func (m *MockSource) PriceHistory(_ context.Context, symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error) {
	return m.gen.History(symbol, iv, start, end)
}

// LatestPrice returns the candle for the minute containing now.
func (m *MockSource) LatestPrice(_ context.Context, symbol string) (domain.Candle, error) {
	return m.gen.LatestAt(symbol, m.nowFn())
}

// MarketHours reports a weekday session from 13:30 to 20:00 UTC.
// Weekends are closed with no session times.
func (m *MockSource) MarketHours(_ context.Context, date time.Time) (domain.MarketHours, error) {
	date = date.UTC()
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return domain.MarketHours{IsOpen: false}, nil
	}

	openAt := time.Date(date.Year(), date.Month(), date.Day(), mockOpenHour, mockOpenMinute, 0, 0, time.UTC)
	closeAt := time.Date(date.Year(), date.Month(), date.Day(), mockCloseHour, mockCloseMinute, 0, 0, time.UTC)
	return domain.MarketHours{IsOpen: true, OpenAt: &openAt, CloseAt: &closeAt}, nil
}
