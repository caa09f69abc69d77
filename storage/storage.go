package storage

import (
	"context"
	"time"

	"github.com/sig-0/ris/storage/types"
)

// Storage is an abstraction over exchange rate snapshot history
type Storage interface {
	// SaveExchangeRate saves the given exchange rate data point
	SaveExchangeRate(context.Context, *types.ExchangeRate) error

	// RateAsOf fetches the latest rate per (base, target, source, type), as of the given time
	RateAsOf(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)

	// RateHistory fetches the matching data points, newest first
	RateHistory(context.Context, *types.RateQuery) (*types.Page[*types.ExchangeRate], error)

	// ListSources lists all present sources for fx rates
	ListSources(context.Context) ([]types.Source, error)

	// ListCurrencies lists all currencies present
	ListCurrencies(context.Context) ([]types.Currency, error)
}
