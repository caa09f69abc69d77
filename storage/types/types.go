package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyRIS Currency = "RIS"
	CurrencyVES Currency = "VES"
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
)

func (c Currency) String() string {
	return string(c)
}

type RateType string

const (
	RateTypeMID  RateType = "MID"
	RateTypeBUY  RateType = "BUY"
	RateTypeSELL RateType = "SELL"
)

func (r RateType) String() string {
	return string(r)
}

type Source string

const (
	SourceRIS = "RIS" // rates published by the RIS backend
	SourceBCV = "BCV" // https://www.bcv.org.ve/
)

func (s Source) String() string {
	return string(s)
}

// ExchangeRate is a single observed rate data point
type ExchangeRate struct {
	AsOf      time.Time       `json:"as_of"`
	FetchedAt time.Time       `json:"fetched_at"`
	Base      Currency        `json:"base"`
	Target    Currency        `json:"target"`
	RateType  RateType        `json:"rate_type"`
	Source    Source          `json:"source"`
	Rate      decimal.Decimal `json:"rate"`
}

type Pair struct {
	Base   Currency `json:"base"`
	Target Currency `json:"target"`
}

// RateQuery filters stored rates. Nil filters match everything
type RateQuery struct {
	Base     *Currency `json:"base"`
	Target   *Currency `json:"target"`
	RateType *RateType `json:"rate_type"`
	Source   *Source   `json:"source"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
