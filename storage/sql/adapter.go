package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sig-0/ris/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// DBTX is the subset of pgx shared by connections, pools and transactions
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

const saveExchangeRate = `
INSERT INTO exchange_rates (base, target, rate, rate_type, source, as_of, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (base, target, source, rate_type, as_of)
    DO UPDATE SET rate       = EXCLUDED.rate,
                  fetched_at = EXCLUDED.fetched_at
`

const rateAsOf = `
WITH latest AS (SELECT DISTINCT ON (base, target, source, rate_type)
                    base, target, rate, rate_type, source, as_of, fetched_at
                FROM exchange_rates
                WHERE ($1::text IS NULL OR base = $1)
                  AND ($2::text IS NULL OR target = $2)
                  AND ($3::text IS NULL OR source = $3)
                  AND ($4::text IS NULL OR rate_type = $4)
                  AND as_of <= $5
                ORDER BY base, target, source, rate_type, as_of DESC, fetched_at DESC)
SELECT base, target, rate, rate_type, source, as_of, fetched_at, COUNT(*) OVER () AS total
FROM latest
ORDER BY base, target, source, rate_type
LIMIT $6 OFFSET $7
`

const rateHistory = `
SELECT base, target, rate, rate_type, source, as_of, fetched_at, COUNT(*) OVER () AS total
FROM exchange_rates
WHERE ($1::text IS NULL OR base = $1)
  AND ($2::text IS NULL OR target = $2)
  AND ($3::text IS NULL OR source = $3)
  AND ($4::text IS NULL OR rate_type = $4)
ORDER BY as_of DESC, base, target
LIMIT $5 OFFSET $6
`

const listSources = `
SELECT DISTINCT source
FROM exchange_rates
ORDER BY source
`

const listCurrencies = `
SELECT code
FROM (SELECT base AS code FROM exchange_rates
      UNION
      SELECT target AS code FROM exchange_rates) AS codes
ORDER BY code
`

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveExchangeRate(
	ctx context.Context,
	rate *types.ExchangeRate,
) error {
	_, err := s.db.Exec(
		ctx,
		saveExchangeRate,
		rate.Base.String(),
		rate.Target.String(),
		decimalToNumeric(rate.Rate),
		rate.RateType.String(),
		rate.Source.String(),
		timeToTimestampz(rate.AsOf),
		timeToTimestampz(rate.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save exchange rate: %w", err)
	}

	return nil
}

func (s *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	t time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	limit, offset := pageBounds(query)

	rows, err := s.db.Query(
		ctx,
		rateAsOf,
		optional(query.Base),
		optional(query.Target),
		optional(query.Source),
		optional(query.RateType),
		timeToTimestampz(t),
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	page, err := collectPage(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	return page, nil
}

func (s *Storage) RateHistory(
	ctx context.Context,
	query *types.RateQuery,
) (*types.Page[*types.ExchangeRate], error) {
	limit, offset := pageBounds(query)

	rows, err := s.db.Query(
		ctx,
		rateHistory,
		optional(query.Base),
		optional(query.Target),
		optional(query.Source),
		optional(query.RateType),
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate history: %w", err)
	}

	page, err := collectPage(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate history: %w", err)
	}

	return page, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	rows, err := s.db.Query(ctx, listSources)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	out := make([]types.Source, 0, len(results))

	for _, src := range results {
		out = append(out, types.Source(src))
	}

	return out, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	rows, err := s.db.Query(ctx, listCurrencies)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	out := make([]types.Currency, 0, len(results))

	for _, code := range results {
		out = append(out, types.Currency(code))
	}

	return out, nil
}

// exchangeRateRow is a single exchange_rates row, with the window total
type exchangeRateRow struct {
	Base      string
	Target    string
	Rate      pgtype.Numeric
	RateType  string
	Source    string
	AsOf      pgtype.Timestamptz
	FetchedAt pgtype.Timestamptz
	Total     int64
}

// collectPage scans the page rows into the common Go type
func collectPage(rows pgx.Rows) (*types.Page[*types.ExchangeRate], error) {
	results, err := pgx.CollectRows(rows, pgx.RowToStructByPos[exchangeRateRow])
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   0,
		}, nil // valid case
	}

	items := make([]*types.ExchangeRate, 0, len(results))

	for _, row := range results {
		if rate := parseExchangeRate(row); rate != nil {
			items = append(items, rate)
		}
	}

	return &types.Page[*types.ExchangeRate]{
		Results: items,
		Total:   results[0].Total,
	}, nil
}

// parseExchangeRate parses the postgres exchange rate to the common Go type
func parseExchangeRate(row exchangeRateRow) *types.ExchangeRate {
	if !row.Rate.Valid || row.Rate.Int == nil {
		return nil
	}

	return &types.ExchangeRate{
		Base:      types.Currency(row.Base),
		Target:    types.Currency(row.Target),
		Rate:      numericToDecimal(row.Rate),
		RateType:  types.RateType(row.RateType),
		Source:    types.Source(row.Source),
		AsOf:      timestampzToTime(row.AsOf),
		FetchedAt: timestampzToTime(row.FetchedAt),
	}
}

// pageBounds clamps the query's limit and offset
func pageBounds(query *types.RateQuery) (int32, int64) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// optional converts an optional filter to a nullable text param
func optional[T ~string](v *T) *string {
	if v == nil {
		return nil
	}

	s := string(*v)

	return &s
}

// decimalToNumeric converts the decimal value to postgres numeric, without loss
func decimalToNumeric(value decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   value.Coefficient(),
		Exp:   value.Exponent(),
		Valid: true,
	}
}

// numericToDecimal converts the postgres value to decimal
func numericToDecimal(value pgtype.Numeric) decimal.Decimal {
	return decimal.NewFromBigInt(value.Int, value.Exp)
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time
}
