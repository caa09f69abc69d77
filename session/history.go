package session

import (
	"time"

	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/storage/types"
)

// tablePairs maps every rate direction onto its stored currency pair
var tablePairs = []struct {
	direction rates.Direction
	pair      types.Pair
}{
	{rates.RisToVes, types.Pair{Base: types.CurrencyRIS, Target: types.CurrencyVES}},
	{rates.VesToRis, types.Pair{Base: types.CurrencyVES, Target: types.CurrencyRIS}},
	{rates.RisToBrl, types.Pair{Base: types.CurrencyRIS, Target: types.CurrencyBRL}},
}

// TableRates splits the table into storable data points, one per direction
func TableRates(table rates.Table, fetchedAt time.Time) []*types.ExchangeRate {
	out := make([]*types.ExchangeRate, 0, len(tablePairs))

	for _, p := range tablePairs {
		rate, err := table.Rate(p.direction)
		if err != nil {
			continue
		}

		out = append(out, &types.ExchangeRate{
			AsOf:      fetchedAt.UTC(),
			FetchedAt: fetchedAt.UTC(),
			Base:      p.pair.Base,
			Target:    p.pair.Target,
			RateType:  types.RateTypeMID,
			Source:    types.SourceRIS,
			Rate:      rate,
		})
	}

	return out
}

// TableFromRates rebuilds a table from recorded data points.
// The bool is false unless every direction is present and valid.
// The returned time is the oldest of the three data points
func TableFromRates(recorded []*types.ExchangeRate) (rates.Table, time.Time, bool) {
	var (
		values    = make(map[rates.Direction]*types.ExchangeRate, len(tablePairs))
		fetchedAt time.Time
	)

	for _, r := range recorded {
		if r == nil || r.Source != types.SourceRIS {
			continue
		}

		for _, p := range tablePairs {
			if r.Base != p.pair.Base || r.Target != p.pair.Target {
				continue
			}

			if cur, ok := values[p.direction]; !ok || r.AsOf.After(cur.AsOf) {
				values[p.direction] = r
			}
		}
	}

	if len(values) != len(tablePairs) {
		return rates.Table{}, time.Time{}, false
	}

	for _, r := range values {
		if fetchedAt.IsZero() || r.FetchedAt.Before(fetchedAt) {
			fetchedAt = r.FetchedAt
		}
	}

	table, err := rates.NewTable(
		values[rates.RisToVes].Rate,
		values[rates.VesToRis].Rate,
		values[rates.RisToBrl].Rate,
	)
	if err != nil {
		return rates.Table{}, time.Time{}, false
	}

	return table, fetchedAt, true
}
