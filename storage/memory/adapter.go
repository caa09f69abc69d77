package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sig-0/ris/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type key struct {
	base, target, source, rateType string
	asOf                           int64 // unix nanos
}

type Storage struct {
	data map[key]types.ExchangeRate

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[key]types.ExchangeRate),
	}
}

func (s *Storage) SaveExchangeRate(_ context.Context, r *types.ExchangeRate) error {
	k := key{
		base:     r.Base.String(),
		target:   r.Target.String(),
		source:   r.Source.String(),
		rateType: r.RateType.String(),
		asOf:     r.AsOf.UTC().UnixNano(),
	}

	elem := *r
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	s.mu.Lock()
	s.data[k] = elem // key is unique
	s.mu.Unlock()

	return nil
}

// filter matches data points against the optional query filters
type filter struct {
	base, target, source, rateType         string
	hasBase, hasTarget, hasSource, hasType bool
}

func newFilter(query *types.RateQuery) filter {
	var f filter

	if query.Base != nil {
		f.base = query.Base.String()
		f.hasBase = true
	}

	if query.Target != nil {
		f.target = query.Target.String()
		f.hasTarget = true
	}

	if query.Source != nil {
		f.source = query.Source.String()
		f.hasSource = true
	}

	if query.RateType != nil {
		f.rateType = query.RateType.String()
		f.hasType = true
	}

	return f
}

func (f filter) matches(v types.ExchangeRate) bool {
	switch {
	case f.hasBase && v.Base.String() != f.base:
		return false
	case f.hasTarget && v.Target.String() != f.target:
		return false
	case f.hasSource && v.Source.String() != f.source:
		return false
	case f.hasType && v.RateType.String() != f.rateType:
		return false
	default:
		return true
	}
}

func (s *Storage) RateAsOf(
	_ context.Context,
	query *types.RateQuery,
	asOf time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	var (
		cutoff = asOf.UTC()
		f      = newFilter(query)
	)

	type bucket struct {
		base, target, source, rateType string
	}

	s.mu.RLock()

	bestByBucket := make(map[bucket]types.ExchangeRate)

	for _, v := range s.data {
		if !f.matches(v) || v.AsOf.After(cutoff) {
			continue
		}

		b := bucket{
			base:     v.Base.String(),
			target:   v.Target.String(),
			source:   v.Source.String(),
			rateType: v.RateType.String(),
		}

		cur, ok := bestByBucket[b]
		if !ok ||
			v.AsOf.After(cur.AsOf) ||
			(v.AsOf.Equal(cur.AsOf) && v.FetchedAt.After(cur.FetchedAt)) {
			bestByBucket[b] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.ExchangeRate, 0, len(bestByBucket))
	for _, v := range bestByBucket {
		cp := v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Base != out[j].Base {
			return out[i].Base.String() < out[j].Base.String()
		}

		if out[i].Target != out[j].Target {
			return out[i].Target.String() < out[j].Target.String()
		}

		if out[i].Source != out[j].Source {
			return out[i].Source.String() < out[j].Source.String()
		}

		return out[i].RateType.String() < out[j].RateType.String()
	})

	return paginate(out, query), nil
}

func (s *Storage) RateHistory(
	_ context.Context,
	query *types.RateQuery,
) (*types.Page[*types.ExchangeRate], error) {
	f := newFilter(query)

	s.mu.RLock()

	out := make([]*types.ExchangeRate, 0)

	for _, v := range s.data {
		if !f.matches(v) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	// Newest first
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AsOf.Equal(out[j].AsOf) {
			return out[i].AsOf.After(out[j].AsOf)
		}

		if out[i].Base != out[j].Base {
			return out[i].Base.String() < out[j].Base.String()
		}

		return out[i].Target.String() < out[j].Target.String()
	})

	return paginate(out, query), nil
}

// paginate applies the query's limit and offset to the sorted results
func paginate(
	out []*types.ExchangeRate,
	query *types.RateQuery,
) *types.Page[*types.ExchangeRate] {
	total := int64(len(out))
	if total == 0 {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   0,
		}
	}

	lim := query.Limit
	if lim <= 0 {
		lim = defaultLimit
	}

	if lim > maxLimit {
		lim = maxLimit
	}

	off := query.Offset
	if off < 0 {
		off = 0
	}

	if off >= total {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   total,
		}
	}

	start := int(off)
	end := start + int(lim)

	if end > len(out) {
		end = len(out)
	}

	return &types.Page[*types.ExchangeRate]{
		Results: out[start:end],
		Total:   total,
	}
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.source] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Source, 0, len(seen))

	for v := range seen {
		out = append(out, types.Source(v))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out, nil
}

func (s *Storage) ListCurrencies(_ context.Context) ([]types.Currency, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.base] = struct{}{}
		seen[k.target] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Currency, 0, len(seen))

	for v := range seen {
		out = append(out, types.Currency(v))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out, nil
}
