package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sig-0/ris/eligibility"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errUnableToFetchRates      = errors.New("unable to fetch rates")
	errUnableToFetchSources    = errors.New("unable to fetch sources")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errHistoryUnavailable      = errors.New("rate history is not available")
	errReferenceUnavailable = errors.New("reference rate is not available yet")

	errInvalidLimit     = errors.New("invalid limit")
	errInvalidOffset    = errors.New("invalid offset")
	errInvalidType      = errors.New("invalid type")
	errInvalidCurrency  = errors.New("invalid currency (must be 3 letters A-Z)")
	errMissingDirection = errors.New("missing direction")
	errInvalidDriven    = errors.New("invalid driven field (must be input or output)")
	errInvalidAction    = errors.New("invalid action (must be recharge or send)")
)

// Rates returns the current rate table
func (s *Server) Rates(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.svc.State().Rates()
	if !ok {
		s.writeFailure(w, session.ErrNoRates)

		return
	}

	writeJSON(w, http.StatusOK, &RatesResponse{
		RatesSnapshot: snapshot,
		Reference:     s.svc.State().Reference(),
	})
}

// RefreshRates fetches the rate table on the user's request.
// On failure the previous table stays current
func (s *Server) RefreshRates(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.svc.RefreshRates(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, &RatesResponse{
		RatesSnapshot: snapshot,
		Reference:     s.svc.State().Reference(),
	})
}

// Reference returns the official reference rate
func (s *Server) Reference(w http.ResponseWriter, _ *http.Request) {
	reference := s.svc.State().Reference()
	if reference == nil {
		writeError(w, http.StatusServiceUnavailable, errReferenceUnavailable)

		return
	}

	writeJSON(w, http.StatusOK, reference)
}

// RateHistory returns the recorded rates, newest first
func (s *Server) RateHistory(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryUnavailable)

		return
	}

	var (
		query = r.URL.Query()

		limitParam  = query.Get("limit")
		offsetParam = query.Get("offset")

		sourceParam = query.Get("source")
		typeParam   = query.Get("type")
	)

	// Parse the base and target currencies (optional)
	base, err := parseOptionalCurrency(query.Get("base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	target, err := parseOptionalCurrency(query.Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the source and rate type (optional)
	source, rateType, err := parseSourceAndType(sourceParam, typeParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := &types.RateQuery{
		Base:     base,
		Target:   target,
		Source:   source,
		RateType: rateType,
		Limit:    limit,
		Offset:   offset,
	}

	page, err := s.storage.RateHistory(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rate history",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Sources lists the recorded rate sources
func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryUnavailable)

		return
	}

	items, err := s.storage.ListSources(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch sources",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchSources,
		)

		return
	}

	resp := &SourcesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

// Currencies lists the currencies present in the rate history
func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryUnavailable)

		return
	}

	items, err := s.storage.ListCurrencies(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch currencies",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchCurrencies,
		)

		return
	}

	resp := &CurrenciesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

// Convert recomputes the paired amount from the field the user edited
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var (
		query = r.URL.Query()

		directionParam = strings.TrimSpace(query.Get("direction"))
		drivenParam    = query.Get("driven")
		amountParam    = query.Get("amount")
	)

	if directionParam == "" {
		writeError(w, http.StatusBadRequest, errMissingDirection)

		return
	}

	direction, err := rates.ParseDirection(directionParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	driven, ok := rates.ParseField(drivenParam)
	if !ok {
		writeError(w, http.StatusBadRequest, errInvalidDriven)

		return
	}

	pair, err := s.svc.Convert(amountParam, direction, driven)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, &ConvertResponse{
		Direction: direction.String(),
		Driven:    driven.String(),
		Input:     pair.Input,
		Output:    pair.Output,
	})
}

// Eligibility checks whether the user may start a monetary action
func (s *Server) Eligibility(w http.ResponseWriter, r *http.Request) {
	action, ok := eligibility.ParseAction(strings.TrimSpace(r.URL.Query().Get("action")))
	if !ok {
		writeError(w, http.StatusBadRequest, errInvalidAction)

		return
	}

	var (
		status   = s.svc.State().Status()
		decision = eligibility.CheckAction(status, action)
	)

	writeJSON(w, http.StatusOK, &EligibilityResponse{
		Action:   string(action),
		Status:   status.String(),
		Allowed:  decision.Allowed,
		Redirect: decision.Redirect,
		Prompt:   decision.Prompt,
	})
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseSourceAndType(sourceRaw, typeRaw string) (*types.Source, *types.RateType, error) {
	var src *types.Source

	if v := strings.TrimSpace(sourceRaw); v != "" {
		s := types.Source(strings.ToUpper(v))

		src = &s
	}

	var rt *types.RateType

	if v := strings.TrimSpace(typeRaw); v != "" {
		t := types.RateType(strings.ToUpper(v))

		switch t {
		case types.RateTypeMID, types.RateTypeBUY, types.RateTypeSELL:
			rt = &t
		default:
			return nil, nil, errInvalidType
		}
	}

	return src, rt, nil
}

func parseOptionalCurrency(v string) (*types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if s == "" {
		return nil, nil
	}

	if len(s) != 3 {
		return nil, errInvalidCurrency
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return nil, errInvalidCurrency
		}
	}

	c := types.Currency(s)

	return &c, nil
}
