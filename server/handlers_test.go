package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/eligibility"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/server/config"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage"
	"github.com/sig-0/ris/storage/mock"
	"github.com/sig-0/ris/storage/types"
)

func referenceTable(t *testing.T) rates.Table {
	t.Helper()

	table, err := rates.NewTable(
		decimal.NewFromInt(92),
		decimal.NewFromInt(102),
		decimal.NewFromInt(1),
	)
	require.NoError(t, err)

	return table
}

// newTestServer builds a server over a fresh state, with no screens
func newTestServer(t *testing.T, backend session.Backend, store *mock.Storage) (*Server, *session.State) {
	t.Helper()

	var (
		state   = session.NewState()
		history storage.Storage
		svcOpts []session.Option
	)

	if store != nil {
		history = store

		svcOpts = append(svcOpts, session.WithStorage(store))
	}

	s, err := New(session.NewService(backend, state, svcOpts...), nil, history)
	require.NoError(t, err)

	return s, state
}

func serve(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T

	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))

	return out
}

func TestServer_New(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.ListenAddress = "nope"

		_, err := New(session.NewService(&mockBackend{}, session.NewState()), nil, nil, WithConfig(cfg))
		assert.Error(t, err)
	})

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("openapi", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/openapi.yaml", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "RIS wallet API")
	})
}

func TestHandlers_Rates(t *testing.T) {
	t.Parallel()

	t.Run("no rates yet", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/v1/rates", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("current table", func(t *testing.T) {
		t.Parallel()

		var (
			s, state  = newTestServer(t, &mockBackend{}, nil)
			fetchedAt = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
		)

		state.SetRates(referenceTable(t), fetchedAt)

		w := serve(t, s, http.MethodGet, "/v1/rates", "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[RatesResponse](t, w)

		assert.True(t, resp.Table.Equal(referenceTable(t)))
		assert.True(t, fetchedAt.Equal(resp.FetchedAt))
		assert.Nil(t, resp.Reference)
	})
}

func TestHandlers_RefreshRates(t *testing.T) {
	t.Parallel()

	t.Run("failure keeps the table", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			fetchRatesFn: func(context.Context) (rates.Table, error) {
				return rates.Table{}, client.ErrNetwork
			},
		}

		s, state := newTestServer(t, backend, nil)
		state.SetRates(referenceTable(t), time.Now())

		w := serve(t, s, http.MethodPost, "/v1/rates/refresh", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)

		resp := decodeBody[ErrorResponse](t, w)
		assert.NotEmpty(t, resp.Error)

		snapshot, ok := state.Rates()
		require.True(t, ok)

		assert.True(t, snapshot.Table.Equal(referenceTable(t)))
	})

	t.Run("invalid table from the backend", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			fetchRatesFn: func(context.Context) (rates.Table, error) {
				return rates.Table{RisToVes: decimal.NewFromInt(1)}, nil
			},
		}

		s, _ := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodPost, "/v1/rates/refresh", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			fetchRatesFn: func(context.Context) (rates.Table, error) {
				return referenceTable(t), nil
			},
		}

		s, state := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodPost, "/v1/rates/refresh", "")
		require.Equal(t, http.StatusOK, w.Code)

		_, ok := state.Rates()
		assert.True(t, ok)
	})
}

func TestHandlers_RateHistory(t *testing.T) {
	t.Parallel()

	t.Run("no storage", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/v1/rates/history", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("invalid base", func(t *testing.T) {
		t.Parallel()

		var called bool

		storage := &mock.Storage{
			RateHistoryFn: func(context.Context, *types.RateQuery) (*types.Page[*types.ExchangeRate], error) {
				called = true

				return nil, nil
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/rates/history?base=R1S", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})

	t.Run("invalid type", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, &mock.Storage{})

		w := serve(t, s, http.MethodGet, "/v1/rates/history?type=AVG", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			RateHistoryFn: func(context.Context, *types.RateQuery) (*types.Page[*types.ExchangeRate], error) {
				return nil, errors.New("boom")
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/rates/history", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedQuery *types.RateQuery

		storage := &mock.Storage{
			RateHistoryFn: func(_ context.Context, query *types.RateQuery) (*types.Page[*types.ExchangeRate], error) {
				capturedQuery = query

				return &types.Page[*types.ExchangeRate]{
					Results: []*types.ExchangeRate{{
						Base:   types.CurrencyRIS,
						Target: types.CurrencyVES,
						Source: types.SourceRIS,
						Rate:   decimal.NewFromInt(92),
					}},
					Total: 1,
				}, nil
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(
			t,
			s,
			http.MethodGet,
			"/v1/rates/history?base=ris&target=VES&source=ris&type=mid&limit=1000&offset=5",
			"",
		)
		require.Equal(t, http.StatusOK, w.Code)

		page := decodeBody[types.Page[*types.ExchangeRate]](t, w)

		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(1), page.Total)

		require.NotNil(t, capturedQuery)
		require.NotNil(t, capturedQuery.Base)
		require.NotNil(t, capturedQuery.Target)
		require.NotNil(t, capturedQuery.Source)
		require.NotNil(t, capturedQuery.RateType)

		assert.Equal(t, types.CurrencyRIS, *capturedQuery.Base)
		assert.Equal(t, types.CurrencyVES, *capturedQuery.Target)
		assert.Equal(t, types.Source(types.SourceRIS), *capturedQuery.Source)
		assert.Equal(t, types.RateTypeMID, *capturedQuery.RateType)
		assert.Equal(t, maxLimit, capturedQuery.Limit)
		assert.Equal(t, int64(5), capturedQuery.Offset)
	})
}

func TestHandlers_Sources(t *testing.T) {
	t.Parallel()

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			ListSourcesFn: func(context.Context) ([]types.Source, error) {
				return nil, errors.New("boom")
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/sources", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			ListSourcesFn: func(context.Context) ([]types.Source, error) {
				return []types.Source{types.SourceBCV, types.SourceRIS}, nil
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/sources", "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[SourcesResponse](t, w)
		assert.Equal(t, []types.Source{types.SourceBCV, types.SourceRIS}, resp.Results)
	})
}

func TestHandlers_Currencies(t *testing.T) {
	t.Parallel()

	t.Run("no history", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/v1/currencies", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			ListCurrenciesFn: func(context.Context) ([]types.Currency, error) {
				return nil, errors.New("boom")
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/currencies", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		expected := []types.Currency{types.CurrencyBRL, types.CurrencyRIS, types.CurrencyVES}

		storage := &mock.Storage{
			ListCurrenciesFn: func(context.Context) ([]types.Currency, error) {
				return expected, nil
			},
		}

		s, _ := newTestServer(t, &mockBackend{}, storage)

		w := serve(t, s, http.MethodGet, "/v1/currencies", "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[CurrenciesResponse](t, w)
		assert.Equal(t, expected, resp.Results)
	})
}

func TestHandlers_Convert(t *testing.T) {
	t.Parallel()

	t.Run("no rates yet", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/v1/convert?direction=ris_to_ves&amount=10", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name   string
			target string
		}{
			{"missing direction", "/v1/convert?amount=10"},
			{"unknown direction", "/v1/convert?direction=usd_to_ves&amount=10"},
			{"unknown driven field", "/v1/convert?direction=ris_to_ves&driven=both&amount=10"},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				s, state := newTestServer(t, &mockBackend{}, nil)
				state.SetRates(referenceTable(t), time.Now())

				w := serve(t, s, http.MethodGet, testCase.target, "")
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("conversions", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name           string
			target         string
			expectedInput  string
			expectedOutput string
		}{
			{
				"ris to ves from input",
				"/v1/convert?direction=ris_to_ves&amount=10",
				"10",
				"920.00",
			},
			{
				"ves to ris from input",
				"/v1/convert?direction=ves_to_ris&amount=1000",
				"1000",
				"9.80",
			},
			{
				"ris to ves from output",
				"/v1/convert?direction=ris_to_ves&driven=output&amount=920",
				"10.00",
				"920",
			},
			{
				"garbage input is zero",
				"/v1/convert?direction=ris_to_brl&amount=abc",
				"abc",
				"0.00",
			},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				s, state := newTestServer(t, &mockBackend{}, nil)
				state.SetRates(referenceTable(t), time.Now())

				w := serve(t, s, http.MethodGet, testCase.target, "")
				require.Equal(t, http.StatusOK, w.Code)

				resp := decodeBody[ConvertResponse](t, w)

				assert.Equal(t, testCase.expectedInput, resp.Input)
				assert.Equal(t, testCase.expectedOutput, resp.Output)
			})
		}
	})
}

func TestHandlers_Eligibility(t *testing.T) {
	t.Parallel()

	t.Run("invalid action", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, &mockBackend{}, nil)

		w := serve(t, s, http.MethodGet, "/v1/eligibility?action=withdraw", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	testTable := []struct {
		status           eligibility.Status
		name             string
		expectedRedirect string
		expectedAllowed  bool
	}{
		{nil, "no profile", eligibility.RedirectVerification, false},
		{eligibility.Pending{}, "pending", eligibility.RedirectVerification, false},
		{eligibility.Rejected{Reason: "blurry"}, "rejected", eligibility.RedirectVerification, false},
		{eligibility.Verified{}, "verified", "", true},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			s, state := newTestServer(t, &mockBackend{}, nil)

			if testCase.status != nil {
				state.SetProfile(&client.Profile{Status: testCase.status})
			}

			w := serve(t, s, http.MethodGet, "/v1/eligibility?action=send", "")
			require.Equal(t, http.StatusOK, w.Code)

			resp := decodeBody[EligibilityResponse](t, w)

			assert.Equal(t, "send", resp.Action)
			assert.Equal(t, testCase.expectedAllowed, resp.Allowed)
			assert.Equal(t, testCase.expectedRedirect, resp.Redirect)

			if !testCase.expectedAllowed {
				assert.NotEmpty(t, resp.Prompt)
			}
		})
	}
}

func TestHandlers_Reference(t *testing.T) {
	t.Parallel()

	s, state := newTestServer(t, &mockBackend{}, nil)

	w := serve(t, s, http.MethodGet, "/v1/reference", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	state.SetReference(&types.ExchangeRate{
		Base:   types.CurrencyUSD,
		Target: types.CurrencyVES,
		Source: types.SourceBCV,
		Rate:   decimal.RequireFromString("36.7192"),
	})

	w = serve(t, s, http.MethodGet, "/v1/reference", "")
	require.Equal(t, http.StatusOK, w.Code)

	rate := decodeBody[types.ExchangeRate](t, w)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("36.7192")))
}

func TestHandlers_ParseLimitOffset(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		expectedErr    error
		name           string
		limit          string
		offset         string
		expectedLimit  int32
		expectedOffset int64
	}{
		{nil, "defaults", "", "", defaultLimit, 0},
		{nil, "zero limit", "0", "", defaultLimit, 0},
		{nil, "clamped limit", "9999", "3", maxLimit, 3},
		{errInvalidLimit, "negative limit", "-1", "", 0, 0},
		{errInvalidLimit, "garbage limit", "ten", "", 0, 0},
		{errInvalidOffset, "negative offset", "", "-5", 0, 0},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			limit, offset, err := parseLimitOffset(testCase.limit, testCase.offset)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)

				return
			}

			require.NoError(t, err)

			assert.Equal(t, testCase.expectedLimit, limit)
			assert.Equal(t, testCase.expectedOffset, offset)
		})
	}
}

func withRouteParams(t *testing.T, req *http.Request, params map[string]string) *http.Request {
	t.Helper()

	rctx := chi.NewRouteContext()

	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
