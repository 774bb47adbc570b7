package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/handlers"
	"ReceiptKeeper/internal/model"
)

func marketRouter(m *mockSeries) chi.Router {
	mh := handlers.NewMarketHandler(m, zap.NewNop().Sugar())
	r := chi.NewRouter()
	r.Get("/api/market/{symbol}/{granularity}", mh.Series)
	return r
}

func TestMarket_Series(t *testing.T) {
	m := new(mockSeries)
	m.On("GetSeries", mock.Anything, "spy", model.Monthly).Return(model.TimeSeries{
		Symbol:      "SPY",
		Granularity: model.Monthly,
		Points:      []model.OHLCV{{Date: "2024-01-31", AdjustedClose: decimal.RequireFromString("480")}},
	}, nil)

	rec := httptest.NewRecorder()
	marketRouter(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/spy/Monthly", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts := decode[model.TimeSeries](t, rec)
	assert.Equal(t, "SPY", ts.Symbol)
	require.Len(t, ts.Points, 1)
	assert.Equal(t, "480", ts.Points[0].AdjustedClose.String())
	m.AssertExpectations(t)
}

func TestMarket_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"provider", fmt.Errorf("%w: rate limited", errs.ErrMarketData), http.StatusBadGateway},
		{"argument", fmt.Errorf("%w: empty symbol", errs.ErrInvalidArgument), http.StatusBadRequest},
		{"storage", errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := new(mockSeries)
			m.On("GetSeries", mock.Anything, "SPY", model.Daily).Return(model.TimeSeries{}, tc.err)
			rec := httptest.NewRecorder()
			marketRouter(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/SPY/daily", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMarket_BadGranularity(t *testing.T) {
	m := new(mockSeries)
	rec := httptest.NewRecorder()
	marketRouter(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/SPY/hourly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.AssertNotCalled(t, "GetSeries", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarket_ProviderNoteThroughAPI(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note":"API call frequency exceeded"}`))
	}))
	defer provider.Close()

	a := newAPI(t, provider.URL)
	rec := a.do(t, http.MethodGet, "/api/market/SPY/monthly", "u1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
