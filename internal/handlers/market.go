package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
)

// SeriesGetter - источник рядов для API (кеш рыночных данных).
type SeriesGetter interface {
	GetSeries(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error)
}

type MarketHandler struct {
	series SeriesGetter
	logger *zap.SugaredLogger
}

func NewMarketHandler(series SeriesGetter, logger *zap.SugaredLogger) *MarketHandler {
	return &MarketHandler{series: series, logger: logger}
}

// Series отдаёт ряд по символу; ошибки поставщика - 502.
func (h *MarketHandler) Series(w http.ResponseWriter, r *http.Request) {
	g, err := model.ParseGranularity(chi.URLParam(r, "granularity"))
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err))
		return
	}
	ts, err := h.series.GetSeries(r.Context(), chi.URLParam(r, "symbol"), g)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}
