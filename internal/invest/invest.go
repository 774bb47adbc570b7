// Package invest - простые инвестиционные расчёты поверх рядов из market.Cache.
package invest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
)

// DefaultAnnualRate - годовая доходность, если рыночных данных нет.
const DefaultAnnualRate = 0.07

// SeriesGetter - источник рядов (market.Cache).
type SeriesGetter interface {
	GetSeries(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error)
}

// CAGR считает среднегодовой темп роста по adjusted close между первой и последней точкой.
func CAGR(ts model.TimeSeries) (float64, error) {
	if len(ts.Points) < 2 {
		return 0, fmt.Errorf("%w: need at least two points, got %d", errs.ErrInvalidArgument, len(ts.Points))
	}
	first, last := ts.Points[0], ts.Points[len(ts.Points)-1]
	start, err := time.Parse(time.DateOnly, first.Date)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	end, err := time.Parse(time.DateOnly, last.Date)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 {
		return 0, fmt.Errorf("%w: series spans no time", errs.ErrInvalidArgument)
	}
	if !first.AdjustedClose.IsPositive() {
		return 0, fmt.Errorf("%w: non-positive starting price", errs.ErrInvalidArgument)
	}
	ratio := last.AdjustedClose.Div(first.AdjustedClose).InexactFloat64()
	return math.Pow(ratio, 1/years) - 1, nil
}

// FutureValue = principal * (1 + rate)^years, округлено до центов.
func FutureValue(principal decimal.Decimal, rate, years float64) decimal.Decimal {
	growth := decimal.NewFromFloat(math.Pow(1+rate, years))
	return principal.Mul(growth).Round(2)
}

// Projection - результат прогноза.
type Projection struct {
	Symbol    string          `json:"symbol"`
	Principal decimal.Decimal `json:"principal"`
	Years     float64         `json:"years"`
	Rate      float64         `json:"rate"`
	Value     decimal.Decimal `json:"value"`
	Estimated bool            `json:"estimated"` // true - использована ставка по умолчанию
}

// Projector строит прогноз по историческому CAGR символа.
type Projector struct {
	series       SeriesGetter
	fallbackRate float64
	logger       *zap.SugaredLogger
}

func NewProjector(series SeriesGetter, fallbackRate float64, logger *zap.SugaredLogger) *Projector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Projector{series: series, fallbackRate: fallbackRate, logger: logger}
}

// ProjectWithFallback использует месячный ряд символа; при ErrMarketData или
// недостатке точек берёт fallbackRate. Ошибки хранилища возвращаются как есть.
func (p *Projector) ProjectWithFallback(ctx context.Context, symbol string, principal decimal.Decimal, years float64) (Projection, error) {
	if years < 0 {
		return Projection{}, fmt.Errorf("%w: years must be non-negative", errs.ErrInvalidArgument)
	}
	out := Projection{Symbol: symbol, Principal: principal, Years: years, Rate: p.fallbackRate, Estimated: true}

	ts, err := p.series.GetSeries(ctx, symbol, model.Monthly)
	switch {
	case err == nil:
		rate, cerr := CAGR(ts)
		if cerr == nil {
			out.Rate, out.Estimated = rate, false
		} else {
			p.logger.Warnw("cannot derive rate from series, using fallback", "symbol", symbol, "error", cerr)
		}
	case errors.Is(err, errs.ErrMarketData):
		p.logger.Warnw("market data unavailable, using fallback rate", "symbol", symbol, "error", err)
	default:
		return Projection{}, err
	}
	out.Value = FutureValue(principal, out.Rate, years)
	return out, nil
}
