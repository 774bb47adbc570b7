// Package market - кеш исторических рыночных рядов с фиксированным TTL поверх RecordStore.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
	"ReceiptKeeper/internal/recordstore"
)

// DefaultTTL - срок свежести записи кеша.
const DefaultTTL = 24 * time.Hour

// Cache обслуживает ряды из market_cache, пока запись свежая, иначе идёт в Source.
// Устаревшие данные при ошибке сети не возвращаются.
type Cache struct {
	store  recordstore.Executor
	source Source
	bus    *changebus.Bus
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewCache(store recordstore.Executor, source Source, bus *changebus.Bus, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{store: store, source: source, bus: bus, ttl: ttl, now: time.Now, logger: logger}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// GetSeries возвращает ряд из кеша или загружает его и перезаписывает запись.
func (c *Cache) GetSeries(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return model.TimeSeries{}, fmt.Errorf("%w: symbol is required", errs.ErrInvalidArgument)
	}

	entry, ok, err := c.lookup(ctx, symbol, g)
	if err != nil {
		return model.TimeSeries{}, err
	}
	if ok && entry.Fresh(c.now()) {
		var ts model.TimeSeries
		uerr := json.Unmarshal([]byte(entry.Payload), &ts)
		if uerr == nil {
			return ts, nil
		}
		c.logger.Warnw("corrupted market cache entry, refetching", "symbol", symbol, "granularity", g, "error", uerr)
	}

	ts, err := c.source.Fetch(ctx, symbol, g)
	if err != nil {
		if !errors.Is(err, errs.ErrMarketData) {
			err = fmt.Errorf("%w: %w", errs.ErrMarketData, err)
		}
		c.logger.Warnw("market data fetch failed", "symbol", symbol, "granularity", g, "error", err)
		return model.TimeSeries{}, err
	}
	if err := c.put(ctx, symbol, g, ts); err != nil {
		return model.TimeSeries{}, err
	}
	c.logger.Infow("market data refreshed", "symbol", symbol, "granularity", g, "points", len(ts.Points))
	changebus.Emit(c.bus, changebus.HistoricalDataUpdatedTopic, changebus.HistoricalDataUpdated{
		Symbol: symbol, Granularity: string(g), Points: len(ts.Points),
	})
	return ts, nil
}

func (c *Cache) lookup(ctx context.Context, symbol string, g model.Granularity) (model.CacheEntry, bool, error) {
	rows, err := c.store.ExecuteQuery(ctx,
		"SELECT payload, expires_at FROM market_cache WHERE symbol = ? AND granularity = ?", symbol, string(g))
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("market cache lookup %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return model.CacheEntry{}, false, nil
	}
	return model.CacheEntry{
		Symbol:      symbol,
		Granularity: g,
		Payload:     rows[0].String("payload"),
		ExpiresAt:   rows[0].Time("expires_at"),
	}, true, nil
}

// put заменяет запись (symbol, granularity) целиком.
func (c *Cache) put(ctx context.Context, symbol string, g model.Granularity, ts model.TimeSeries) error {
	payload, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode series %s: %w", symbol, err)
	}
	now := c.now()
	_, err = c.store.ExecuteNonQuery(ctx,
		`INSERT INTO market_cache (symbol, granularity, payload, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, granularity) DO UPDATE SET
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at`,
		symbol, string(g), string(payload), recordstore.Millis(now), recordstore.Millis(now.Add(c.ttl)))
	if err != nil {
		return fmt.Errorf("market cache store %s: %w", symbol, err)
	}
	return nil
}

// Invalidate удаляет запись, следующий GetSeries пойдёт в сеть.
func (c *Cache) Invalidate(ctx context.Context, symbol string, g model.Granularity) error {
	_, err := c.store.ExecuteNonQuery(ctx,
		"DELETE FROM market_cache WHERE symbol = ? AND granularity = ?", normalizeSymbol(symbol), string(g))
	if err != nil {
		return fmt.Errorf("market cache invalidate %s: %w", symbol, err)
	}
	return nil
}
