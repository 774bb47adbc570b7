package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity - шаг временного ряда.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity разбирает строку без учёта регистра.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (expected daily|weekly|monthly)", s)
	}
}

// OHLCV - одна точка ряда.
type OHLCV struct {
	Date          string          `json:"date"` // YYYY-MM-DD
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
	Volume        int64           `json:"volume"`
}

// TimeSeries - ряд по символу, отсортированный по дате по возрастанию.
type TimeSeries struct {
	Symbol      string      `json:"symbol"`
	Granularity Granularity `json:"granularity"`
	Points      []OHLCV     `json:"points"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// CacheEntry - запись кеша рыночных данных. Свежая, пока now < ExpiresAt.
type CacheEntry struct {
	Symbol      string
	Granularity Granularity
	Payload     string
	ExpiresAt   time.Time
}

// Fresh сообщает, можно ли обслужить запрос из записи без сети.
func (e CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
