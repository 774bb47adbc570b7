package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
)

// Source - поставщик исторических рядов.
type Source interface {
	Fetch(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error)
}

// HTTPSource получает ряды по HTTP GET в формате «ряд, индексированный датой»:
//
//	{"Monthly Adjusted Time Series": {"2024-01-31": {"1. open": "...", "5. adjusted close": "...", ...}}}
type HTTPSource struct {
	client  *http.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewHTTPSource(client *http.Client, baseURL, apiKey string) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, now: time.Now}
}

var seriesFunction = map[model.Granularity]string{
	model.Daily:   "TIME_SERIES_DAILY_ADJUSTED",
	model.Weekly:  "TIME_SERIES_WEEKLY_ADJUSTED",
	model.Monthly: "TIME_SERIES_MONTHLY_ADJUSTED",
}

func (s *HTTPSource) Fetch(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error) {
	fn, ok := seriesFunction[g]
	if !ok {
		return model.TimeSeries{}, fmt.Errorf("%w: unsupported granularity %q", errs.ErrMarketData, g)
	}
	q := url.Values{}
	q.Set("function", fn)
	q.Set("symbol", symbol)
	if s.apiKey != "" {
		q.Set("apikey", s.apiKey)
	}
	addr := s.baseURL + "/query?" + q.Encode()

	var body map[string]json.RawMessage
	if err := jwget(ctx, s.client, addr, &body); err != nil {
		return model.TimeSeries{}, fmt.Errorf("%w: %s %s: %w", errs.ErrMarketData, symbol, g, err)
	}
	points, err := parseSeries(body)
	if err != nil {
		return model.TimeSeries{}, fmt.Errorf("%w: %s %s: %w", errs.ErrMarketData, symbol, g, err)
	}
	return model.TimeSeries{Symbol: symbol, Granularity: g, Points: points, FetchedAt: s.now().UTC()}, nil
}

// parseSeries находит объект ряда и переводит точки в OHLCV, отсортированные по дате.
func parseSeries(body map[string]json.RawMessage) ([]model.OHLCV, error) {
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := body[k]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return nil, fmt.Errorf("provider: %s", msg)
		}
	}
	var series map[string]map[string]string
	for k, raw := range body {
		if !strings.Contains(k, "Time Series") {
			continue
		}
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, fmt.Errorf("decode %q: %w", k, err)
		}
		break
	}
	if series == nil {
		return nil, fmt.Errorf("no time series in response")
	}

	points := make([]model.OHLCV, 0, len(series))
	for date, fields := range series {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("bad date %q: %w", date, err)
		}
		p, err := parsePoint(date, fields)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

func parsePoint(date string, fields map[string]string) (model.OHLCV, error) {
	// ключи вида "1. open"; номер отбрасываем
	byName := make(map[string]string, len(fields))
	for k, v := range fields {
		if _, name, ok := strings.Cut(k, ". "); ok {
			k = name
		}
		byName[k] = v
	}
	p := model.OHLCV{Date: date}
	dec := func(name string, dst *decimal.Decimal) error {
		v, ok := byName[name]
		if !ok {
			return fmt.Errorf("%s: missing %q", date, name)
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", date, name, err)
		}
		*dst = d
		return nil
	}
	for name, dst := range map[string]*decimal.Decimal{
		"open": &p.Open, "high": &p.High, "low": &p.Low, "close": &p.Close,
	} {
		if err := dec(name, dst); err != nil {
			return model.OHLCV{}, err
		}
	}
	if _, ok := byName["adjusted close"]; ok {
		if err := dec("adjusted close", &p.AdjustedClose); err != nil {
			return model.OHLCV{}, err
		}
	} else {
		p.AdjustedClose = p.Close
	}
	if v, ok := byName["volume"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("%s: volume: %w", date, err)
		}
		p.Volume = n
	}
	return p, nil
}

// jwget - GET JSON с разбором тела в data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
