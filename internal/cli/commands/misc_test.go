package commands

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestUserAndSettingsCommands(t *testing.T) {
	cfg := tempConfig(t)

	code, out := run(t, cfg, "user-upsert", "uid-1", "a@example.com", "Alice", "A.")
	if code != 0 || !strings.Contains(out, "id=1 uid=uid-1") {
		t.Fatalf("user-upsert: %d %s", code, out)
	}
	code, out = run(t, cfg, "user-upsert", "uid-1", "a@example.com")
	if code != 0 || !strings.Contains(out, "id=1") {
		t.Fatalf("repeated upsert must keep id: %d %s", code, out)
	}
	if code, _ := run(t, cfg, "user-upsert", "uid-2", "a@example.com"); code != 1 {
		t.Fatalf("email owned by another uid must fail, got %d", code)
	}

	_, out = run(t, cfg, "settings")
	if !strings.Contains(out, "theme:         system") || !strings.Contains(out, "notifications: true") {
		t.Fatalf("defaults expected: %s", out)
	}
	if code, _ := run(t, cfg, "settings-set", "theme=dark", "notifications=off"); code != 0 {
		t.Fatalf("settings-set failed")
	}
	_, out = run(t, cfg, "settings")
	if !strings.Contains(out, "theme:         dark") || !strings.Contains(out, "notifications: false") {
		t.Fatalf("saved settings expected: %s", out)
	}
	if code, _ := run(t, cfg, "settings-set", "notifications=maybe"); code != 2 {
		t.Fatalf("bad value must be usage error")
	}
}

func TestPinCommands(t *testing.T) {
	cfg := tempConfig(t)
	if code, _ := run(t, cfg, "pin-set", "1234"); code != 0 {
		t.Fatalf("pin-set failed")
	}
	if code, out := run(t, cfg, "pin-verify", "1234"); code != 0 || !strings.Contains(out, "PIN: ok") {
		t.Fatalf("pin-verify: %d %s", code, out)
	}
	if code, out := run(t, cfg, "pin-verify", "0000"); code != 1 || !strings.Contains(out, "PIN: wrong") {
		t.Fatalf("wrong pin must fail: %d %s", code, out)
	}
}

const monthlyBody = `{"Monthly Adjusted Time Series": {
  "2020-01-31": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "100", "5. adjusted close": "100", "6. volume": "5"},
  "2022-01-31": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "121", "5. adjusted close": "121", "6. volume": "7"}
}}`

func TestMarketAndProjectCommands(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(monthlyBody))
	}))
	defer srv.Close()

	cfg := tempConfig(t)
	cfg.MarketBaseURL = srv.URL

	code, out := run(t, cfg, "market", "spy")
	if code != 0 || !strings.Contains(out, "SPY monthly: 2 points") || !strings.Contains(out, "2022-01-31 close=121") {
		t.Fatalf("market: %d %s", code, out)
	}
	code, out = run(t, cfg, "project", "SPY", "1000", "1")
	if code != 0 || !strings.Contains(out, "(historical)") {
		t.Fatalf("project: %d %s", code, out)
	}
	if hits.Load() != 1 {
		t.Fatalf("second call must be served from cache, hits=%d", hits.Load())
	}

	if code, _ := run(t, cfg, "market", "SPY", "hourly"); code != 1 {
		t.Fatalf("bad granularity must fail")
	}
	if code, _ := run(t, cfg, "project", "SPY", "x", "1"); code != 2 {
		t.Fatalf("bad principal must be usage error")
	}
}

func TestProjectCommand_FallbackWhenOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := tempConfig(t)
	cfg.MarketBaseURL = srv.URL
	code, out := run(t, cfg, "project", "SPY", "1000", "2")
	if code != 0 || !strings.Contains(out, "1102.50") || !strings.Contains(out, "(fallback)") {
		t.Fatalf("fallback projection expected: %d %s", code, out)
	}
}
