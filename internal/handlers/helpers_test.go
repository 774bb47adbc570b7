package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ReceiptKeeper/internal/bootstrap"
	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/handlers"
	"ReceiptKeeper/internal/middleware"
	"ReceiptKeeper/internal/model"
)

const testSecret = "test-secret"

type testAPI struct {
	core *bootstrap.Core
	h    *handlers.Handler
}

func newAPI(t *testing.T, marketURL string) *testAPI {
	t.Helper()
	dir := t.TempDir()
	if marketURL == "" {
		marketURL = "http://127.0.0.1:0"
	}
	cfg := &config.Config{
		ClientDBPath:  filepath.Join(dir, "receipts.db"),
		AssetsDir:     filepath.Join(dir, "assets"),
		ScratchDir:    filepath.Join(dir, "scratch"),
		KeystoreDir:   filepath.Join(dir, "keystore"),
		MarketBaseURL: marketURL,
		FallbackRate:  0.05,
		AuthSecret:    testSecret,
	}
	core, cleanup, err := bootstrap.OpenCore(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return &testAPI{core: core, h: handlers.NewHandler(core, nil)}
}

// addAuth добавляет cookie сессии в запрос.
func addAuth(t *testing.T, req *http.Request, userID, secret string) {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, middleware.SetLoginCookie(rec, userID, secret))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}

// do выполняет запрос от имени userID (пустой - без сессии).
func (a *testAPI) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		addAuth(t, req, userID, testSecret)
	}
	rec := httptest.NewRecorder()
	a.h.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type mockSeries struct{ mock.Mock }

func (m *mockSeries) GetSeries(ctx context.Context, symbol string, g model.Granularity) (model.TimeSeries, error) {
	args := m.Called(ctx, symbol, g)
	return args.Get(0).(model.TimeSeries), args.Error(1)
}

var _ handlers.SeriesGetter = (*mockSeries)(nil)
