package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/crypto"
	"ReceiptKeeper/internal/recordstore"
	"ReceiptKeeper/internal/securestore"
)

type env struct {
	store *recordstore.Store
	keys  *crypto.KeyManager
	bus   *changebus.Bus
	svc   *DataService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st, err := recordstore.Open(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	keys := crypto.NewKeyManager(securestore.NewMemoryStore(), nil)
	bus := changebus.New(nil)
	return &env{store: st, keys: keys, bus: bus, svc: New(st, keys, bus, nil)}
}

func (e *env) key(t *testing.T) []byte {
	t.Helper()
	k, err := e.keys.GetOrCreateKey(context.Background())
	require.NoError(t, err)
	return k
}

// rawRow читает строку таблицы как есть, минуя расшифровку.
func (e *env) rawRow(t *testing.T, stmt string, args ...any) recordstore.Row {
	t.Helper()
	rows, err := e.store.ExecuteQuery(context.Background(), stmt, args...)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// mockExecutor - testify-мок хранилища для проверки отправляемых операторов.
type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) ExecuteNonQuery(ctx context.Context, stmt string, params ...any) (recordstore.Result, error) {
	args := m.Called(ctx, stmt, params)
	return args.Get(0).(recordstore.Result), args.Error(1)
}

func (m *mockExecutor) ExecuteQuery(ctx context.Context, stmt string, params ...any) ([]recordstore.Row, error) {
	args := m.Called(ctx, stmt, params)
	if rows := args.Get(0); rows != nil {
		return rows.([]recordstore.Row), args.Error(1)
	}
	return nil, args.Error(1)
}

type failingKeys struct{ err error }

func (f failingKeys) GetOrCreateKey(context.Context) ([]byte, error) { return nil, f.err }
