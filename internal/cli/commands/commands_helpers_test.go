package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"ReceiptKeeper/internal/config"
)

// tempConfig - конфигурация, у которой все каталоги лежат в temp.
func tempConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ClientDBPath:  filepath.Join(dir, "receipts.db"),
		AssetsDir:     filepath.Join(dir, "assets"),
		ScratchDir:    filepath.Join(dir, "scratch"),
		KeystoreDir:   filepath.Join(dir, "keystore"),
		MarketBaseURL: "http://127.0.0.1:0",
		FallbackRate:  0.05,
		UserID:        "u1",
	}
}

// перехват вывода на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

// run выполняет команду через Dispatch и возвращает код и вывод.
func run(t *testing.T, cfg *config.Config, args ...string) (int, string) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return code, out
}
