package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ReceiptKeeper/internal/bootstrap"
	"ReceiptKeeper/internal/filecodec"
)

func TestReceiptCommands_Lifecycle(t *testing.T) {
	cfg := tempConfig(t)

	_, out := run(t, cfg, "receipts")
	if !strings.Contains(out, "Нет чеков") {
		t.Fatalf("expected empty list, got: %s", out)
	}

	if code, out := run(t, cfg, "receipt-add", "12.5", "", "MILK"); code != 0 || !strings.Contains(out, "total: 12.50") {
		t.Fatalf("receipt-add failed: %d %s", code, out)
	}
	if code, _ := run(t, cfg, "receipt-add", "7"); code != 0 {
		t.Fatalf("receipt-add failed: %d", code)
	}

	_, out = run(t, cfg, "receipts")
	if !strings.Contains(out, "Всего: 2, сумма: 19.50") {
		t.Fatalf("unexpected list: %s", out)
	}

	if code, out := run(t, cfg, "receipt-edit", "1", "total=20", "synced=true"); code != 0 {
		t.Fatalf("receipt-edit failed: %d %s", code, out)
	}
	_, out = run(t, cfg, "receipts")
	if !strings.Contains(out, "id=1") || !strings.Contains(out, "total=20.00 synced=true") {
		t.Fatalf("edit not visible: %s", out)
	}

	if code, _ := run(t, cfg, "receipt-delete", "2"); code != 0 {
		t.Fatalf("receipt-delete failed")
	}
	if code, out := run(t, cfg, "receipt-delete", "2"); code != 1 || !strings.Contains(out, "not found") {
		t.Fatalf("second delete must fail: %d %s", code, out)
	}

	if code, out := run(t, cfg, "receipts-clear"); code != 0 || !strings.Contains(out, "Deleted: 1") {
		t.Fatalf("receipts-clear: %d %s", code, out)
	}
}

func TestReceiptCommands_Usage(t *testing.T) {
	cfg := tempConfig(t)
	cases := [][]string{
		{"receipt-add"},
		{"receipt-add", "abc"},
		{"receipt-edit", "1"},
		{"receipt-edit", "x", "total=1"},
		{"receipt-edit", "1", "total"},
		{"receipt-delete"},
		{"receipts", "extra"},
		{"receipt-image"},
	}
	for _, args := range cases {
		if code, _ := run(t, cfg, args...); code != 2 {
			t.Fatalf("%v: expected usage exit 2, got %d", args, code)
		}
	}
	if code, out := run(t, cfg, "receipt-edit", "1", "color=red"); code != 1 || !strings.Contains(out, "unknown field") {
		t.Fatalf("unknown field must be rejected: %d %s", code, out)
	}
}

func TestReceiptCommands_ImageEncryptedAndDecrypted(t *testing.T) {
	cfg := tempConfig(t)
	src := filepath.Join(t.TempDir(), "photo.jpg")
	content := []byte("\xff\xd8\xff fake jpeg")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}

	code, out := run(t, cfg, "receipt-add", "1.00", src)
	if code != 0 || !strings.Contains(out, cfg.AssetsDir) || !strings.Contains(out, filecodec.EncryptedExt) {
		t.Fatalf("image must be encrypted into assets dir: %d %s", code, out)
	}

	code, out = run(t, cfg, "receipt-image", "1")
	if code != 0 {
		t.Fatalf("receipt-image failed: %s", out)
	}
	tmp := strings.TrimSpace(out)
	if !strings.HasPrefix(tmp, cfg.ScratchDir) {
		t.Fatalf("decrypted copy expected in scratch dir, got %q", tmp)
	}
	got, err := os.ReadFile(tmp)
	if err != nil || string(got) != string(content) {
		t.Fatalf("decrypted content mismatch: %v", err)
	}

	// свежие копии не удаляются, старые - удаляются
	if _, out := run(t, cfg, "scratch-clean", "1h"); !strings.Contains(out, "Removed: 0") {
		t.Fatalf("fresh copy must survive: %s", out)
	}
	old := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(tmp, old, old)
	if _, out := run(t, cfg, "scratch-clean"); !strings.Contains(out, "Removed: 1") {
		t.Fatalf("old copy must be removed: %s", out)
	}
}

func TestReceiptCommands_ForeignReceiptNotFound(t *testing.T) {
	cfg := tempConfig(t)
	if code, _ := run(t, cfg, "receipt-add", "3.00"); code != 0 {
		t.Fatalf("receipt-add failed: %d", code)
	}

	other := *cfg
	other.UserID = "u2"
	for _, args := range [][]string{
		{"receipt-edit", "1", "total=99"},
		{"receipt-delete", "1"},
		{"receipt-image", "1"},
	} {
		if code, out := run(t, &other, args...); code != 1 || !strings.Contains(out, "not found") {
			t.Fatalf("%v as u2: expected not found, got %d %s", args, code, out)
		}
	}

	_, out := run(t, cfg, "receipts")
	if !strings.Contains(out, "id=1") || !strings.Contains(out, "total=3.00") {
		t.Fatalf("receipt of u1 must be intact: %s", out)
	}
}

func TestReceiptCommands_EditImageEncrypted(t *testing.T) {
	cfg := tempConfig(t)
	if code, _ := run(t, cfg, "receipt-add", "1.00"); code != 0 {
		t.Fatalf("receipt-add failed: %d", code)
	}
	src := filepath.Join(t.TempDir(), "later.png")
	content := []byte("\x89PNG fake")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}
	if code, out := run(t, cfg, "receipt-edit", "1", "image="+src); code != 0 {
		t.Fatalf("receipt-edit failed: %d %s", code, out)
	}

	core, done, err := bootstrap.OpenCore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := core.Data.Receipts.GetByID(context.Background(), 1)
	_ = done()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(r.ImageURI, cfg.AssetsDir) || !strings.HasSuffix(r.ImageURI, filecodec.EncryptedExt) {
		t.Fatalf("edited image must be stored encrypted, got %q", r.ImageURI)
	}

	code, out := run(t, cfg, "receipt-image", "1")
	if code != 0 {
		t.Fatalf("receipt-image failed: %s", out)
	}
	got, err := os.ReadFile(strings.TrimSpace(out))
	if err != nil || string(got) != string(content) {
		t.Fatalf("decrypted content mismatch: %v", err)
	}
}

func TestReceiptsWatch_StopsWithContext(t *testing.T) {
	cfg := tempConfig(t)
	cfg.RefreshInterval = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out := withStdoutCapture(t, func() {
		if err := (receiptsWatchCmd{}).Run(ctx, cfg, nil); err != nil {
			t.Errorf("watch: %v", err)
		}
	})
	if !strings.Contains(out, "Нет чеков") {
		t.Fatalf("initial refresh expected, got: %s", out)
	}
}
