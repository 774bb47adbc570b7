// Package filecodec шифрует и расшифровывает файлы изображений чеков на диске.
//
// Зашифрованные файлы лежат в отдельном каталоге ассетов, расшифрованные копии - во временном
// каталоге. Политика очистки временных файлов принадлежит вызывающему (см. CleanupTemp).
package filecodec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/crypto"
)

// EncryptedExt - суффикс файлов в каталоге ассетов.
const EncryptedExt = ".enc"

// Codec шифрует файлы ключом устройства. Ключ получает только через KeyProvider.
type Codec struct {
	keys       crypto.KeyProvider
	assetsDir  string
	scratchDir string
	logger     *zap.SugaredLogger
}

// New создаёт кодек. Каталоги создаются лениво.
func New(keys crypto.KeyProvider, assetsDir, scratchDir string, logger *zap.SugaredLogger) *Codec {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Codec{keys: keys, assetsDir: assetsDir, scratchDir: scratchDir, logger: logger}
}

// AssetsDir возвращает каталог зашифрованных файлов.
func (c *Codec) AssetsDir() string { return c.assetsDir }

// ScratchDir возвращает каталог расшифрованных копий.
func (c *Codec) ScratchDir() string { return c.scratchDir }

// EncryptFile читает файл целиком, кодирует в base64, шифрует и пишет payload в новый файл
// с уникальным именем в каталоге ассетов. Возвращает путь к зашифрованному файлу.
func (c *Codec) EncryptFile(ctx context.Context, src string) (string, error) {
	srcPath := PathFromURI(src)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("filecodec: read source: %w", err)
	}
	key, err := c.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	payload, err := crypto.EncryptString(encoded, key)
	if err != nil {
		return "", fmt.Errorf("filecodec: encrypt: %w", err)
	}
	if err := os.MkdirAll(c.assetsDir, 0o700); err != nil {
		return "", fmt.Errorf("filecodec: mkdir assets: %w", err)
	}
	// исходное расширение сохраняем в имени, чтобы расшифрованная копия его получила
	name := uuid.NewString() + strings.ToLower(filepath.Ext(srcPath)) + EncryptedExt
	dst := filepath.Join(c.assetsDir, name)
	if err := writeFileAtomic(dst, []byte(payload)); err != nil {
		return "", err
	}
	return dst, nil
}

// DecryptToTemp расшифровывает файл во временный каталог и возвращает путь к копии.
// Файл без метки шифрования считается открытым: возвращается исходный путь без ошибки.
func (c *Codec) DecryptToTemp(ctx context.Context, path string) (string, error) {
	p := PathFromURI(path)
	raw, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("filecodec: read encrypted file: %w", err)
	}
	payload := strings.TrimSpace(string(raw))
	if !crypto.IsEncryptedPayload(payload) {
		return path, nil
	}
	key, err := c.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", err
	}
	encoded, err := crypto.DecryptString(payload, key)
	if err != nil {
		return "", fmt.Errorf("filecodec: decrypt %s: %w", filepath.Base(p), err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("filecodec: decode content: %w", err)
	}
	if err := os.MkdirAll(c.scratchDir, 0o700); err != nil {
		return "", fmt.Errorf("filecodec: mkdir scratch: %w", err)
	}
	dst := filepath.Join(c.scratchDir, uuid.NewString()+originalExt(p))
	if err := writeFileAtomic(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

// EncryptFileOrOriginal - best-effort вариант EncryptFile: при любой ошибке возвращает исходный путь.
// Потерять фото хуже, чем оставить его незашифрованным.
func (c *Codec) EncryptFileOrOriginal(ctx context.Context, src string) string {
	dst, err := c.EncryptFile(ctx, src)
	if err != nil {
		c.logger.Warnw("asset encryption failed, keeping original", "path", src, "error", err)
		return src
	}
	return dst
}

// DecryptToTempOrOriginal - best-effort вариант DecryptToTemp: при ошибке возвращает исходный путь.
func (c *Codec) DecryptToTempOrOriginal(ctx context.Context, path string) string {
	dst, err := c.DecryptToTemp(ctx, path)
	if err != nil {
		c.logger.Warnw("asset decryption failed, returning original", "path", path, "error", err)
		return path
	}
	return dst
}

// CleanupTemp удаляет из временного каталога файлы старше olderThan и возвращает их число.
func (c *Codec) CleanupTemp(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(c.scratchDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("filecodec: read scratch: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.scratchDir, e.Name())); err != nil {
			c.logger.Warnw("temp cleanup failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// PathFromURI снимает схему file:// с URI, остальные значения возвращает как есть.
func PathFromURI(v string) string {
	if strings.HasPrefix(v, "file://") {
		return strings.TrimPrefix(v, "file://")
	}
	return v
}

// originalExt восстанавливает расширение исходного файла из имени "<uuid>.jpg.enc".
func originalExt(p string) string {
	base := filepath.Base(p)
	if !strings.HasSuffix(base, EncryptedExt) {
		return filepath.Ext(base)
	}
	return filepath.Ext(strings.TrimSuffix(base, EncryptedExt))
}

// writeFileAtomic пишет содержимое через временный файл → fsync → rename.
func writeFileAtomic(dst string, content []byte) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".filecodec-tmp-*")
	if err != nil {
		return fmt.Errorf("filecodec: create temp: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("filecodec: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("filecodec: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filecodec: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("filecodec: rename: %w", err)
	}
	success = true
	return nil
}
