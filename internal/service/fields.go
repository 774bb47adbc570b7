package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/crypto"
)

// FieldCipher шифрует чувствительные колонки перед записью и расшифровывает при чтении.
type FieldCipher struct {
	keys   crypto.KeyProvider
	logger *zap.SugaredLogger
}

func NewFieldCipher(keys crypto.KeyProvider, logger *zap.SugaredLogger) *FieldCipher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FieldCipher{keys: keys, logger: logger}
}

// Seal возвращает payload для записи. Ошибка ключа или шифрования отменяет запись.
func (f *FieldCipher) Seal(ctx context.Context, plain string) (string, error) {
	key, err := f.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", fmt.Errorf("seal field: %w", err)
	}
	return crypto.EncryptString(plain, key)
}

// Open расшифровывает значение best-effort: при любой ошибке возвращает сохранённое значение как есть.
func (f *FieldCipher) Open(ctx context.Context, column, stored string) string {
	if !crypto.IsEncryptedPayload(stored) {
		return stored
	}
	key, err := f.keys.GetOrCreateKey(ctx)
	if err != nil {
		f.logger.Warnw("field key unavailable, returning stored value", "column", column, "error", err)
		return stored
	}
	plain, err := crypto.DecryptOrPlain(stored, key)
	if err != nil {
		f.logger.Warnw("field decrypt failed, returning stored value", "column", column, "error", err)
	}
	return plain
}

// columnSet - упорядоченный набор колонок и значений для INSERT/UPDATE.
type columnSet struct {
	names  []string
	values []any
}

func (c *columnSet) add(name string, v any) {
	c.names = append(c.names, name)
	c.values = append(c.values, v)
}

func (c *columnSet) empty() bool { return len(c.names) == 0 }

func (c *columnSet) insertSQL(table string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(c.names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(c.names, ", "), marks)
}

// updateSQL строит UPDATE ... SET a = ?, b = ? WHERE <where>; параметры where добавляет вызывающий.
func (c *columnSet) updateSQL(table, where string) string {
	sets := make([]string, len(c.names))
	for i, n := range c.names {
		sets[i] = n + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where)
}
