package crypto

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/securestore"
)

// KeyName - имя записи ключа устройства в защищённом хранилище.
const KeyName = "device_encryption_key"

// KeyProvider отдаёт ключ устройства потребителям (FileCodec, сервисы данных).
type KeyProvider interface {
	GetOrCreateKey(ctx context.Context) ([]byte, error)
}

// KeyManager - единственный владелец ключа устройства: генерирует его один раз,
// хранит в securestore (base64) и кеширует в памяти на время жизни процесса.
type KeyManager struct {
	store  securestore.Store
	logger *zap.SugaredLogger

	mu  sync.Mutex
	key []byte
}

var _ KeyProvider = (*KeyManager)(nil)

// NewKeyManager создаёт менеджер ключа поверх защищённого хранилища.
func NewKeyManager(store securestore.Store, logger *zap.SugaredLogger) *KeyManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &KeyManager{store: store, logger: logger}
}

// GetOrCreateKey возвращает ключ: кеш → хранилище → генерация и сохранение.
// Вся последовательность выполняется под мьютексом, поэтому параллельные первые вызовы
// не могут сгенерировать и записать два разных ключа.
func (m *KeyManager) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return cloneKey(m.key), nil
	}

	stored, err := m.store.Get(ctx, KeyName)
	switch {
	case err == nil:
		key, derr := base64.StdEncoding.DecodeString(stored)
		if derr != nil {
			return nil, fmt.Errorf("%w: stored key is not base64: %v", errs.ErrKeyStore, derr)
		}
		if len(key) != KeyLen {
			// не перезаписываем: иначе ранее зашифрованные данные станут нечитаемыми
			return nil, fmt.Errorf("%w: stored key has invalid length %d", errs.ErrKeyStore, len(key))
		}
		m.key = key
		return cloneKey(key), nil
	case errors.Is(err, errs.ErrNotFound):
	default:
		return nil, fmt.Errorf("%w: read %s: %w", errs.ErrKeyStore, KeyName, err)
	}

	key := make([]byte, KeyLen)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := m.store.Set(ctx, KeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: persist %s: %w", errs.ErrKeyStore, KeyName, err)
	}
	m.logger.Infow("device encryption key generated")
	m.key = key
	return cloneKey(key), nil
}

func cloneKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	return out
}
