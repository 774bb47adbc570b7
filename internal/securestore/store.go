// Package securestore описывает защищённое хранилище секретов устройства (ключ шифрования, хеш PIN)
// и его файловую реализацию.
package securestore

import (
	"context"
	"regexp"
	"sync"

	"ReceiptKeeper/internal/errs"
)

// Store - get/set/delete по строковым именам в пределах устройства и приложения.
// Get возвращает errs.ErrNotFound, если значения нет.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidName проверяет, что имя безопасно использовать как имя файла.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// MemoryStore - Store в памяти процесса. Используется в тестах и для временных профилей.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get возвращает значение по имени.
func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set сохраняет значение.
func (s *MemoryStore) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

// Delete удаляет значение; отсутствие значения ошибкой не считается.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}
