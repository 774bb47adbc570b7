package securestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ReceiptKeeper/internal/errs"
)

// FSStore - файловое хранилище секретов: один файл с правами 0600 на каждое имя
// в каталоге с правами 0700.
type FSStore struct {
	dir string
}

// NewFSStore создаёт хранилище в каталоге dir. Каталог создаётся при первой записи.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("empty secure store dir")
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: secure store name %q", errs.ErrInvalidArgument, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Get читает значение по имени.
func (s *FSStore) Get(_ context.Context, name string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.ErrNotFound
		}
		return "", fmt.Errorf("securestore: read %s: %w", name, err)
	}
	// обрезаем завершающие переводы строки/пробелы
	v := strings.TrimRight(string(b), "\r\n\t ")
	if v == "" {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set записывает значение атомарно: временный файл → rename.
func (s *FSStore) Set(_ context.Context, name, value string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("securestore: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("securestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("securestore: chmod: %w", err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("securestore: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("securestore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("securestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("securestore: rename: %w", err)
	}
	success = true
	return nil
}

// Delete удаляет значение; отсутствие файла ошибкой не считается.
func (s *FSStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("securestore: delete %s: %w", name, err)
	}
	return nil
}
