package securestore

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ReceiptKeeper/internal/errs"
)

// PINName - имя записи с bcrypt-хешем PIN-кода блокировки приложения.
const PINName = "app_lock_pin"

// ErrPINMismatch возвращается VerifyPIN при неверном PIN.
var ErrPINMismatch = errors.New("pin mismatch")

// PINVault хранит хеш PIN-кода в защищённом хранилище.
type PINVault struct {
	store Store
}

// NewPINVault создаёт хранилище PIN поверх Store.
func NewPINVault(s Store) *PINVault {
	return &PINVault{store: s}
}

// SetPIN хеширует и сохраняет PIN.
func (v *PINVault) SetPIN(ctx context.Context, pin string) error {
	if len(pin) < 4 {
		return fmt.Errorf("%w: pin must be at least 4 characters", errs.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return v.store.Set(ctx, PINName, string(hash))
}

// VerifyPIN сверяет PIN с сохранённым хешем. Если PIN не задан - errs.ErrNotFound.
func (v *PINVault) VerifyPIN(ctx context.Context, pin string) error {
	hash, err := v.store.Get(ctx, PINName)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPINMismatch
		}
		return err
	}
	return nil
}

// ClearPIN удаляет сохранённый PIN.
func (v *PINVault) ClearPIN(ctx context.Context) error {
	return v.store.Delete(ctx, PINName)
}
