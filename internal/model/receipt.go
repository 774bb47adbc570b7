package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt - расшифрованное представление чека для вызывающего кода.
type Receipt struct {
	ID          int64
	UserID      string
	ImageURI    string // путь/URI изображения, может указывать на зашифрованный ассет
	TotalAmount decimal.Decimal
	ScanDate    time.Time
	OCRData     string // сырой распознанный текст
	Synced      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReceiptFields - набор полей для создания/частичного обновления чека.
// nil означает «поле не задано»: в INSERT/UPDATE попадают только заданные колонки.
type ReceiptFields struct {
	UserID      *string
	ImageURI    *string
	TotalAmount *decimal.Decimal
	ScanDate    *time.Time
	OCRData     *string
	Synced      *bool
}

// Ptr возвращает указатель на копию значения. Удобно для заполнения *Fields.
func Ptr[T any](v T) *T {
	return &v
}
