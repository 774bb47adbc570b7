// Package service - слой данных приложения: чеки, профили и настройки поверх RecordStore.
// Чувствительные колонки шифруются до записи; после успешной записи публикуется событие в changebus.
package service

import (
	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/crypto"
	"ReceiptKeeper/internal/recordstore"
)

// DataService объединяет сервисы данных над одним хранилищем и одним ключом.
type DataService struct {
	Receipts *ReceiptService
	Users    *UserService
	Settings *SettingsService
}

func New(store recordstore.Executor, keys crypto.KeyProvider, bus *changebus.Bus, logger *zap.SugaredLogger) *DataService {
	fields := NewFieldCipher(keys, logger)
	return &DataService{
		Receipts: NewReceiptService(store, fields, bus, logger),
		Users:    NewUserService(store, bus, logger),
		Settings: NewSettingsService(store, fields, bus, logger),
	}
}
