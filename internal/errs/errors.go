// Package errs содержит сентинел-ошибки, общие для всех слоёв ядра.
package errs

import "errors"

var (
	// ErrKeyStore - сбой чтения/записи защищённого хранилища ключей. Фатален для любой операции с шифрованием.
	ErrKeyStore = errors.New("key store failure")

	// ErrIntegrity - проверка тега аутентификации не прошла (повреждённые данные или чужой ключ).
	ErrIntegrity = errors.New("integrity check failed")

	// ErrStorage - ошибка встроенной БД: нарушение ограничения, I/O, некорректный запрос.
	ErrStorage = errors.New("storage failure")

	// ErrUniqueViolation - нарушение уникального ограничения (частный случай ErrStorage).
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrNotFound - запрошенная запись отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrMarketData - сетевая ошибка или ошибка разбора ответа источника рыночных данных.
	ErrMarketData = errors.New("market data unavailable")

	// ErrInvalidArgument - некорректные входные данные вызывающей стороны.
	ErrInvalidArgument = errors.New("invalid argument")
)
