package model

import "time"

// Значения настроек по умолчанию.
const (
	DefaultTheme                = "system"
	DefaultNotificationsEnabled = true
)

// Settings - единственная запись настроек на пользователя.
type Settings struct {
	UserID               string
	Theme                string
	NotificationsEnabled bool
	UpdatedAt            time.Time
}

// SettingsInput - частичный ввод для upsert; отсутствующие поля заменяются значениями по умолчанию.
type SettingsInput struct {
	UserID               string
	Theme                *string
	NotificationsEnabled *bool
}

// DefaultSettings возвращает настройки по умолчанию для пользователя.
func DefaultSettings(userID string) Settings {
	return Settings{UserID: userID, Theme: DefaultTheme, NotificationsEnabled: DefaultNotificationsEnabled}
}
