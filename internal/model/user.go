package model

import "time"

// UserProfile - профиль пользователя. UID стабилен для одной внешней учётной записи, Email уникален.
type UserProfile struct {
	ID          int64
	UID         string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	LastLogin   time.Time
}
