package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
	"ReceiptKeeper/internal/recordstore"
)

// SettingsService - настройки пользователя; theme хранится зашифрованной.
type SettingsService struct {
	store  recordstore.Executor
	fields *FieldCipher
	bus    *changebus.Bus
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewSettingsService(store recordstore.Executor, fields *FieldCipher, bus *changebus.Bus, logger *zap.SugaredLogger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SettingsService{store: store, fields: fields, bus: bus, now: time.Now, logger: logger}
}

// Upsert всегда записывает все поля: незаданные заменяются значениями по умолчанию.
func (s *SettingsService) Upsert(ctx context.Context, in model.SettingsInput) (model.Settings, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return model.Settings{}, fmt.Errorf("%w: settings user_id is required", errs.ErrInvalidArgument)
	}
	out := model.DefaultSettings(in.UserID)
	if in.Theme != nil {
		out.Theme = *in.Theme
	}
	if in.NotificationsEnabled != nil {
		out.NotificationsEnabled = *in.NotificationsEnabled
	}
	out.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	theme, err := s.fields.Seal(ctx, out.Theme)
	if err != nil {
		return model.Settings{}, err
	}
	_, err = s.store.ExecuteNonQuery(ctx,
		`INSERT INTO user_settings (user_id, theme, notifications_enabled, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   theme = excluded.theme,
		   notifications_enabled = excluded.notifications_enabled,
		   updated_at = excluded.updated_at`,
		out.UserID, theme, out.NotificationsEnabled, recordstore.Millis(out.UpdatedAt))
	if err != nil {
		return model.Settings{}, fmt.Errorf("upsert settings of %s: %w", in.UserID, err)
	}
	changebus.Emit(s.bus, changebus.SettingsChangedTopic, changebus.SettingsChanged{UserID: out.UserID})
	return out, nil
}

// Get возвращает сохранённые настройки или значения по умолчанию.
func (s *SettingsService) Get(ctx context.Context, userID string) (model.Settings, error) {
	rows, err := s.store.ExecuteQuery(ctx,
		"SELECT user_id, theme, notifications_enabled, updated_at FROM user_settings WHERE user_id = ?", userID)
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings of %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return model.DefaultSettings(userID), nil
	}
	r := rows[0]
	return model.Settings{
		UserID:               r.String("user_id"),
		Theme:                s.fields.Open(ctx, "theme", r.String("theme")),
		NotificationsEnabled: r.Bool("notifications_enabled"),
		UpdatedAt:            r.Time("updated_at"),
	}, nil
}
