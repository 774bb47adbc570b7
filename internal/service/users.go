package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
	"ReceiptKeeper/internal/recordstore"
)

// UserService - профили пользователей. uid и email уникальны.
type UserService struct {
	store  recordstore.Executor
	bus    *changebus.Bus
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewUserService(store recordstore.Executor, bus *changebus.Bus, logger *zap.SugaredLogger) *UserService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{store: store, bus: bus, now: time.Now, logger: logger}
}

// Upsert создаёт профиль или обновляет существующий для того же uid и возвращает id строки.
//
// Сначала выполняется INSERT. При нарушении уникальности:
//   - по uid: строка этого uid обновляется (включая email);
//   - по email: обновляется только строка, где этот uid уже владеет этим email.
//
// Строка другого uid никогда не перезаписывается: в этом случае возвращается ошибка нарушения уникальности.
func (s *UserService) Upsert(ctx context.Context, uid, displayName, email string) (int64, error) {
	uid = strings.TrimSpace(uid)
	email = strings.ToLower(strings.TrimSpace(email))
	if uid == "" || email == "" {
		return 0, fmt.Errorf("%w: uid and email are required", errs.ErrInvalidArgument)
	}
	now := recordstore.Millis(s.now())

	res, err := s.store.ExecuteNonQuery(ctx,
		"INSERT INTO users (uid, email, display_name, created_at, last_login) VALUES (?, ?, ?, ?, ?)",
		uid, email, displayName, now, now)
	if err == nil {
		s.logger.Infow("user created", "id", res.LastInsertID, "uid", uid)
		changebus.Emit(s.bus, changebus.UsersChangedTopic, changebus.UsersChanged{ID: res.LastInsertID, UID: uid, Action: changebus.ActionCreated})
		return res.LastInsertID, nil
	}

	var ce *recordstore.ConstraintError
	if !errors.As(err, &ce) {
		return 0, fmt.Errorf("upsert user %s: %w", uid, err)
	}
	switch {
	case ce.HasColumn("uid"):
		res, err = s.store.ExecuteNonQuery(ctx,
			"UPDATE users SET email = ?, display_name = ?, last_login = ? WHERE uid = ?",
			email, displayName, now, uid)
	case ce.HasColumn("email"):
		// сверяется только случай «этот uid уже владеет этим email»; строка другого uid не трогается
		res, err = s.store.ExecuteNonQuery(ctx,
			"UPDATE users SET display_name = ?, last_login = ? WHERE uid = ? AND email = ?",
			displayName, now, uid, email)
		if err == nil && res.RowsAffected == 0 {
			s.logger.Warnw("email belongs to another user", "uid", uid)
			return 0, fmt.Errorf("upsert user %s: %w", uid, ce)
		}
	default:
		return 0, fmt.Errorf("upsert user %s: %w", uid, ce)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert user %s: %w", uid, err)
	}

	p, err := s.GetByUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	changebus.Emit(s.bus, changebus.UsersChangedTopic, changebus.UsersChanged{ID: p.ID, UID: uid, Action: changebus.ActionUpdated})
	return p.ID, nil
}

func (s *UserService) GetByUID(ctx context.Context, uid string) (model.UserProfile, error) {
	rows, err := s.store.ExecuteQuery(ctx,
		"SELECT id, uid, email, display_name, created_at, last_login FROM users WHERE uid = ?", uid)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get user %s: %w", uid, err)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, fmt.Errorf("%w: user %s", errs.ErrNotFound, uid)
	}
	r := rows[0]
	return model.UserProfile{
		ID:          r.Int64("id"),
		UID:         r.String("uid"),
		Email:       r.String("email"),
		DisplayName: r.String("display_name"),
		CreatedAt:   r.Time("created_at"),
		LastLogin:   r.Time("last_login"),
	}, nil
}

// TouchLogin обновляет время последнего входа.
func (s *UserService) TouchLogin(ctx context.Context, uid string) error {
	res, err := s.store.ExecuteNonQuery(ctx, "UPDATE users SET last_login = ? WHERE uid = ?", recordstore.Millis(s.now()), uid)
	if err != nil {
		return fmt.Errorf("touch login %s: %w", uid, err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", errs.ErrNotFound, uid)
	}
	return nil
}
