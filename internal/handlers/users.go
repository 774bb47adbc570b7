package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/middleware"
	"ReceiptKeeper/internal/model"
)

type UserStore interface {
	Upsert(ctx context.Context, uid, displayName, email string) (int64, error)
	GetByUID(ctx context.Context, uid string) (model.UserProfile, error)
}

type SettingsStore interface {
	Upsert(ctx context.Context, in model.SettingsInput) (model.Settings, error)
	Get(ctx context.Context, userID string) (model.Settings, error)
}

// UserHandler - профиль и настройки пользователя сессии.
type UserHandler struct {
	users    UserStore
	settings SettingsStore
	logger   *zap.SugaredLogger
}

func NewUserHandler(users UserStore, settings SettingsStore, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, settings: settings, logger: logger}
}

type userRequest struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type UserDTO struct {
	ID          int64     `json:"id"`
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastLogin   time.Time `json:"last_login"`
}

type settingsRequest struct {
	Theme                *string `json:"theme,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

type SettingsDTO struct {
	UserID               string    `json:"user_id"`
	Theme                string    `json:"theme"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toSettingsDTO(s model.Settings) SettingsDTO {
	return SettingsDTO{
		UserID:               s.UserID,
		Theme:                s.Theme,
		NotificationsEnabled: s.NotificationsEnabled,
		UpdatedAt:            s.UpdatedAt,
	}
}

// Upsert сохраняет профиль пользователя сессии. Чужой uid - 403.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sessionUser, _ := middleware.GetUserIDFromContext(r.Context())
	if req.UID != sessionUser {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return
	}
	if _, err := h.users.Upsert(r.Context(), req.UID, req.DisplayName, req.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.users.GetByUID(r.Context(), req.UID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserDTO{
		ID:          p.ID,
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		LastLogin:   p.LastLogin,
	})
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUser(w, r)
	if !ok {
		return
	}
	s, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s))
}

func (h *UserHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUser(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	s, err := h.settings.Upsert(r.Context(), model.SettingsInput{
		UserID:               userID,
		Theme:                req.Theme,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s))
}
