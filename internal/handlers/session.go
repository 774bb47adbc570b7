package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/middleware"
	"ReceiptKeeper/internal/securestore"
)

// PINVerifier проверяет PIN блокировки приложения.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, pin string) error
}

// LoginToucher отмечает время входа пользователя.
type LoginToucher interface {
	TouchLogin(ctx context.Context, uid string) error
}

// SessionHandler выдаёт cookie сессии локального API.
type SessionHandler struct {
	pin    PINVerifier
	users  LoginToucher
	logger *zap.SugaredLogger
	secret string
}

func NewSessionHandler(pin PINVerifier, users LoginToucher, logger *zap.SugaredLogger, secret string) *SessionHandler {
	return &SessionHandler{pin: pin, users: users, logger: logger, secret: secret}
}

type sessionRequest struct {
	UserID string `json:"user_id"`
	PIN    string `json:"pin"`
}

// Login открывает сессию. Если PIN задан, он обязателен.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "user_id is required"})
		return
	}

	err := h.pin.VerifyPIN(r.Context(), req.PIN)
	switch {
	case err == nil, errors.Is(err, errs.ErrNotFound):
		// PIN не задан - вход без проверки
	case errors.Is(err, securestore.ErrPINMismatch):
		h.logger.Warnw("session rejected: pin mismatch", "user_id", req.UserID)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid pin"})
		return
	default:
		writeError(w, h.logger, err)
		return
	}

	if err := h.users.TouchLogin(r.Context(), req.UserID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		h.logger.Warnw("touch login failed", "user_id", req.UserID, "error", err)
	}
	if err := middleware.SetLoginCookie(w, req.UserID, h.secret); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": req.UserID})
}
