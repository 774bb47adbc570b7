package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/middleware"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибки слоя данных в HTTP-статусы.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUniqueViolation):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrMarketData):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.Errorw("request failed", "error", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// decodeJSON читает тело строго: неизвестные поля - 400.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	return nil
}

// ownUser проверяет, что {userID} из пути совпадает с пользователем сессии.
func ownUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionUser, _ := middleware.GetUserIDFromContext(r.Context())
	if chi.URLParam(r, "userID") != sessionUser {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return "", false
	}
	return sessionUser, true
}
