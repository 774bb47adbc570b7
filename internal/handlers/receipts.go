package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/middleware"
	"ReceiptKeeper/internal/model"
)

// ReceiptStore - операции над чеками, нужные API.
type ReceiptStore interface {
	Create(ctx context.Context, f model.ReceiptFields) (int64, error)
	Update(ctx context.Context, id int64, f model.ReceiptFields) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	GetByUserID(ctx context.Context, userID string) ([]model.Receipt, error)
	GetByID(ctx context.Context, id int64) (model.Receipt, error)
}

type ReceiptHandler struct {
	receipts ReceiptStore
	logger   *zap.SugaredLogger
}

func NewReceiptHandler(receipts ReceiptStore, logger *zap.SugaredLogger) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, logger: logger}
}

// ReceiptDTO - чек в ответах API.
type ReceiptDTO struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	ImageURI    string          `json:"image_uri"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ScanDate    time.Time       `json:"scan_date"`
	OCRData     string          `json:"ocr_data"`
	Synced      bool            `json:"synced"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ReceiptInput - тело POST/PATCH; отсутствующие поля не трогаются.
type ReceiptInput struct {
	ImageURI    *string          `json:"image_uri,omitempty"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	ScanDate    *time.Time       `json:"scan_date,omitempty"`
	OCRData     *string          `json:"ocr_data,omitempty"`
	Synced      *bool            `json:"synced,omitempty"`
}

func (in ReceiptInput) fields() model.ReceiptFields {
	return model.ReceiptFields{
		ImageURI:    in.ImageURI,
		TotalAmount: in.TotalAmount,
		ScanDate:    in.ScanDate,
		OCRData:     in.OCRData,
		Synced:      in.Synced,
	}
}

func toReceiptDTO(r model.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		ImageURI:    r.ImageURI,
		TotalAmount: r.TotalAmount,
		ScanDate:    r.ScanDate,
		OCRData:     r.OCRData,
		Synced:      r.Synced,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (h *ReceiptHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUser(w, r)
	if !ok {
		return
	}
	list, err := h.receipts.GetByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]ReceiptDTO, 0, len(list))
	for _, rc := range list {
		out = append(out, toReceiptDTO(rc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUser(w, r)
	if !ok {
		return
	}
	var in ReceiptInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	f := in.fields()
	f.UserID = &userID
	id, err := h.receipts.Create(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ReceiptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	var in ReceiptInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.receipts.Update(r.Context(), id, in.fields()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReceiptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.receipts.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReceiptHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUser(w, r)
	if !ok {
		return
	}
	n, err := h.receipts.DeleteAll(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// owned разбирает {id} и проверяет, что чек принадлежит пользователю сессии.
// Чужой чек выглядит как отсутствующий.
func (h *ReceiptHandler) owned(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, h.logger, fmt.Errorf("%w: bad receipt id", errs.ErrInvalidArgument))
		return 0, false
	}
	rc, err := h.receipts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return 0, false
	}
	sessionUser, _ := middleware.GetUserIDFromContext(r.Context())
	if rc.UserID != sessionUser {
		writeError(w, h.logger, fmt.Errorf("%w: receipt %d", errs.ErrNotFound, id))
		return 0, false
	}
	return id, true
}
