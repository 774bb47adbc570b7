package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
	"ReceiptKeeper/internal/recordstore"
)

const receiptColumns = "id, user_id, image_uri, total_amount, scan_date, ocr_data, synced, created_at, updated_at"

// ReceiptService - CRUD чеков с шифрованием total_amount и ocr_data.
type ReceiptService struct {
	store  recordstore.Executor
	fields *FieldCipher
	bus    *changebus.Bus
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewReceiptService(store recordstore.Executor, fields *FieldCipher, bus *changebus.Bus, logger *zap.SugaredLogger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ReceiptService{store: store, fields: fields, bus: bus, now: time.Now, logger: logger}
}

// columns переводит заданные поля в колонки; чувствительные значения шифруются до записи.
func (s *ReceiptService) columns(ctx context.Context, f model.ReceiptFields) (columnSet, error) {
	var cs columnSet
	if f.UserID != nil {
		cs.add("user_id", *f.UserID)
	}
	if f.ImageURI != nil {
		cs.add("image_uri", *f.ImageURI)
	}
	if f.TotalAmount != nil {
		sealed, err := s.fields.Seal(ctx, f.TotalAmount.String())
		if err != nil {
			return columnSet{}, err
		}
		cs.add("total_amount", sealed)
	}
	if f.ScanDate != nil {
		cs.add("scan_date", recordstore.Millis(*f.ScanDate))
	}
	if f.OCRData != nil {
		sealed, err := s.fields.Seal(ctx, *f.OCRData)
		if err != nil {
			return columnSet{}, err
		}
		cs.add("ocr_data", sealed)
	}
	if f.Synced != nil {
		cs.add("synced", *f.Synced)
	}
	return cs, nil
}

// Create вставляет чек и возвращает его id. scan_date по умолчанию - текущее время, synced - false.
func (s *ReceiptService) Create(ctx context.Context, f model.ReceiptFields) (int64, error) {
	if f.UserID == nil || strings.TrimSpace(*f.UserID) == "" {
		return 0, fmt.Errorf("%w: receipt user_id is required", errs.ErrInvalidArgument)
	}
	now := s.now()
	if f.ScanDate == nil {
		f.ScanDate = &now
	}
	if f.Synced == nil {
		f.Synced = model.Ptr(false)
	}
	cs, err := s.columns(ctx, f)
	if err != nil {
		return 0, err
	}
	cs.add("created_at", recordstore.Millis(now))
	cs.add("updated_at", recordstore.Millis(now))

	res, err := s.store.ExecuteNonQuery(ctx, cs.insertSQL("receipts"), cs.values...)
	if err != nil {
		return 0, fmt.Errorf("create receipt: %w", err)
	}
	s.logger.Infow("receipt created", "id", res.LastInsertID, "user_id", *f.UserID)
	changebus.Emit(s.bus, changebus.ReceiptsChangedTopic, changebus.ReceiptsChanged{
		ID: res.LastInsertID, UserID: *f.UserID, Action: changebus.ActionCreated,
	})
	return res.LastInsertID, nil
}

// Update записывает только заданные поля; остальные колонки, включая updated_at, не трогаются.
func (s *ReceiptService) Update(ctx context.Context, id int64, f model.ReceiptFields) error {
	cs, err := s.columns(ctx, f)
	if err != nil {
		return err
	}
	if cs.empty() {
		return fmt.Errorf("%w: no receipt fields to update", errs.ErrInvalidArgument)
	}

	res, err := s.store.ExecuteNonQuery(ctx, cs.updateSQL("receipts", "id = ?"), append(cs.values, id)...)
	if err != nil {
		return fmt.Errorf("update receipt %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: receipt %d", errs.ErrNotFound, id)
	}
	changebus.Emit(s.bus, changebus.ReceiptsChangedTopic, changebus.ReceiptsChanged{ID: id, Action: changebus.ActionUpdated})
	return nil
}

func (s *ReceiptService) Delete(ctx context.Context, id int64) error {
	res, err := s.store.ExecuteNonQuery(ctx, "DELETE FROM receipts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete receipt %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: receipt %d", errs.ErrNotFound, id)
	}
	changebus.Emit(s.bus, changebus.ReceiptsChangedTopic, changebus.ReceiptsChanged{ID: id, Action: changebus.ActionDeleted})
	return nil
}

// DeleteAll удаляет все чеки пользователя и возвращает их количество.
// Событие публикуется и при нуле удалённых строк.
func (s *ReceiptService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := s.store.ExecuteNonQuery(ctx, "DELETE FROM receipts WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("delete receipts of %s: %w", userID, err)
	}
	s.logger.Infow("receipts cleared", "user_id", userID, "count", res.RowsAffected)
	changebus.Emit(s.bus, changebus.ReceiptsChangedTopic, changebus.ReceiptsChanged{UserID: userID, Action: changebus.ActionDeletedAll})
	return res.RowsAffected, nil
}

// GetByUserID возвращает чеки пользователя, новые сверху.
func (s *ReceiptService) GetByUserID(ctx context.Context, userID string) ([]model.Receipt, error) {
	rows, err := s.store.ExecuteQuery(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE user_id = ? ORDER BY scan_date DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list receipts of %s: %w", userID, err)
	}
	out := make([]model.Receipt, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.fromRow(ctx, r))
	}
	return out, nil
}

func (s *ReceiptService) GetByID(ctx context.Context, id int64) (model.Receipt, error) {
	rows, err := s.store.ExecuteQuery(ctx, "SELECT "+receiptColumns+" FROM receipts WHERE id = ?", id)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("get receipt %d: %w", id, err)
	}
	if len(rows) == 0 {
		return model.Receipt{}, fmt.Errorf("%w: receipt %d", errs.ErrNotFound, id)
	}
	return s.fromRow(ctx, rows[0]), nil
}

func (s *ReceiptService) fromRow(ctx context.Context, r recordstore.Row) model.Receipt {
	id := r.Int64("id")
	return model.Receipt{
		ID:          id,
		UserID:      r.String("user_id"),
		ImageURI:    r.String("image_uri"),
		TotalAmount: s.amount(ctx, id, r.String("total_amount")),
		ScanDate:    r.Time("scan_date"),
		OCRData:     s.fields.Open(ctx, "ocr_data", r.String("ocr_data")),
		Synced:      r.Bool("synced"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

// amount принимает и зашифрованные, и legacy-значения (числа, записанные открытым текстом).
func (s *ReceiptService) amount(ctx context.Context, id int64, stored string) decimal.Decimal {
	plain := s.fields.Open(ctx, "total_amount", stored)
	if plain == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(plain)
	if err != nil {
		s.logger.Warnw("unreadable receipt total", "id", id, "error", err)
		return decimal.Zero
	}
	return d
}
