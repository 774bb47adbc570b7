package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ReceiptKeeper/internal/bootstrap"
	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/errs"
	"ReceiptKeeper/internal/model"
)

type receiptAddCmd struct{}

func (receiptAddCmd) Name() string        { return "receipt-add" }
func (receiptAddCmd) Description() string { return "Добавить чек (изображение шифруется в каталог ассетов)" }
func (receiptAddCmd) Usage() string       { return "receipt-add <total> [<image-path> [<ocr-text>]]" }

func (receiptAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return ErrUsage
	}
	total, err := decimal.NewFromString(args[0])
	if err != nil {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	fields := model.ReceiptFields{UserID: model.Ptr(cfg.UserID), TotalAmount: &total}
	if len(args) >= 2 && args[1] != "" {
		// при ошибке шифрования сохраняем исходный путь
		fields.ImageURI = model.Ptr(core.Files.EncryptFileOrOriginal(ctx, args[1]))
	}
	if len(args) == 3 {
		fields.OCRData = model.Ptr(args[2])
	}
	id, err := core.Data.Receipts.Create(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "Created:")
	fmt.Fprintf(Out, "  id:    %d\n", id)
	fmt.Fprintf(Out, "  total: %s\n", total.StringFixed(2))
	if fields.ImageURI != nil {
		fmt.Fprintf(Out, "  image: %s\n", *fields.ImageURI)
	}
	return nil
}

type receiptsCmd struct{}

func (receiptsCmd) Name() string        { return "receipts" }
func (receiptsCmd) Description() string { return "Список чеков пользователя" }
func (receiptsCmd) Usage() string       { return "receipts" }

func (receiptsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	return printReceipts(ctx, core.Data.Receipts.GetByUserID, cfg.UserID)
}

func printReceipts(ctx context.Context, list func(context.Context, string) ([]model.Receipt, error), userID string) error {
	items, err := list(ctx, userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(Out, "Нет чеков")
		return nil
	}
	sum := decimal.Zero
	for _, r := range items {
		sum = sum.Add(r.TotalAmount)
		fmt.Fprintf(Out, "- id=%d date=%s total=%s synced=%t\n",
			r.ID, r.ScanDate.Format(time.DateOnly), r.TotalAmount.StringFixed(2), r.Synced)
	}
	fmt.Fprintf(Out, "Всего: %d, сумма: %s\n", len(items), sum.StringFixed(2))
	return nil
}

type receiptEditCmd struct{}

func (receiptEditCmd) Name() string        { return "receipt-edit" }
func (receiptEditCmd) Description() string { return "Изменить поля чека (total, image, ocr, date, synced)" }
func (receiptEditCmd) Usage() string       { return "receipt-edit <id> <field>=<value>..." }

func (receiptEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return ErrUsage
	}
	fields, err := parseReceiptPatch(args[1:])
	if err != nil {
		return err
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	if _, err := ownReceipt(ctx, core, cfg, id); err != nil {
		return err
	}
	if fields.ImageURI != nil && *fields.ImageURI != "" {
		fields.ImageURI = model.Ptr(core.Files.EncryptFileOrOriginal(ctx, *fields.ImageURI))
	}
	if err := core.Data.Receipts.Update(ctx, id, fields); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated: %d\n", id)
	return nil
}

// ownReceipt возвращает чек пользователя CLI; чужой чек выглядит как отсутствующий.
func ownReceipt(ctx context.Context, core *bootstrap.Core, cfg *config.Config, id int64) (model.Receipt, error) {
	r, err := core.Data.Receipts.GetByID(ctx, id)
	if err != nil {
		return model.Receipt{}, err
	}
	if r.UserID != cfg.UserID {
		return model.Receipt{}, fmt.Errorf("%w: receipt %d", errs.ErrNotFound, id)
	}
	return r, nil
}

// parseReceiptPatch разбирает пары field=value.
func parseReceiptPatch(pairs []string) (model.ReceiptFields, error) {
	var f model.ReceiptFields
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return f, ErrUsage
		}
		switch k {
		case "total":
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, fmt.Errorf("total: %w", err)
			}
			f.TotalAmount = &d
		case "image":
			f.ImageURI = model.Ptr(v)
		case "ocr":
			f.OCRData = model.Ptr(v)
		case "date":
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return f, fmt.Errorf("date: %w", err)
			}
			f.ScanDate = &t
		case "synced":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return f, fmt.Errorf("synced: %w", err)
			}
			f.Synced = &b
		default:
			return f, fmt.Errorf("unknown field %q", k)
		}
	}
	return f, nil
}

type receiptDeleteCmd struct{}

func (receiptDeleteCmd) Name() string        { return "receipt-delete" }
func (receiptDeleteCmd) Description() string { return "Удалить чек" }
func (receiptDeleteCmd) Usage() string       { return "receipt-delete <id>" }

func (receiptDeleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	if _, err := ownReceipt(ctx, core, cfg, id); err != nil {
		return err
	}
	if err := core.Data.Receipts.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted: %d\n", id)
	return nil
}

type receiptsClearCmd struct{}

func (receiptsClearCmd) Name() string        { return "receipts-clear" }
func (receiptsClearCmd) Description() string { return "Удалить все чеки пользователя" }
func (receiptsClearCmd) Usage() string       { return "receipts-clear" }

func (receiptsClearCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	n, err := core.Data.Receipts.DeleteAll(ctx, cfg.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted: %d\n", n)
	return nil
}

type receiptImageCmd struct{}

func (receiptImageCmd) Name() string { return "receipt-image" }
func (receiptImageCmd) Description() string {
	return "Расшифровать изображение чека во временный каталог и вывести путь"
}
func (receiptImageCmd) Usage() string { return "receipt-image <id>" }

func (receiptImageCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	r, err := ownReceipt(ctx, core, cfg, id)
	if err != nil {
		return err
	}
	if r.ImageURI == "" {
		return fmt.Errorf("receipt %d has no image", id)
	}
	fmt.Fprintln(Out, core.Files.DecryptToTempOrOriginal(ctx, r.ImageURI))
	return nil
}

func init() {
	RegisterCmd(receiptAddCmd{})
	RegisterCmd(receiptsCmd{})
	RegisterCmd(receiptEditCmd{})
	RegisterCmd(receiptDeleteCmd{})
	RegisterCmd(receiptsClearCmd{})
	RegisterCmd(receiptImageCmd{})
}
