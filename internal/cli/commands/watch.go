package commands

import (
	"context"
	"fmt"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/config"
)

type receiptsWatchCmd struct{}

func (receiptsWatchCmd) Name() string { return "receipts-watch" }
func (receiptsWatchCmd) Description() string {
	return "Следить за чеками: события шины и периодическое обновление (Ctrl+C - выход)"
}
func (receiptsWatchCmd) Usage() string { return "receipts-watch" }

func (receiptsWatchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	refresh := func(ctx context.Context) {
		if err := printReceipts(ctx, core.Data.Receipts.GetByUserID, cfg.UserID); err != nil {
			fmt.Fprintf(Out, "refresh error: %v\n", err)
		}
	}
	unsub := changebus.Subscribe(core.Bus, changebus.ReceiptsChangedTopic, func(p changebus.ReceiptsChanged) {
		if p.UserID == "" || p.UserID == cfg.UserID {
			fmt.Fprintf(Out, "• %s id=%d\n", p.Action, p.ID)
			refresh(ctx)
		}
	})
	defer unsub()

	refresh(ctx)
	// изменения из других процессов шина не видит - их подхватывает таймер
	changebus.RunRefresher(ctx, cfg.RefreshInterval, refresh)
	return nil
}

func init() { RegisterCmd(receiptsWatchCmd{}) }
