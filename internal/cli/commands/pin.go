package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/securestore"
)

type pinSetCmd struct{}

func (pinSetCmd) Name() string        { return "pin-set" }
func (pinSetCmd) Description() string { return "Установить PIN блокировки приложения" }
func (pinSetCmd) Usage() string       { return "pin-set <pin>" }

func (pinSetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := core.PIN.SetPIN(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "PIN saved")
	return nil
}

type pinVerifyCmd struct{}

func (pinVerifyCmd) Name() string        { return "pin-verify" }
func (pinVerifyCmd) Description() string { return "Проверить PIN" }
func (pinVerifyCmd) Usage() string       { return "pin-verify <pin>" }

func (pinVerifyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	err = core.PIN.VerifyPIN(ctx, args[0])
	if errors.Is(err, securestore.ErrPINMismatch) {
		fmt.Fprintln(Out, "PIN: wrong")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "PIN: ok")
	return nil
}

type scratchCleanCmd struct{}

func (scratchCleanCmd) Name() string { return "scratch-clean" }
func (scratchCleanCmd) Description() string {
	return "Удалить расшифрованные временные копии старше заданного возраста"
}
func (scratchCleanCmd) Usage() string { return "scratch-clean [<older-than, e.g. 1h>]" }

func (scratchCleanCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	age := time.Hour
	if len(args) == 1 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return ErrUsage
		}
		age = d
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	n, err := core.Files.CleanupTemp(age)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Removed: %d\n", n)
	return nil
}

func init() {
	RegisterCmd(pinSetCmd{})
	RegisterCmd(pinVerifyCmd{})
	RegisterCmd(scratchCleanCmd{})
}
