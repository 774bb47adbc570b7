package commands

import (
	"context"
	"fmt"
	"strings"

	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/model"
)

type userUpsertCmd struct{}

func (userUpsertCmd) Name() string        { return "user-upsert" }
func (userUpsertCmd) Description() string { return "Создать или обновить профиль пользователя" }
func (userUpsertCmd) Usage() string       { return "user-upsert <uid> <email> [<display-name>]" }

func (userUpsertCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	uid, email := args[0], args[1]
	name := strings.Join(args[2:], " ")
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	id, err := core.Data.Users.Upsert(ctx, uid, name, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "User: id=%d uid=%s\n", id, uid)
	return nil
}

type settingsCmd struct{}

func (settingsCmd) Name() string        { return "settings" }
func (settingsCmd) Description() string { return "Показать настройки пользователя" }
func (settingsCmd) Usage() string       { return "settings" }

func (settingsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	s, err := core.Data.Settings.Get(ctx, cfg.UserID)
	if err != nil {
		return err
	}
	printSettings(s)
	return nil
}

func printSettings(s model.Settings) {
	fmt.Fprintf(Out, "theme:         %s\n", s.Theme)
	fmt.Fprintf(Out, "notifications: %t\n", s.NotificationsEnabled)
}

type settingsSetCmd struct{}

func (settingsSetCmd) Name() string { return "settings-set" }
func (settingsSetCmd) Description() string {
	return "Сохранить настройки (незаданные поля сбрасываются к значениям по умолчанию)"
}
func (settingsSetCmd) Usage() string { return "settings-set [theme=<name>] [notifications=on|off]" }

func (settingsSetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	in := model.SettingsInput{UserID: cfg.UserID}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return ErrUsage
		}
		switch k {
		case "theme":
			in.Theme = model.Ptr(v)
		case "notifications":
			switch strings.ToLower(v) {
			case "on", "true", "1":
				in.NotificationsEnabled = model.Ptr(true)
			case "off", "false", "0":
				in.NotificationsEnabled = model.Ptr(false)
			default:
				return ErrUsage
			}
		default:
			return ErrUsage
		}
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	s, err := core.Data.Settings.Upsert(ctx, in)
	if err != nil {
		return err
	}
	printSettings(s)
	return nil
}

func init() {
	RegisterCmd(userUpsertCmd{})
	RegisterCmd(settingsCmd{})
	RegisterCmd(settingsSetCmd{})
}
