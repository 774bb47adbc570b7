package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/model"
)

type marketCmd struct{}

func (marketCmd) Name() string        { return "market" }
func (marketCmd) Description() string { return "Исторический ряд по символу (из кеша или сети)" }
func (marketCmd) Usage() string       { return "market <symbol> [daily|weekly|monthly]" }

func (marketCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	g := model.Monthly
	if len(args) == 2 {
		var err error
		if g, err = model.ParseGranularity(args[1]); err != nil {
			return err
		}
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	ts, err := core.Market.GetSeries(ctx, args[0], g)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s %s: %d points\n", ts.Symbol, ts.Granularity, len(ts.Points))
	for _, p := range ts.Points {
		fmt.Fprintf(Out, "  %s close=%s adj=%s vol=%d\n", p.Date, p.Close.String(), p.AdjustedClose.String(), p.Volume)
	}
	return nil
}

type projectCmd struct{}

func (projectCmd) Name() string { return "project" }
func (projectCmd) Description() string {
	return "Прогноз стоимости по историческому росту символа"
}
func (projectCmd) Usage() string { return "project <symbol> <principal> <years>" }

func (projectCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	principal, err := decimal.NewFromString(args[1])
	if err != nil {
		return ErrUsage
	}
	years, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return ErrUsage
	}
	core, done, err := openCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	p, err := core.Invest.ProjectWithFallback(ctx, args[0], principal, years)
	if err != nil {
		return err
	}
	note := "historical"
	if p.Estimated {
		note = "fallback"
	}
	fmt.Fprintf(Out, "%s: %s → %s in %.1fy at %.2f%%/y (%s)\n",
		p.Symbol, p.Principal.StringFixed(2), p.Value.StringFixed(2), p.Years, p.Rate*100, note)
	return nil
}

func init() {
	RegisterCmd(marketCmd{})
	RegisterCmd(projectCmd{})
}
