package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"pennywise/internal/api"
	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/ledger"
	"pennywise/internal/notify"
	"pennywise/internal/services"
)

type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"list":     (*app).list,
	"get":      (*app).get,
	"add":      (*app).add,
	"edit":     (*app).edit,
	"delete":   (*app).delete,
	"category": (*app).byCategory,
	"type":     (*app).byType,
	"summary":  (*app).summary,
	"export":   (*app).export,
}

// envelopeError turns an error envelope into a Go error.
func envelopeError[T any](env api.Envelope[T]) error {
	if env.OK() {
		return nil
	}
	return errors.New(env.Message)
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func oneArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one %s", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

// parseInterleaved parses flags that may follow the positional argument.
func parseInterleaved(fs *flag.FlagSet, args []string) error {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	return fs.Parse(positional)
}

func (a *app) list(ctx context.Context, args []string) error {
	env := a.client.GetAll(ctx)
	if err := envelopeError(env); err != nil {
		return err
	}
	a.printTable(env.Data)
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	fs := a.newFlagSet("get")
	if err := parseInterleaved(fs, args); err != nil {
		return err
	}
	id, err := oneArg(fs, "id")
	if err != nil {
		return err
	}
	env := a.client.GetByID(ctx, id)
	if err := envelopeError(env); err != nil {
		return err
	}
	if env.Data == nil {
		return errors.New("transaction not found")
	}
	a.printTable([]core.Transaction{*env.Data})
	return nil
}

type inputFlags struct {
	description string
	amount      string
	category    string
	kind        string
	date        string
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "d", "", "description")
	fs.StringVar(&f.amount, "a", "", "amount, e.g. 12.50")
	fs.StringVar(&f.category, "c", string(core.Other), "category")
	fs.StringVar(&f.kind, "k", string(core.Debit), "kind: credit or debit")
	fs.StringVar(&f.date, "date", "", "date as YYYY-MM-DD, default today")
}

// input checks the flags locally so obvious mistakes never reach the server.
func (f *inputFlags) input() (core.TransactionInput, error) {
	amount, err := core.ParseMoney(f.amount)
	if err != nil {
		return core.TransactionInput{}, fmt.Errorf("invalid amount %q", f.amount)
	}
	kind, err := core.ParseKind(f.kind)
	if err != nil {
		return core.TransactionInput{}, err
	}
	in := core.TransactionInput{
		Description: strings.TrimSpace(f.description),
		Amount:      amount,
		Kind:        kind,
		Category:    core.ParseCategory(f.category),
	}
	if f.date != "" {
		if in.Date, err = core.ParseDate(f.date); err != nil {
			return core.TransactionInput{}, err
		}
	}
	return in, nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.newFlagSet("add")
	var f inputFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := f.input()
	if err != nil {
		return err
	}
	env := a.client.Create(ctx, in)
	if err := envelopeError(env); err != nil {
		return err
	}
	a.printMessage(env.Message, services.MsgAdded)
	if env.Data != nil {
		fmt.Fprintln(a.out, env.Data.ID)
	}
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := a.newFlagSet("edit")
	var f inputFlags
	f.register(fs)
	if err := parseInterleaved(fs, args); err != nil {
		return err
	}
	id, err := oneArg(fs, "id")
	if err != nil {
		return err
	}
	in, err := f.input()
	if err != nil {
		return err
	}
	env := a.client.Update(ctx, id, in)
	if err := envelopeError(env); err != nil {
		return err
	}
	a.printMessage(env.Message, services.MsgUpdated)
	if env.Data != nil {
		fmt.Fprintln(a.out, env.Data.ID)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parseInterleaved(fs, args); err != nil {
		return err
	}
	id, err := oneArg(fs, "id")
	if err != nil {
		return err
	}
	if !*yes {
		ok, err := (&notify.PromptConfirmer{In: a.in, Out: a.out}).Confirm(ctx, services.MsgConfirmDelete)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Delete cancelled")
			return nil
		}
	}
	env := a.client.Delete(ctx, id)
	if err := envelopeError(env); err != nil {
		return err
	}
	if env.Message != "" {
		fmt.Fprintln(a.out, env.Message)
	}
	return nil
}

func (a *app) byCategory(ctx context.Context, args []string) error {
	fs := a.newFlagSet("category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := oneArg(fs, "category")
	if err != nil {
		return err
	}
	env := a.client.GetByCategory(ctx, c)
	if err := envelopeError(env); err != nil {
		return err
	}
	a.printTable(env.Data)
	return nil
}

func (a *app) byType(ctx context.Context, args []string) error {
	fs := a.newFlagSet("type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	k, err := oneArg(fs, "type")
	if err != nil {
		return err
	}
	env := a.client.GetByType(ctx, k)
	if err := envelopeError(env); err != nil {
		return err
	}
	a.printTable(env.Data)
	return nil
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := a.newFlagSet("summary")
	date := fs.String("date", "", "reference date as YYYY-MM-DD, default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ref := core.DateOf(time.Now())
	if *date != "" {
		d, err := core.ParseDate(*date)
		if err != nil {
			return err
		}
		ref = d
	}

	env := a.client.GetAll(ctx)
	if err := envelopeError(env); err != nil {
		return err
	}
	s := ledger.Summarize(env.Data, ref)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%s\n", s.Total)
	fmt.Fprintf(tw, "This month\t%s\n", s.MonthlyTotal)
	fmt.Fprintf(tw, "Daily average\t%s\n", s.DailyAverage)
	fmt.Fprintf(tw, "Income\t%s\n", s.TotalCredit)
	fmt.Fprintf(tw, "Expenses\t%s\n", s.TotalDebit)
	fmt.Fprintf(tw, "Balance\t%s\n", s.Balance)
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\n", c.Name, c.Amount, c.Share)
	}
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	out := fs.String("o", export.FormatCSV.Filename(), "output file (.csv or .xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, ok := export.ParseFormat(strings.TrimPrefix(filepath.Ext(*out), "."))
	if !ok {
		return fmt.Errorf("unsupported export file %q: use .csv or .xlsx", *out)
	}

	env := a.client.GetAll(ctx)
	if err := envelopeError(env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		fmt.Fprintln(a.out, services.MsgNothingToExport)
		return nil
	}

	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := export.Write(file, f, env.Data); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d transactions to %s\n", len(env.Data), *out)
	return nil
}

func (a *app) printMessage(msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(a.out, msg)
}

func (a *app) printTable(txs []core.Transaction) {
	writeTable(a.out, txs)
}

func writeTable(w io.Writer, txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tKIND\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Kind.Label(), tx.Category.DisplayName(), tx.Amount, tx.Description)
	}
	_ = tw.Flush()
}
