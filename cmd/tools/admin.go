package tools

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/shopspring/decimal"

	"github.com/sig-0/ris/cmd/env"
)

// NewAdminCmd creates the admin command, for back-office operations
func NewAdminCmd() *ffcli.Command {
	cfg := &backendCfg{}

	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "admin",
		ShortUsage: "admin <subcommand> [flags] [<arg>...]",
		LongHelp:   "Runs back-office operations. The session token must belong to an admin",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newAdminCmd(
			cfg,
			"set-rate",
			"admin set-rate <ris_to_ves>",
			"Publishes a new RIS to VES rate",
			setRate,
		),
		newAdminCmd(
			cfg,
			"pending",
			"admin pending",
			"Lists the verification submissions awaiting review",
			listPending,
		),
		newAdminCmd(
			cfg,
			"decide",
			"admin decide <user_id> approve|reject [reason]",
			"Approves or rejects a verification submission",
			decide,
		),
		newAdminCmd(
			cfg,
			"export",
			"admin export <file.xlsx|->",
			"Exports every transaction to a spreadsheet, or to stdout with -",
			exportTransactions,
		),
	}

	return cmd
}

type adminExec func(ctx context.Context, cfg *backendCfg, args []string) error

func newAdminCmd(cfg *backendCfg, name, usage, help string, exec adminExec) *ffcli.Command {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       name,
		ShortUsage: usage,
		LongHelp:   help,
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return exec(ctx, cfg, args)
		},
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func setRate(ctx context.Context, cfg *backendCfg, args []string) error {
	if len(args) != 1 {
		return flag.ErrHelp
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(args[0]))
	if err != nil || !rate.IsPositive() {
		return fmt.Errorf("invalid rate %q, must be a positive number", args[0])
	}

	backend, err := cfg.newClient(true)
	if err != nil {
		return err
	}

	if err := backend.UpdateRate(ctx, rate); err != nil {
		return fmt.Errorf("unable to update rate, %w", err)
	}

	_, err = fmt.Fprintf(cfg.out(), "ris_to_ves set to %s\n", rate)

	return err
}

func listPending(ctx context.Context, cfg *backendCfg, _ []string) error {
	backend, err := cfg.newClient(true)
	if err != nil {
		return err
	}

	pending, err := backend.PendingVerifications(ctx)
	if err != nil {
		return fmt.Errorf("unable to list pending verifications, %w", err)
	}

	if len(pending) == 0 {
		_, err = fmt.Fprintln(cfg.out(), "no pending verifications")

		return err
	}

	for _, p := range pending {
		if _, err := fmt.Fprintf(cfg.out(), "%s\t%s\t%s\n", p.UserID, p.Email, p.Name); err != nil {
			return err
		}
	}

	return nil
}

func decide(ctx context.Context, cfg *backendCfg, args []string) error {
	if len(args) < 2 {
		return flag.ErrHelp
	}

	var approved bool

	switch strings.ToLower(args[1]) {
	case "approve":
		approved = true
	case "reject":
	default:
		return flag.ErrHelp
	}

	reason := strings.Join(args[2:], " ")

	backend, err := cfg.newClient(true)
	if err != nil {
		return err
	}

	if err := backend.DecideVerification(ctx, args[0], approved, reason); err != nil {
		return fmt.Errorf("unable to decide verification, %w", err)
	}

	_, err = fmt.Fprintf(cfg.out(), "verification of %s decided: %s\n", args[0], args[1])

	return err
}

func exportTransactions(ctx context.Context, cfg *backendCfg, args []string) (err error) {
	if len(args) != 1 {
		return flag.ErrHelp
	}

	backend, err := cfg.newClient(true)
	if err != nil {
		return err
	}

	var w io.Writer = cfg.out()

	if args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("unable to create %s, %w", args[0], err)
		}

		defer func() {
			err = errors.Join(err, f.Close())
		}()

		w = f
	}

	n, err := backend.ExportTransactions(ctx, w)
	if err != nil {
		return fmt.Errorf("unable to export transactions, %w", err)
	}

	if args[0] == "-" {
		return nil
	}

	_, err = fmt.Fprintf(cfg.out(), "exported %d bytes to %s\n", n, args[0])

	return err
}
