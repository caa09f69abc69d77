package tools

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/rates"
)

type convertCfg struct {
	backendCfg

	direction string
	driven    string
}

// NewConvertCmd creates the convert command
func NewConvertCmd() *ffcli.Command {
	cfg := &convertCfg{}

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cfg.registerFlags(fs)

	fs.StringVar(
		&cfg.direction,
		"direction",
		rates.RisToVes.String(),
		"the conversion direction (ris_to_ves, ves_to_ris, ris_to_brl)",
	)

	fs.StringVar(
		&cfg.driven,
		"driven",
		rates.Input.String(),
		"the field the amount is typed into (input, output)",
	)

	return &ffcli.Command{
		Name:       "convert",
		ShortUsage: "convert [flags] <amount>",
		LongHelp:   "Converts an amount using the current published rates",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *convertCfg) exec(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return flag.ErrHelp
	}

	direction, err := rates.ParseDirection(strings.TrimSpace(c.direction))
	if err != nil {
		return err
	}

	driven, ok := rates.ParseField(c.driven)
	if !ok {
		return fmt.Errorf("invalid driven field %q", c.driven)
	}

	backend, err := c.newClient(false)
	if err != nil {
		return err
	}

	table, err := backend.FetchRates(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch rates, %w", err)
	}

	pair := rates.NewAmountPair(direction)

	if driven == rates.Output {
		pair.EditOutput(args[0], table)
	} else {
		pair.EditInput(args[0], table)
	}

	if err := pair.Err(); err != nil {
		return fmt.Errorf("unable to convert amount, %w", err)
	}

	rate, _ := table.Rate(direction)

	_, err = fmt.Fprintf(
		c.out(),
		"%s: %s -> %s (rate %s)\n",
		direction,
		pair.Input,
		pair.Output,
		rate.String(),
	)

	return err
}
