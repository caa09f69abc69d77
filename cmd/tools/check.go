package tools

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/eligibility"
)

type checkCfg struct {
	backendCfg

	action string
}

// NewCheckCmd creates the check command
func NewCheckCmd() *ffcli.Command {
	cfg := &checkCfg{}

	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfg.registerFlags(fs)

	fs.StringVar(
		&cfg.action,
		"action",
		string(eligibility.ActionSend),
		"the monetary action to check (recharge, send)",
	)

	return &ffcli.Command{
		Name:       "check",
		ShortUsage: "check [flags]",
		LongHelp:   "Checks whether the signed-in account may recharge or send",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *checkCfg) exec(ctx context.Context, _ []string) error {
	action, ok := eligibility.ParseAction(c.action)
	if !ok {
		return fmt.Errorf("invalid action %q", c.action)
	}

	backend, err := c.newClient(true)
	if err != nil {
		return err
	}

	profile, err := backend.Me(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch profile, %w", err)
	}

	decision := eligibility.CheckAction(profile.Status, action)

	if decision.Allowed {
		_, err = fmt.Fprintf(c.out(), "%s: allowed (%s)\n", action, profile.Status)

		return err
	}

	_, err = fmt.Fprintf(
		c.out(),
		"%s: denied (%s), go to %s\n%s\n",
		action,
		profile.Status,
		decision.Redirect,
		decision.Prompt,
	)

	return err
}
