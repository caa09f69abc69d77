package serve

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/storage/memory"
)

type serveMemoryCfg struct {
	rootCfg *serveCfg
}

// newServeMemoryCmd creates the serve memory command.
func newServeMemoryCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveMemoryCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("memory", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "memory",
		ShortUsage: "serve memory [flags]",
		LongHelp:   "Serves the RIS wallet daemon, keeping the rate history in memory",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveMemoryCfg) exec(ctx context.Context, _ []string) error {
	logger := newLogger(c.rootCfg.logLevel)

	// Load .env
	loadEnv(logger)

	// Read the server configuration, if any
	cfg, err := c.rootCfg.resolveConfig()
	if err != nil {
		return fmt.Errorf("unable to read server config, %w", err)
	}

	// Create an in-memory store
	store := memory.NewStorage()

	w, err := newWallet(cfg, store, logger)
	if err != nil {
		return err
	}

	return w.run(ctx)
}
