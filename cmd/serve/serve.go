package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/server/config"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath    string
	listenAddress string
	backendURL    string
	logLevel      string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the RIS wallet daemon",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		"the IP:PORT URL for the server (default "+config.DefaultListenAddress+")",
	)

	fs.StringVar(
		&c.backendURL,
		"backend-url",
		"",
		"the RIS backend API base URL (default "+config.DefaultBackendURL+")",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)

	fs.StringVar(
		&c.logLevel,
		"log-level",
		"info",
		"the log level (debug, info, warn, error)",
	)
}

// resolveConfig reads the configuration file, if any, and applies the flag overrides
func (c *serveCfg) resolveConfig() (*config.Config, error) {
	cfg := c.config

	if c.configPath != "" {
		fileCfg, err := config.Read(c.configPath)
		if err != nil {
			return nil, err
		}

		cfg = fileCfg
	}

	if c.listenAddress != "" {
		cfg.ListenAddress = c.listenAddress
	}

	if c.backendURL != "" {
		cfg.Backend.BaseURL = c.backendURL
	}

	return cfg, config.ValidateConfig(cfg)
}
