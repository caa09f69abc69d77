// Package tools holds the one-shot risd commands, which talk to the backend directly
package tools

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/server/config"
)

var errMissingToken = errors.New("missing session token")

// backendCfg wraps the backend connection flags shared by the tools
type backendCfg struct {
	output io.Writer

	backendURL string
	timeout    time.Duration
}

func (c *backendCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.backendURL,
		"backend-url",
		config.DefaultBackendURL,
		"the RIS backend API base URL",
	)

	fs.DurationVar(
		&c.timeout,
		"timeout",
		15*time.Second,
		"the request timeout",
	)
}

// newClient creates the backend client. The token is optional for public calls
func (c *backendCfg) newClient(requireToken bool) (*client.Client, error) {
	// Load .env, if present
	_ = godotenv.Load() //nolint:errcheck // Fine to ignore

	token := os.Getenv(env.Prefix + env.SessionTokenSuffix)
	if requireToken && token == "" {
		return nil, fmt.Errorf("%w: set %s", errMissingToken, env.Prefix+env.SessionTokenSuffix)
	}

	return client.New(
		c.backendURL,
		client.WithToken(token),
		client.WithTimeout(c.timeout),
	), nil
}

func (c *backendCfg) out() io.Writer {
	if c.output != nil {
		return c.output
	}

	return os.Stdout
}
