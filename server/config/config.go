package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefaultListenAddress  = "127.0.0.1:8546"
	DefaultBackendURL     = "http://localhost:8001/api"
	DefaultReferenceURL   = "https://www.bcv.org.ve/"
	DefaultRequestTimeout = "15s"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidBackendURL    = errors.New("invalid backend URL")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidRateLimit     = errors.New("invalid rate limit")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level daemon configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The RIS backend the daemon talks to
	Backend *Backend `toml:"backend"`

	// The background polling schedule
	Polling *Polling `toml:"polling"`

	// The official reference rate source
	Reference *Reference `toml:"reference"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// Backend is the RIS backend configuration.
// The session token is never read from the file, only from the environment
type Backend struct {
	// The API base URL, e.g. https://host/api
	BaseURL string `toml:"base_url"`

	// The per-request timeout, as a Go duration
	RequestTimeout string `toml:"request_timeout"`

	// Outbound throttling. A zero rate disables it
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Polling is the background task schedule. Values are Go durations ("30s")
type Polling struct {
	RatesInterval         string `toml:"rates_interval"`
	RatesBackoff          string `toml:"rates_backoff"`
	NotificationsInterval string `toml:"notifications_interval"`
	SupportInterval       string `toml:"support_interval"`
	PixInterval           string `toml:"pix_interval"`
	ReferenceInterval     string `toml:"reference_interval"`
}

// Intervals is the parsed polling schedule
type Intervals struct {
	Rates         time.Duration
	RatesBackoff  time.Duration
	Notifications time.Duration
	Support       time.Duration
	Pix           time.Duration
	Reference     time.Duration
}

// Reference is the official reference rate configuration
type Reference struct {
	URL     string `toml:"url"`
	Enabled bool   `toml:"enabled"`
}

// DefaultConfig returns the default daemon configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Backend:       DefaultBackend(),
		Polling:       DefaultPolling(),
		Reference:     DefaultReference(),
	}
}

// DefaultBackend returns the default backend configuration
func DefaultBackend() *Backend {
	return &Backend{
		BaseURL:           DefaultBackendURL,
		RequestTimeout:    DefaultRequestTimeout,
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// DefaultPolling returns the default polling schedule
func DefaultPolling() *Polling {
	return &Polling{
		RatesInterval:         "30s",
		RatesBackoff:          "5s",
		NotificationsInterval: "60s",
		SupportInterval:       "5s",
		PixInterval:           "5s",
		ReferenceInterval:     "24h",
	}
}

// DefaultReference returns the default reference rate configuration
func DefaultReference() *Reference {
	return &Reference{
		URL:     DefaultReferenceURL,
		Enabled: true,
	}
}

// Timeout returns the parsed request timeout
func (b *Backend) Timeout() (time.Duration, error) {
	return parseDuration("request_timeout", b.RequestTimeout)
}

// Parse parses and checks the polling schedule
func (p *Polling) Parse() (*Intervals, error) {
	var (
		out    Intervals
		fields = []struct {
			dst  *time.Duration
			name string
			raw  string
		}{
			{&out.Rates, "rates_interval", p.RatesInterval},
			{&out.RatesBackoff, "rates_backoff", p.RatesBackoff},
			{&out.Notifications, "notifications_interval", p.NotificationsInterval},
			{&out.Support, "support_interval", p.SupportInterval},
			{&out.Pix, "pix_interval", p.PixInterval},
			{&out.Reference, "reference_interval", p.ReferenceInterval},
		}
	)

	for _, f := range fields {
		d, err := parseDuration(f.name, f.raw)
		if err != nil {
			return nil, err
		}

		*f.dst = d
	}

	return &out, nil
}

// ValidateConfig validates the daemon configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.Backend != nil {
		u, err := url.Parse(config.Backend.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: %q", ErrInvalidBackendURL, config.Backend.BaseURL)
		}

		if _, err := config.Backend.Timeout(); err != nil {
			return err
		}

		if config.Backend.RequestsPerSecond < 0 || config.Backend.Burst < 0 {
			return ErrInvalidRateLimit
		}
	}

	if config.Polling != nil {
		if _, err := config.Polling.Parse(); err != nil {
			return err
		}
	}

	return nil
}

// Read reads the configuration from the given path.
// Sections missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the values the file left out
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaults.ListenAddress
	}

	if cfg.Backend == nil {
		cfg.Backend = defaults.Backend
	}

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}

	if cfg.Backend.RequestTimeout == "" {
		cfg.Backend.RequestTimeout = defaults.Backend.RequestTimeout
	}

	if cfg.Polling == nil {
		cfg.Polling = defaults.Polling
	}

	fillString(&cfg.Polling.RatesInterval, defaults.Polling.RatesInterval)
	fillString(&cfg.Polling.RatesBackoff, defaults.Polling.RatesBackoff)
	fillString(&cfg.Polling.NotificationsInterval, defaults.Polling.NotificationsInterval)
	fillString(&cfg.Polling.SupportInterval, defaults.Polling.SupportInterval)
	fillString(&cfg.Polling.PixInterval, defaults.Polling.PixInterval)
	fillString(&cfg.Polling.ReferenceInterval, defaults.Polling.ReferenceInterval)

	if cfg.Reference == nil {
		cfg.Reference = defaults.Reference
	}

	fillString(&cfg.Reference.URL, defaults.Reference.URL)
}

func fillString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func parseDuration(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidDuration, name, raw)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidDuration, name)
	}

	return d, nil
}
