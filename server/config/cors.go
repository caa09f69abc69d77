package config

import "net/http"

// CORS is the CORS configuration of the local API
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// DefaultCORSConfig returns the default CORS configuration.
// The wallet UI is served from a local dev server or webview, on any port.
// The allowed origins also gate the websocket stream
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}
}
