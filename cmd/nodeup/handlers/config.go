// Package handlers implements the execution logic behind the CLI commands.
package handlers

import (
	"net/http"

	"github.com/imamik/nodeup/internal/config"
	"github.com/imamik/nodeup/internal/marzban"
)

// loadConfig reads and validates configuration for a command run.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// panelClient builds the management API client from config.
func panelClient(cfg *config.Config) *marzban.RealClient {
	return marzban.NewRealClient(
		cfg.Marzban.BaseURL,
		cfg.Marzban.Username,
		cfg.Marzban.Password,
		marzban.WithHTTPClient(&http.Client{Timeout: cfg.Marzban.RequestTimeout}),
		marzban.WithRetryPolicy(cfg.Marzban.MaxRetries, cfg.Marzban.RetryBaseDelay),
	)
}
