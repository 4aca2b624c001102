package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/nodeup/internal/config"
)

// Validate handles the validate command. It loads configuration and reports
// every problem found, without contacting the panel or any server.
func Validate(_ context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Println("Configuration OK:")
	fmt.Printf("  admins:        %d\n", len(cfg.Bot.AdminIDs))
	fmt.Printf("  panel:         %s\n", cfg.Marzban.BaseURL)
	fmt.Printf("  default ports: %d:%d\n", cfg.Node.DefaultServicePort, cfg.Node.DefaultAPIPort)
	if cfg.Metrics.ListenAddr != "" {
		fmt.Printf("  metrics:       %s\n", cfg.Metrics.ListenAddr)
	}
	return nil
}
