package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imamik/nodeup/internal/audit"
	"github.com/imamik/nodeup/internal/bot"
	"github.com/imamik/nodeup/internal/geoip"
	"github.com/imamik/nodeup/internal/logger"
	"github.com/imamik/nodeup/internal/orchestrator"
	"github.com/imamik/nodeup/internal/provision"
	"github.com/imamik/nodeup/internal/transport/console"
)

// Serve handles the serve command.
//
// It wires configuration into the full stack: Marzban client, SSH
// provisioner, orchestrator, conversation state machine, and the terminal
// transport. Blocks until the UI exits or the process is signalled.
func Serve(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.L().Named("serve")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr, log)
	}

	sink := audit.NewZapSink(logger.L())
	client := panelClient(cfg)
	geo := geoip.NewClient()
	prov := provision.NewProvisioner(provision.Options{
		ConnectTimeout: cfg.SSH.ConnectTimeout,
		StageTimeout:   cfg.SSH.StageTimeout,
		TotalTimeout:   cfg.SSH.TotalTimeout,
	})
	orch := orchestrator.New(prov, client, geo, sink)

	// The console transport serves the first configured admin.
	adminID := cfg.Bot.AdminIDs[0]
	transport := console.New(adminID)
	b := bot.New(cfg, transport, orch, client, geo, sink)
	defer b.Close()

	log.Info("starting node manager",
		zap.Int64("admin_id", adminID),
		zap.String("panel", cfg.Marzban.BaseURL))

	return transport.Run(ctx, b.HandleUpdate)
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("metrics listener starting", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics listener stopped", zap.Error(err))
	}
}
