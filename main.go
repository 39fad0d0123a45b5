package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"marketsignal/service"
	"marketsignal/shared"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	timeframe, err := shared.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		log.Printf("parsing timeframe: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCfg := service.SignalConfig{
		Markets:         cfg.Markets,
		Timeframe:       timeframe,
		EvalInterval:    time.Duration(cfg.EvalIntervalSeconds) * time.Second,
		BrokerURL:       cfg.BrokerURL,
		ClientID:        int64(cfg.ClientID),
		JournalEndpoint: cfg.JournalEndpoint,
		JournalUser:     cfg.JournalUser,
		JournalPass:     cfg.JournalPass,
		MetricsAddr:     cfg.MetricsAddr,
		Cancel:          cancel,
	}
	svc, err := service.NewSignal(&signalCfg)
	if err != nil {
		log.Printf("creating signal service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	svc.Run(ctx)
}
