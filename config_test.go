package main

import (
	"flag"
	"os"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: Config{
				Markets:             []string{"ES", "NQ"},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "5m",
				EvalIntervalSeconds: 60,
			},
			wantErr: nil,
		},
		{
			name: "missing markets",
			cfg: Config{
				Markets:             []string{},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "5m",
				EvalIntervalSeconds: 60,
			},
			wantErr: []string{"no markets provided for signal service"},
		},
		{
			name: "missing broker url",
			cfg: Config{
				Markets:             []string{"ES"},
				BrokerURL:           "",
				Timeframe:           "5m",
				EvalIntervalSeconds: 60,
			},
			wantErr: []string{"broker url cannot be an empty string"},
		},
		{
			name: "missing both markets and broker url",
			cfg: Config{
				Markets:             []string{},
				BrokerURL:           "",
				Timeframe:           "5m",
				EvalIntervalSeconds: 60,
			},
			wantErr: []string{
				"no markets provided for signal service",
				"broker url cannot be an empty string",
			},
		},
		{
			name: "unknown timeframe",
			cfg: Config{
				Markets:             []string{"ES"},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "42m",
				EvalIntervalSeconds: 60,
			},
			wantErr: []string{"unknown timeframe"},
		},
		{
			name: "non-positive evaluation interval",
			cfg: Config{
				Markets:             []string{"ES"},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "5m",
				EvalIntervalSeconds: 0,
			},
			wantErr: []string{"evaluation interval must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env",
			env: map[string]string{
				"markets":   "ES,NQ",
				"brokerurl": "ws://localhost:4002/stream",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				Markets:             []string{"ES", "NQ"},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "5m",
				EvalIntervalSeconds: 60,
				ClientID:            1,
			},
		},
		{
			name:      "all from flags",
			env:       map[string]string{},
			args:      []string{"cmd", "-markets=ES,NQ", "-brokerurl=ws://localhost:4002/stream", "-timeframe=1H", "-evalintervalseconds=30"},
			expectErr: false,
			expectCfg: Config{
				Markets:             []string{"ES", "NQ"},
				BrokerURL:           "ws://localhost:4002/stream",
				Timeframe:           "1H",
				EvalIntervalSeconds: 30,
				ClientID:            1,
			},
		},
		{
			name:        "missing markets and broker url",
			env:         map[string]string{},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"no markets provided for signal service", "broker url cannot be an empty string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // don't load .env file

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(tt.expectCfg.Markets) != len(cfg.Markets) {
					t.Errorf("Markets: got %v, want %v", cfg.Markets, tt.expectCfg.Markets)
				}
				if cfg.BrokerURL != tt.expectCfg.BrokerURL {
					t.Errorf("BrokerURL: got %v, want %v", cfg.BrokerURL, tt.expectCfg.BrokerURL)
				}
				if cfg.Timeframe != tt.expectCfg.Timeframe {
					t.Errorf("Timeframe: got %v, want %v", cfg.Timeframe, tt.expectCfg.Timeframe)
				}
				if cfg.EvalIntervalSeconds != tt.expectCfg.EvalIntervalSeconds {
					t.Errorf("EvalIntervalSeconds: got %v, want %v", cfg.EvalIntervalSeconds, tt.expectCfg.EvalIntervalSeconds)
				}
				if cfg.ClientID != tt.expectCfg.ClientID {
					t.Errorf("ClientID: got %v, want %v", cfg.ClientID, tt.expectCfg.ClientID)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
