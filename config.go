package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"marketsignal/shared"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// BrokerURL is the brokerage websocket endpoint.
	BrokerURL string
	// ClientID is the initial broker client id.
	ClientID int
	// Timeframe is the bar timeframe evaluated for signals.
	Timeframe string
	// EvalIntervalSeconds is the cadence of per-market evaluations.
	EvalIntervalSeconds int
	// JournalEndpoint is the signal journal endpoint. Journaling is
	// disabled when empty.
	JournalEndpoint string
	// JournalUser is the journal database user.
	JournalUser string
	// JournalPass is the journal database user pass.
	JournalPass string
	// MetricsAddr is the listen address for the metrics endpoint.
	MetricsAddr string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for signal service"))
	}
	if cfg.BrokerURL == "" {
		errs = errors.Join(errs, fmt.Errorf("broker url cannot be an empty string"))
	}
	if cfg.EvalIntervalSeconds <= 0 {
		errs = errors.Join(errs, fmt.Errorf("evaluation interval must be positive"))
	}
	if _, err := shared.ParseTimeframe(cfg.Timeframe); err != nil {
		errs = errors.Join(errs, err)
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("markets", &cfg.Markets, "the tracked markets")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("brokerurl", &cfg.BrokerURL, "the brokerage websocket endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("clientid", &cfg.ClientID, "the initial broker client id")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("timeframe", &cfg.Timeframe, "the evaluated bar timeframe")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("evalintervalseconds", &cfg.EvalIntervalSeconds, "the per-market evaluation cadence in seconds")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("journalendpoint", &cfg.JournalEndpoint, "the signal journal endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("journaluser", &cfg.JournalUser, "the journal database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("journalpass", &cfg.JournalPass, "the journal database user pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("metricsaddr", &cfg.MetricsAddr, "the metrics endpoint listen address")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for optional fields.
	if cfg.Timeframe == "" {
		cfg.Timeframe = shared.FiveMinute.String()
	}
	if cfg.EvalIntervalSeconds == 0 {
		cfg.EvalIntervalSeconds = 60
	}
	if cfg.ClientID == 0 {
		cfg.ClientID = 1
	}

	return cfg.Validate()
}
