package obslog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ClientConfig mirrors the on-disk JSON log configuration file shape:
//
//	{"common": {"log_level": "DEBUG", "log_path": "/var/log/coldwave.log"}}
//
// A human-editable file whose path is passed to LoadClientConfig, read
// once at startup rather than per call.
type ClientConfig struct {
	Common *ClientConfigCommonProps `json:"common"`
}

type ClientConfigCommonProps struct {
	LogLevel *string `json:"log_level"`
	LogPath  *string `json:"log_path"`
}

// LoadClientConfig reads filePath and applies its log_level/log_path onto
// the package-wide logger. An empty filePath is a no-op, matching the
// common case of no config file configured.
func LoadClientConfig(filePath string) (*ClientConfig, error) {
	if filePath == "" {
		return nil, nil
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("obslog: reading client config: %w", err)
	}
	var cfg ClientConfig
	if err := json.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("obslog: parsing client config: %w", err)
	}
	if err := validateClientConfig(&cfg); err != nil {
		return nil, fmt.Errorf("obslog: parsing client config: %w", err)
	}
	if err := applyClientConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateClientConfig(cfg *ClientConfig) error {
	if cfg.Common == nil {
		return errors.New("common section in client config not found")
	}
	if cfg.Common.LogLevel != nil && *cfg.Common.LogLevel != "" {
		if _, err := ParseLevel(*cfg.Common.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

func applyClientConfig(cfg *ClientConfig) error {
	if cfg.Common.LogPath != nil && *cfg.Common.LogPath != "" {
		f, err := os.OpenFile(*cfg.Common.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("obslog: opening log_path: %w", err)
		}
		SetWriter(f)
	}
	if cfg.Common.LogLevel != nil && *cfg.Common.LogLevel != "" {
		level, err := ParseLevel(*cfg.Common.LogLevel)
		if err != nil {
			return err
		}
		SetLevel(level)
	}
	return nil
}
