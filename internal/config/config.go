package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	DefaultBaudRate     = 115200
	DefaultFirmwareRoot = "bin"
)

// Config holds all sigflash configuration.
type Config struct {
	FirmwareRoot   string `json:"firmware_root,omitempty"`
	SerialPort     string `json:"serial_port,omitempty"`
	SerialBaudRate int    `json:"serial_baud_rate,omitempty"`
	EsptoolPath    string `json:"esptool_path,omitempty"`
	LastVersion    string `json:"last_version,omitempty"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		FirmwareRoot:   DefaultFirmwareRoot,
		SerialBaudRate: DefaultBaudRate,
	}
}

// Load reads and merges global and local configs.
// Order: defaults → global (~/.config/sigflash/config.json) → local
// (<root>/.sigflash/config.json).
func Load(root string) Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(home, ".config", "sigflash", "config.json")
		mergeFromFile(&cfg, globalPath)
	}

	if root != "" {
		localPath := filepath.Join(root, ".sigflash", "config.json")
		mergeFromFile(&cfg, localPath)
	}

	return cfg
}

// Save writes the config to <root>/.sigflash/config.json by default, or to
// the global config if global is true.
func Save(cfg Config, root string, global bool) error {
	var dir string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".config", "sigflash")
	} else {
		dir = filepath.Join(root, ".sigflash")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return
	}

	if fileCfg.FirmwareRoot != "" {
		cfg.FirmwareRoot = fileCfg.FirmwareRoot
	}
	if fileCfg.SerialPort != "" {
		cfg.SerialPort = fileCfg.SerialPort
	}
	if fileCfg.SerialBaudRate != 0 {
		cfg.SerialBaudRate = fileCfg.SerialBaudRate
	}
	if fileCfg.EsptoolPath != "" {
		cfg.EsptoolPath = fileCfg.EsptoolPath
	}
	if fileCfg.LastVersion != "" {
		cfg.LastVersion = fileCfg.LastVersion
	}
}
