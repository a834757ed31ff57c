package core

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default custody limits.
const (
	DefaultInventoryCapacity    = 20
	DefaultWarehouseCapacity    = 100
	DefaultWarehouseMaxCapacity = 500
	DefaultWarehousePageSize    = 50
	DefaultMaxSelection         = 50
	DefaultToggleDebounce       = 100 * time.Millisecond
	DefaultAutosaveInterval     = 60 * time.Second
)

// Config captures the tunable limits of a Vault.
type Config struct {
	InventoryCapacity    int
	WarehouseCapacity    int
	WarehouseMaxCapacity int
	WarehousePageSize    int
	MaxSelection         int
	ToggleDebounce       time.Duration
	AutosaveInterval     time.Duration
	PersistPositions     bool
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		InventoryCapacity:    DefaultInventoryCapacity,
		WarehouseCapacity:    DefaultWarehouseCapacity,
		WarehouseMaxCapacity: DefaultWarehouseMaxCapacity,
		WarehousePageSize:    DefaultWarehousePageSize,
		MaxSelection:         DefaultMaxSelection,
		ToggleDebounce:       DefaultToggleDebounce,
		AutosaveInterval:     DefaultAutosaveInterval,
		PersistPositions:     true,
	}
}

// Validate reports configuration values the stores cannot honour.
func (c Config) Validate() error {
	switch {
	case c.InventoryCapacity <= 0:
		return fmt.Errorf("inventory capacity must be positive, got %d", c.InventoryCapacity)
	case c.WarehouseCapacity <= 0:
		return fmt.Errorf("warehouse capacity must be positive, got %d", c.WarehouseCapacity)
	case c.WarehouseMaxCapacity < c.WarehouseCapacity:
		return fmt.Errorf("warehouse ceiling %d below capacity %d", c.WarehouseMaxCapacity, c.WarehouseCapacity)
	case c.WarehousePageSize <= 0:
		return fmt.Errorf("warehouse page size must be positive, got %d", c.WarehousePageSize)
	case c.MaxSelection <= 0:
		return fmt.Errorf("max selection must be positive, got %d", c.MaxSelection)
	case c.ToggleDebounce < 0 || c.AutosaveInterval < 0:
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// ConfigFromEnv overlays SAMPLEVAULT_* environment variables on DefaultConfig.
//
//	SAMPLEVAULT_INVENTORY_CAPACITY
//	SAMPLEVAULT_WAREHOUSE_CAPACITY
//	SAMPLEVAULT_WAREHOUSE_MAX_CAPACITY
//	SAMPLEVAULT_WAREHOUSE_PAGE_SIZE
//	SAMPLEVAULT_MAX_SELECTION
//	SAMPLEVAULT_TOGGLE_DEBOUNCE (Go duration)
//	SAMPLEVAULT_AUTOSAVE_INTERVAL (Go duration, 0 disables)
//	SAMPLEVAULT_PERSIST_POSITIONS (bool)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	ints := []struct {
		key    string
		target *int
	}{
		{"SAMPLEVAULT_INVENTORY_CAPACITY", &cfg.InventoryCapacity},
		{"SAMPLEVAULT_WAREHOUSE_CAPACITY", &cfg.WarehouseCapacity},
		{"SAMPLEVAULT_WAREHOUSE_MAX_CAPACITY", &cfg.WarehouseMaxCapacity},
		{"SAMPLEVAULT_WAREHOUSE_PAGE_SIZE", &cfg.WarehousePageSize},
		{"SAMPLEVAULT_MAX_SELECTION", &cfg.MaxSelection},
	}
	for _, entry := range ints {
		raw := os.Getenv(entry.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", entry.key, err)
		}
		*entry.target = v
	}
	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SAMPLEVAULT_TOGGLE_DEBOUNCE", &cfg.ToggleDebounce},
		{"SAMPLEVAULT_AUTOSAVE_INTERVAL", &cfg.AutosaveInterval},
	}
	for _, entry := range durations {
		raw := os.Getenv(entry.key)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", entry.key, err)
		}
		*entry.target = v
	}
	if raw := os.Getenv("SAMPLEVAULT_PERSIST_POSITIONS"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SAMPLEVAULT_PERSIST_POSITIONS: %w", err)
		}
		cfg.PersistPositions = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
