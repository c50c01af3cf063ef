// Package config defines the rentalshop configuration surface and its
// viper bindings. Configuration comes from (in increasing precedence)
// built-in defaults, an optional YAML config file, RENTALSHOP_* environment
// variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete rentalshop configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Rental  RentalConfig  `mapstructure:"rental"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig controls where the flat-file state lives.
type PathsConfig struct {
	// DataDir is the root directory for lots/, shops/ and indexes/.
	DataDir string `mapstructure:"data_dir"`
}

// RentalConfig controls rental business rules.
type RentalConfig struct {
	// LotDiscount applies the flat 10% discount to rentals fulfilled
	// from a lot rather than from the shop's on-site inventory.
	LotDiscount bool `mapstructure:"lot_discount"`
	// ReservedSpaces is how many on-site spaces the shop keeps free;
	// dropping below this triggers redistribution to the lots.
	ReservedSpaces int `mapstructure:"reserved_spaces"`
	// EvictionFraction is the fraction of on-site vehicles moved out
	// when redistribution triggers (rounded up).
	EvictionFraction float64 `mapstructure:"eviction_fraction"`
}

// LoggingConfig controls the debug log.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// File is the log file path. Empty logs to stderr.
	File string `mapstructure:"file"`
}

// SetDefaults registers default values with viper. Call before reading
// any config file so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("paths.data_dir", "files")
	viper.SetDefault("rental.lot_discount", true)
	viper.SetDefault("rental.reserved_spaces", 2)
	viper.SetDefault("rental.eviction_fraction", 0.2)
	viper.SetDefault("logging.level", "INFO")
	viper.SetDefault("logging.file", "")
}

// Load unmarshals the current viper state into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if c.Rental.ReservedSpaces < 0 {
		return fmt.Errorf("rental.reserved_spaces must be non-negative, got %d", c.Rental.ReservedSpaces)
	}
	if c.Rental.EvictionFraction <= 0 || c.Rental.EvictionFraction > 1 {
		return fmt.Errorf("rental.eviction_fraction must be in (0, 1], got %v", c.Rental.EvictionFraction)
	}
	return nil
}

// ConfigDir returns the user config directory for rentalshop.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "rentalshop")
}

// LotsDir returns the directory holding lot files.
func (p PathsConfig) LotsDir() string {
	return filepath.Join(p.DataDir, "lots")
}

// ShopsDir returns the directory holding shop record files and the
// rental ledger.
func (p PathsConfig) ShopsDir() string {
	return filepath.Join(p.DataDir, "shops")
}

// LotFile returns the path of a lot's inventory file.
func (p PathsConfig) LotFile(name string) string {
	return filepath.Join(p.LotsDir(), name+".txt")
}

// ShopFile returns the path of a shop's record file.
func (p PathsConfig) ShopFile(location string) string {
	return filepath.Join(p.ShopsDir(), location+".txt")
}

// RentalsFile returns the path of the shared rental ledger.
func (p PathsConfig) RentalsFile() string {
	return filepath.Join(p.ShopsDir(), "rentals.txt")
}

// IndexFile returns the path of the license plate index.
func (p PathsConfig) IndexFile() string {
	return filepath.Join(p.DataDir, "indexes", "index.txt")
}
