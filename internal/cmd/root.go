// Package cmd wires the rentalshop command-line interface. Commands
// are thin adapters: they validate flags, assemble the stores and
// engine, and hand off — all rental semantics live in the engine and
// store packages.
package cmd

import (
	"strings"

	"github.com/Dampmar/rentalshop/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "rentalshop",
	Short: "Flat-file vehicle rental shop",
	Long: `Rentalshop runs a vehicle rental location backed by flat-file
storage shared across independent parking-lot inventories and a
central shop ledger. Multiple shop processes may run concurrently
against the same files; mutual exclusion is enforced with per-file
locks.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/rentalshop/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RENTALSHOP")
	// Replace dots with underscores for nested keys in env vars,
	// e.g. RENTALSHOP_PATHS_DATA_DIR for paths.data_dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
