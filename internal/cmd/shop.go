package cmd

import (
	"fmt"
	"strings"

	"github.com/Dampmar/rentalshop/internal/config"
	"github.com/Dampmar/rentalshop/internal/engine"
	"github.com/Dampmar/rentalshop/internal/ledger"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/lot"
	"github.com/Dampmar/rentalshop/internal/shop"
	"github.com/Dampmar/rentalshop/internal/tui"
	"github.com/spf13/cobra"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Open a rental shop and run the interactive prompt",
	Long: `Open the shop record for a location, initializing it from the
configured lots on first use, then accept RENT, RETURN, LIST and
TRANSACTIONS commands interactively. Type EXIT to quit.`,
	RunE: runShop,
}

var (
	shopLocation string
	shopSpaces   int
	shopLotNames string
)

func init() {
	shopCmd.Flags().StringVar(&shopLocation, "location", "", "shop location (required)")
	shopCmd.Flags().IntVar(&shopSpaces, "spaces-available", 10, "total parking spaces at the shop")
	shopCmd.Flags().StringVar(&shopLotNames, "lot-names", "", "comma-separated lot names the shop draws from (required)")
	_ = shopCmd.MarkFlagRequired("location")
	_ = shopCmd.MarkFlagRequired("lot-names")

	rootCmd.AddCommand(shopCmd)
}

func runShop(cmd *cobra.Command, args []string) error {
	if shopSpaces <= 0 {
		return fmt.Errorf("spaces-available must be positive, got %d", shopSpaces)
	}
	lotNames := splitNames(shopLotNames)
	if len(lotNames) == 0 {
		return fmt.Errorf("lot-names must name at least one lot")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	eng := buildEngine(cfg, log)
	if _, err := eng.Open(shopLocation, shopSpaces, lotNames); err != nil {
		return fmt.Errorf("open shop %s: %w", shopLocation, err)
	}

	return tui.Run(eng, shopLocation)
}

// buildEngine assembles the stores and engine from configuration.
func buildEngine(cfg *config.Config, log *logging.Logger) *engine.Engine {
	shops := shop.NewStore(cfg.Paths.ShopsDir(), log)
	lots := lot.NewStore(cfg.Paths.LotsDir(), log)
	led := ledger.New(cfg.Paths.RentalsFile(), log)
	return engine.New(shops, lots, led, engine.Options{
		LotDiscount:      cfg.Rental.LotDiscount,
		ReservedSpaces:   cfg.Rental.ReservedSpaces,
		EvictionFraction: cfg.Rental.EvictionFraction,
	}, log)
}

// splitNames parses a comma-separated flag value, dropping empties.
func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
