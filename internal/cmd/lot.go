package cmd

import (
	"fmt"

	"github.com/Dampmar/rentalshop/internal/config"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/lot"
	"github.com/Dampmar/rentalshop/internal/plate"
	"github.com/Dampmar/rentalshop/internal/vehicle"
	"github.com/spf13/cobra"
)

var lotCmd = &cobra.Command{
	Use:   "lot",
	Short: "Stock or trim a parking lot inventory",
	Long: `Add newly-created vehicles to a lot, or remove one by plate.
New vehicles get a globally-unique license plate from the persisted
plate index and start with a zero odometer.`,
	RunE: runLot,
}

var (
	lotName        string
	lotAddSedans   int
	lotAddSUVs     int
	lotAddVans     int
	lotRemovePlate string
)

func init() {
	lotCmd.Flags().StringVar(&lotName, "lot-name", "", "lot to operate on (required)")
	lotCmd.Flags().IntVar(&lotAddSedans, "add-sedan", 0, "number of sedans to add")
	lotCmd.Flags().IntVar(&lotAddSUVs, "add-suv", 0, "number of SUVs to add")
	lotCmd.Flags().IntVar(&lotAddVans, "add-van", 0, "number of vans to add")
	lotCmd.Flags().StringVar(&lotRemovePlate, "remove-vehicle", "", "license plate to remove from the lot")
	_ = lotCmd.MarkFlagRequired("lot-name")

	rootCmd.AddCommand(lotCmd)
}

func runLot(cmd *cobra.Command, args []string) error {
	if lotAddSedans < 0 || lotAddSUVs < 0 || lotAddVans < 0 {
		return fmt.Errorf("vehicle counts must be non-negative")
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

	lots := lot.NewStore(cfg.Paths.LotsDir(), log)
	alloc := plate.NewAllocator(cfg.Paths.IndexFile(), log)

	counts := []struct {
		cat vehicle.Category
		n   int
	}{
		{vehicle.Sedan, lotAddSedans},
		{vehicle.SUV, lotAddSUVs},
		{vehicle.Van, lotAddVans},
	}

	var added []vehicle.Vehicle
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			p, err := alloc.Allocate()
			if err != nil {
				return fmt.Errorf("allocate plate: %w", err)
			}
			added = append(added, vehicle.Vehicle{Plate: p, Category: c.cat})
		}
	}

	if len(added) > 0 {
		if err := lots.Add(lotName, added); err != nil {
			return fmt.Errorf("stock lot %s: %w", lotName, err)
		}
		for _, v := range added {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to lot %s\n", v.Plate, v.Category, lotName)
		}
	}

	if lotRemovePlate != "" {
		removed, err := lots.Remove(lotName, lotRemovePlate)
		if err != nil {
			return fmt.Errorf("remove vehicle: %w", err)
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from lot %s\n", lotRemovePlate, lotName)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Vehicle %s not found in lot %s\n", lotRemovePlate, lotName)
		}
	}

	vehicles, err := lots.ListAll(lotName)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Lot %s holds %d vehicle(s)\n", lotName, len(vehicles))
	return nil
}
