// Package engine orchestrates rental shop operations over the flat-file
// stores. Every operation reloads the freshest shop snapshot, consults
// on-site inventory before falling back to the lots, updates the rental
// ledger, and persists the shop record last.
//
// Locks are scoped to a single file and held only for one load or save,
// never across a whole operation. Two engines racing on the same shop
// can therefore each reload a stale snapshot and overwrite the other's
// update; that lost-update hazard is inherent to the per-file locking
// granularity and is accepted, not eliminated.
package engine

import (
	"fmt"
	"math/rand"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/ledger"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/lot"
	"github.com/Dampmar/rentalshop/internal/shop"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// discountRate is the flat discount applied to lot-sourced rentals.
const discountRate = 0.9

// Options tunes engine policy. The zero value of RandLot falls back to
// a uniform draw; the other fields are taken as configured.
type Options struct {
	// LotDiscount grants the 10% discount to rentals fulfilled from a
	// lot instead of on-site inventory.
	LotDiscount bool
	// ReservedSpaces is the free-space floor below which redistribution
	// triggers after a return.
	ReservedSpaces int
	// EvictionFraction is the fraction of on-site vehicles evicted per
	// redistribution pass, rounded up.
	EvictionFraction float64
	// RandLot picks an index in [0, n) when choosing a destination lot
	// for an evicted vehicle. Defaults to a uniform draw; tests inject
	// a deterministic one.
	RandLot func(n int) int
}

// Engine composes the shop store, lot store, and rental ledger.
// Stores never call each other; all control flows through here.
type Engine struct {
	shops  *shop.Store
	lots   *lot.Store
	ledger *ledger.Ledger
	opts   Options
	log    *logging.Logger
}

// New creates an Engine over the given stores.
func New(shops *shop.Store, lots *lot.Store, led *ledger.Ledger, opts Options, log *logging.Logger) *Engine {
	if opts.RandLot == nil {
		opts.RandLot = rand.Intn
	}
	return &Engine{shops: shops, lots: lots, ledger: led, opts: opts, log: log}
}

// RentResult describes a successful rental.
type RentResult struct {
	Vehicle  vehicle.Vehicle
	Discount bool
	FromLot  string // empty when fulfilled from on-site inventory
}

// ReturnResult describes a successful return.
type ReturnResult struct {
	Vehicle   vehicle.Vehicle // with updated odometer
	Charge    float64
	Discount  bool
	Evictions []Eviction // vehicles redistributed to lots afterwards
}

// Eviction records one vehicle moved from the shop to a lot during
// redistribution.
type Eviction struct {
	Plate string
	Lot   string
}

// Open loads the shop record for a location, initializing a fresh one
// from the configured lots when no record exists yet.
func (e *Engine) Open(location string, spaces int, lots []string) (*shop.Shop, error) {
	sh, err := e.shops.Load(location)
	if err == nil {
		return sh, nil
	}
	if !errors.IsAbsent(err) {
		return nil, err
	}
	return e.shops.Initialize(location, spaces, lots, e.lots)
}

// Rent fulfills a rental request for a category. On-site inventory is
// searched first (no discount); otherwise the configured lots are
// polled in listed order and the lot discount policy applies. The
// vehicle is recorded in the rental ledger before the shop record is
// persisted.
func (e *Engine) Rent(location, category string) (RentResult, error) {
	log := e.log.WithShop(location).WithOp("rent")

	cat, err := vehicle.ParseCategory(category)
	if err != nil {
		return RentResult{}, err
	}

	sh, err := e.shops.Load(location)
	if err != nil {
		return RentResult{}, err
	}

	var v vehicle.Vehicle
	var fromLot string
	discount := false

	if idx := sh.FindCategory(cat); idx >= 0 {
		v = sh.RemoveAt(idx)
	} else {
		v, fromLot, err = e.takeFromLots(sh.Lots, cat, log)
		if err != nil {
			return RentResult{}, err
		}
		discount = e.opts.LotDiscount
	}

	if err := e.ledger.Checkout(ledger.Record{Vehicle: v, Discount: discount}); err != nil {
		// The rental did not commit. The vehicle goes back to the
		// on-site set in memory regardless of where it came from; a
		// lot-sourced vehicle is not re-inserted into its lot file.
		// The shop record is not persisted on this path.
		sh.Vehicles = append(sh.Vehicles, v)
		log.Error("ledger checkout failed", "plate", v.Plate, "error", err)
		return RentResult{}, err
	}

	if err := e.shops.Save(sh); err != nil {
		return RentResult{}, err
	}

	log.Info("vehicle rented", "plate", v.Plate, "category", v.Category,
		"from_lot", fromLot, "discount", discount)
	return RentResult{Vehicle: v, Discount: discount, FromLot: fromLot}, nil
}

// takeFromLots polls every configured lot in listed order for one
// vehicle of the category. Lots that fail to yield — empty, missing,
// or unreadable — are skipped.
func (e *Engine) takeFromLots(lots []string, cat vehicle.Category, log *logging.Logger) (vehicle.Vehicle, string, error) {
	for _, name := range lots {
		v, err := e.lots.TakeOne(name, cat)
		if err == nil {
			return v, name, nil
		}
		if !errors.IsNotFound(err) {
			log.Warn("lot unavailable", "lot", name, "error", err)
		}
	}
	return vehicle.Vehicle{}, "", fmt.Errorf("no %s in shop or lots: %w", cat, errors.ErrNoInventory)
}

// Return completes a rental: charges for the distance driven, rolls
// the odometer forward, records the transaction, restores the vehicle
// on site, clears the ledger entry, and runs the redistribution policy
// before persisting the shop record.
func (e *Engine) Return(location, plate string, distanceKm int) (ReturnResult, error) {
	log := e.log.WithShop(location).WithOp("return")

	if distanceKm < 0 {
		return ReturnResult{}, errors.NewValidationError(
			"distance", fmt.Sprintf("%d", distanceKm), errors.ErrInvalidDistance)
	}

	sh, err := e.shops.Load(location)
	if err != nil {
		return ReturnResult{}, err
	}

	rec, err := e.ledger.Lookup(plate)
	if err != nil {
		if errors.IsAbsent(err) {
			return ReturnResult{}, fmt.Errorf("%s: %w", plate, errors.ErrNotRented)
		}
		return ReturnResult{}, err
	}

	charge := float64(distanceKm)
	if rec.Discount {
		charge *= discountRate
	}

	v := rec.Vehicle
	v.Odometer += distanceKm

	sh.Transactions = append(sh.Transactions, shop.Transaction{
		Plate:    v.Plate,
		Distance: distanceKm,
		Discount: rec.Discount,
		Amount:   charge,
	})
	sh.Balance += charge
	sh.Vehicles = append(sh.Vehicles, v)

	// Clear the ledger entry before persisting the shop so a crash
	// between the two cannot show the vehicle in both places.
	if err := e.ledger.Checkin(plate); err != nil {
		return ReturnResult{}, err
	}

	evictions := e.redistribute(sh, log)

	if err := e.shops.Save(sh); err != nil {
		return ReturnResult{}, err
	}

	log.Info("vehicle returned", "plate", v.Plate, "distance_km", distanceKm,
		"charge", charge, "evictions", len(evictions))
	return ReturnResult{Vehicle: v, Charge: charge, Discount: rec.Discount, Evictions: evictions}, nil
}

// List returns the freshest shop snapshot. Pure read, no mutation.
func (e *Engine) List(location string) (*shop.Shop, error) {
	return e.shops.Load(location)
}

// Transactions returns the shop's transaction history. Pure read.
func (e *Engine) Transactions(location string) ([]shop.Transaction, error) {
	sh, err := e.shops.Load(location)
	if err != nil {
		return nil, err
	}
	return sh.Transactions, nil
}
