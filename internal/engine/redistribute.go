package engine

import (
	"math"
	"sort"

	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/shop"
)

// redistribute moves low-usage vehicles out to the lots when the shop
// runs short on free spaces. Triggered after every return: when fewer
// than ReservedSpaces spaces remain free, the lowest-odometer
// ceil(EvictionFraction * onsite) vehicles are evicted, each to a lot
// chosen independently at random among the shop's configured lots.
//
// A vehicle leaves the on-site set only after its lot write succeeds.
// When the chosen lot's write fails the vehicle stays in the shop and
// the attempt is skipped; no other lot is tried for it in this pass.
func (e *Engine) redistribute(sh *shop.Shop, log *logging.Logger) []Eviction {
	if sh.FreeSpaces() >= e.opts.ReservedSpaces || len(sh.Lots) == 0 {
		return nil
	}

	count := int(math.Ceil(float64(len(sh.Vehicles)) * e.opts.EvictionFraction))
	if count > len(sh.Vehicles) {
		count = len(sh.Vehicles)
	}

	// Victims by ascending odometer: the least-used vehicles go first.
	victims := make([]string, 0, count)
	ordered := make([]int, len(sh.Vehicles))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return sh.Vehicles[ordered[a]].Odometer < sh.Vehicles[ordered[b]].Odometer
	})
	for _, i := range ordered[:count] {
		victims = append(victims, sh.Vehicles[i].Plate)
	}

	var evictions []Eviction
	for _, plate := range victims {
		idx := -1
		for i, v := range sh.Vehicles {
			if v.Plate == plate {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		lotName := sh.Lots[e.opts.RandLot(len(sh.Lots))]
		if err := e.lots.PutOne(lotName, sh.Vehicles[idx]); err != nil {
			log.Warn("eviction skipped, lot write failed",
				"plate", plate, "lot", lotName, "error", err)
			continue
		}
		sh.RemoveAt(idx)
		evictions = append(evictions, Eviction{Plate: plate, Lot: lotName})
		log.Info("vehicle redistributed", "plate", plate, "lot", lotName)
	}
	return evictions
}
