// Package shop persists a rental shop's record — on-site inventory,
// balance, configured lots, and transaction history — as a single
// structured text file per location. Load runs under a shared lock,
// Save truncates and rewrites the whole record under an exclusive
// lock, so readers honoring the lock never observe a half-written
// record.
package shop

import (
	"fmt"
	"strings"

	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// Shop is the in-memory form of one location's record file. The shop
// exclusively owns its balance and transaction log; lots are borrowed
// from, never owned.
type Shop struct {
	Location     string
	Spaces       int // total parking spaces
	Balance      float64
	Lots         []string // lot names in configured order
	Vehicles     []vehicle.Vehicle
	Transactions []Transaction
}

// FreeSpaces returns how many on-site spaces are unoccupied.
func (s *Shop) FreeSpaces() int {
	return s.Spaces - len(s.Vehicles)
}

// FindCategory returns the index of the first on-site vehicle of the
// given category, or -1. Comparison is case-insensitive.
func (s *Shop) FindCategory(cat vehicle.Category) int {
	for i, v := range s.Vehicles {
		if v.Is(cat) {
			return i
		}
	}
	return -1
}

// RemoveAt removes and returns the on-site vehicle at index i.
func (s *Shop) RemoveAt(i int) vehicle.Vehicle {
	v := s.Vehicles[i]
	s.Vehicles = append(s.Vehicles[:i], s.Vehicles[i+1:]...)
	return v
}

// HasVehicle reports whether a plate is currently on site.
func (s *Shop) HasVehicle(plate string) bool {
	for _, v := range s.Vehicles {
		if strings.EqualFold(v.Plate, plate) {
			return true
		}
	}
	return false
}

// Transaction is one completed rental. Append-only: transactions are
// never mutated or deleted once recorded.
type Transaction struct {
	Plate    string
	Distance int // km driven during the rental
	Discount bool
	Amount   float64
}

// Line renders the transaction in its record-file form:
//
//	TRANSACTION: ABC-123; Distance: 50 km; Discount: 10%; Amount: $45.00
func (t Transaction) Line() string {
	discount := "0%"
	if t.Discount {
		discount = "10%"
	}
	return fmt.Sprintf("TRANSACTION: %s; Distance: %d km; Discount: %s; Amount: $%.2f",
		t.Plate, t.Distance, discount, t.Amount)
}
