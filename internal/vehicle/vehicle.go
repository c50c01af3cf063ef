// Package vehicle defines the vehicle value type shared by the lot,
// shop, and ledger stores, together with the single-line text codec
// used by every flat file in the system.
package vehicle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dampmar/rentalshop/internal/errors"
)

// Category is a vehicle category. Persisted categories are free-form
// text in upper or mixed case; all comparisons are case-insensitive.
type Category string

// The categories the shop rents out.
const (
	Sedan Category = "SEDAN"
	SUV   Category = "SUV"
	Van   Category = "VAN"
)

// Categories returns the valid categories in their canonical order.
// The order matters: shop initialization draws from lots by cycling
// through it round-robin.
func Categories() []Category {
	return []Category{Sedan, SUV, Van}
}

// ParseCategory validates a free-form category string against the
// known categories, case-insensitively. Returns ErrInvalidCategory
// for anything else.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", errors.NewValidationError("category", s, errors.ErrInvalidCategory)
}

var plateRe = regexp.MustCompile(`^[A-Z]{3}-[0-9]{3}$`)

// ValidPlate reports whether s is a well-formed license plate (three
// uppercase letters, a dash, three digits).
func ValidPlate(s string) bool {
	return plateRe.MatchString(s)
}

// Vehicle is a single vehicle. The plate is globally unique; the
// odometer only ever grows, incremented when a rental is returned.
type Vehicle struct {
	Plate    string
	Category Category
	Odometer int
}

// Is reports whether the vehicle belongs to the given category,
// comparing case-insensitively.
func (v Vehicle) Is(c Category) bool {
	return strings.EqualFold(string(v.Category), string(c))
}

// Line renders the vehicle as its flat-file record:
// licensePlate,category,odometerKm. Fields must not contain commas;
// the format has no escaping.
func (v Vehicle) Line() string {
	return fmt.Sprintf("%s,%s,%d", v.Plate, v.Category, v.Odometer)
}

// ParseLine parses a flat-file vehicle record produced by Line.
// Malformed records return ErrCorruptRecord.
func ParseLine(line string) (Vehicle, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Vehicle{}, fmt.Errorf("%w: want 3 fields, got %d", errors.ErrCorruptRecord, len(parts))
	}
	odo, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Vehicle{}, fmt.Errorf("%w: odometer: %v", errors.ErrCorruptRecord, err)
	}
	if odo < 0 {
		return Vehicle{}, fmt.Errorf("%w: negative odometer %d", errors.ErrCorruptRecord, odo)
	}
	return Vehicle{
		Plate:    strings.TrimSpace(parts[0]),
		Category: Category(strings.TrimSpace(parts[1])),
		Odometer: odo,
	}, nil
}
