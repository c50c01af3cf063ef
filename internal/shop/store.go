package shop

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/filelock"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// reservedSpaces is how many on-site spaces Initialize leaves free as
// permanent slack.
const reservedSpaces = 2

// VehicleSource yields vehicles from a named lot. Satisfied by
// *lot.Store; defined here so the shop store never depends on the lot
// store directly — control flows through the engine.
type VehicleSource interface {
	TakeOne(lotName string, cat vehicle.Category) (vehicle.Vehicle, error)
}

// Store reads and writes shop record files under a directory.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates a Store rooted at the given shops directory.
func NewStore(dir string, log *logging.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Path returns the backing record file for a location.
func (s *Store) Path(location string) string {
	return filepath.Join(s.dir, location+".txt")
}

// Load reads a location's full record under a shared lock. Returns
// ErrAbsent if no record file exists, or ErrCorruptRecord if one
// exists but cannot be parsed.
func (s *Store) Load(location string) (*Shop, error) {
	path := s.Path(location)

	fl := filelock.New(path)
	if err := fl.RLock(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrAbsent
		}
		return nil, errors.NewStoreError("load", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	return decode(fl.File(), path)
}

// Save truncates and rewrites the location's full record under an
// exclusive lock. Never writes partially or incrementally.
func (s *Store) Save(sh *Shop) error {
	path := s.Path(sh.Location)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.NewStoreError("save", path, err)
	}

	fl := filelock.New(path)
	if err := fl.Lock(); err != nil {
		return errors.NewStoreError("save", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	f := fl.File()
	if err := f.Truncate(0); err != nil {
		return errors.NewStoreError("save", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.NewStoreError("save", path, err)
	}
	if err := encode(f, sh); err != nil {
		return errors.NewStoreError("save", path, err)
	}

	s.log.Debug("saved shop record", "shop", sh.Location,
		"vehicles", len(sh.Vehicles), "balance", sh.Balance)
	return nil
}

// Initialize builds a brand-new shop record for a location with no
// prior file. It stocks the shop from the configured lots, cycling
// SEDAN, SUV, VAN round-robin, until all but two spaces are filled or
// no lot yields any further vehicle of any category, then persists the
// record immediately.
func (s *Store) Initialize(location string, spaces int, lots []string, src VehicleSource) (*Shop, error) {
	sh := &Shop{
		Location: location,
		Spaces:   spaces,
		Lots:     lots,
	}

	target := spaces - reservedSpaces
	for len(sh.Vehicles) < target {
		found := false
		for _, cat := range vehicle.Categories() {
			v, ok := takeFromAny(src, lots, cat)
			if !ok {
				continue
			}
			sh.Vehicles = append(sh.Vehicles, v)
			found = true
			if len(sh.Vehicles) >= target {
				break
			}
		}
		if !found {
			break // lots exhausted
		}
	}

	if err := s.Save(sh); err != nil {
		return nil, err
	}
	s.log.Info("initialized shop", "shop", location,
		"spaces", spaces, "stocked", len(sh.Vehicles))
	return sh, nil
}

// takeFromAny tries each lot in configured order for one vehicle of
// the given category.
func takeFromAny(src VehicleSource, lots []string, cat vehicle.Category) (vehicle.Vehicle, bool) {
	for _, name := range lots {
		v, err := src.TakeOne(name, cat)
		if err != nil {
			continue
		}
		return v, true
	}
	return vehicle.Vehicle{}, false
}
