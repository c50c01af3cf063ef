// Package lot persists per-lot vehicle inventories as flat files, one
// record line per vehicle. Each lot file is an independently lockable
// resource; all mutation happens as a read-modify-write under a single
// exclusive lock on that lot's file.
package lot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/filelock"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// Store reads and mutates lot inventory files under a directory.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates a Store rooted at the given lots directory.
func NewStore(dir string, log *logging.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Path returns the backing file for a lot.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// TakeOne removes and returns the first vehicle of the given category
// from the lot, scanning records in file order. Comparison is
// case-insensitive. Returns ErrNotFound if the lot has no such vehicle
// or its file does not exist; in that case the file is left untouched.
func (s *Store) TakeOne(name string, cat vehicle.Category) (vehicle.Vehicle, error) {
	path := s.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return vehicle.Vehicle{}, fmt.Errorf("lot %s: %w", name, errors.ErrNotFound)
	}

	fl := filelock.New(path)
	if err := fl.Lock(); err != nil {
		return vehicle.Vehicle{}, errors.NewStoreError("take", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	vehicles, err := readVehicles(fl.File(), path)
	if err != nil {
		return vehicle.Vehicle{}, err
	}

	idx := -1
	for i, v := range vehicles {
		if v.Is(cat) {
			idx = i
			break
		}
	}
	if idx < 0 {
		// No match: release without rewriting so the file is untouched.
		return vehicle.Vehicle{}, fmt.Errorf("lot %s: no %s: %w", name, cat, errors.ErrNotFound)
	}

	taken := vehicles[idx]
	remainder := append(vehicles[:idx:idx], vehicles[idx+1:]...)
	if err := writeVehicles(fl.File(), remainder); err != nil {
		return vehicle.Vehicle{}, errors.NewStoreError("take", path, err)
	}

	s.log.Debug("took vehicle from lot", "lot", name, "plate", taken.Plate, "category", taken.Category)
	return taken, nil
}

// PutOne appends one vehicle record to the lot file, creating the file
// and its directory if absent.
func (s *Store) PutOne(name string, v vehicle.Vehicle) error {
	return s.Add(name, []vehicle.Vehicle{v})
}

// Add appends vehicles to the lot file under a single exclusive lock,
// creating the file and its directory if absent.
func (s *Store) Add(name string, vs []vehicle.Vehicle) error {
	if len(vs) == 0 {
		return nil
	}
	path := s.Path(name)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.NewStoreError("put", path, err)
	}

	fl := filelock.New(path)
	if err := fl.Lock(); err != nil {
		return errors.NewStoreError("put", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	f := fl.File()
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return errors.NewStoreError("put", path, err)
	}
	for _, v := range vs {
		if _, err := fmt.Fprintln(f, v.Line()); err != nil {
			return errors.NewStoreError("put", path, err)
		}
	}

	s.log.Debug("added vehicles to lot", "lot", name, "count", len(vs))
	return nil
}

// Remove deletes the vehicle with the given plate from the lot,
// rewriting the file without it. Reports whether a record was removed.
func (s *Store) Remove(name, plate string) (bool, error) {
	path := s.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	fl := filelock.New(path)
	if err := fl.Lock(); err != nil {
		return false, errors.NewStoreError("remove", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	vehicles, err := readVehicles(fl.File(), path)
	if err != nil {
		return false, err
	}

	remainder := vehicles[:0:0]
	removed := false
	for _, v := range vehicles {
		if !removed && strings.EqualFold(v.Plate, plate) {
			removed = true
			continue
		}
		remainder = append(remainder, v)
	}
	if !removed {
		return false, nil
	}

	if err := writeVehicles(fl.File(), remainder); err != nil {
		return false, errors.NewStoreError("remove", path, err)
	}
	s.log.Info("removed vehicle from lot", "lot", name, "plate", plate)
	return true, nil
}

// ListAll returns the lot's vehicles in file order under a shared
// lock. A lot whose file does not exist holds no vehicles.
func (s *Store) ListAll(name string) ([]vehicle.Vehicle, error) {
	path := s.Path(name)

	fl := filelock.New(path)
	if err := fl.RLock(); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStoreError("list", path, err)
	}
	defer func() { _ = fl.Unlock() }()

	return readVehicles(fl.File(), path)
}

// readVehicles parses every record from the locked lot file.
func readVehicles(f *os.File, path string) ([]vehicle.Vehicle, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewStoreError("read", path, err)
	}

	var vehicles []vehicle.Vehicle
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := vehicle.ParseLine(line)
		if err != nil {
			return nil, errors.NewCorruptError(path, line, err)
		}
		vehicles = append(vehicles, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStoreError("read", path, err)
	}
	return vehicles, nil
}

// writeVehicles truncates the locked lot file and rewrites it with the
// given records.
func writeVehicles(f *os.File, vehicles []vehicle.Vehicle) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for _, v := range vehicles {
		if _, err := fmt.Fprintln(f, v.Line()); err != nil {
			return err
		}
	}
	return nil
}
