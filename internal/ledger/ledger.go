// Package ledger persists the table of currently-outstanding rentals
// as a flat file shared by every shop process. One line per active
// rental; a plate appears at most once. Records are created on
// checkout and deleted on checkin — the permanent history lives in the
// shop's transaction log, not here.
package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/filelock"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// Record is one active rental: the vehicle as it was at checkout plus
// whether the rental earned the lot discount.
type Record struct {
	Vehicle  vehicle.Vehicle // snapshot at checkout
	Discount bool
}

// Line renders the record as its flat-file form:
// licensePlate,category,odometerKm,discountApplied.
func (r Record) Line() string {
	return fmt.Sprintf("%s,%t", r.Vehicle.Line(), r.Discount)
}

// ParseRecord parses a ledger line produced by Line.
func ParseRecord(line string) (Record, error) {
	i := strings.LastIndex(line, ",")
	if i < 0 {
		return Record{}, fmt.Errorf("%w: want 4 fields", errors.ErrCorruptRecord)
	}
	discount, err := strconv.ParseBool(strings.TrimSpace(line[i+1:]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: discount flag: %v", errors.ErrCorruptRecord, err)
	}
	v, err := vehicle.ParseLine(line[:i])
	if err != nil {
		return Record{}, err
	}
	return Record{Vehicle: v, Discount: discount}, nil
}

// Ledger reads and mutates the rental ledger file.
type Ledger struct {
	path string
	log  *logging.Logger
}

// New creates a Ledger backed by the given file path.
func New(path string, log *logging.Logger) *Ledger {
	return &Ledger{path: path, log: log}
}

// Path returns the ledger's backing file.
func (l *Ledger) Path() string {
	return l.path
}

// Checkout appends a rental record under an exclusive lock. On a
// StoreError the rental must be treated as not committed: the caller
// restores the vehicle to its prior location.
func (l *Ledger) Checkout(r Record) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.NewStoreError("checkout", l.path, err)
	}

	fl := filelock.New(l.path)
	if err := fl.Lock(); err != nil {
		return errors.NewStoreError("checkout", l.path, err)
	}
	defer func() { _ = fl.Unlock() }()

	f := fl.File()
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return errors.NewStoreError("checkout", l.path, err)
	}
	if _, err := fmt.Fprintln(f, r.Line()); err != nil {
		return errors.NewStoreError("checkout", l.path, err)
	}

	l.log.Debug("checked out vehicle", "plate", r.Vehicle.Plate, "discount", r.Discount)
	return nil
}

// Lookup scans for the active rental of a plate under a shared lock.
// Returns ErrAbsent if the ledger has no such record (or no ledger
// file exists yet).
func (l *Ledger) Lookup(plate string) (Record, error) {
	fl := filelock.New(l.path)
	if err := fl.RLock(); err != nil {
		if os.IsNotExist(err) {
			return Record{}, errors.ErrAbsent
		}
		return Record{}, errors.NewStoreError("lookup", l.path, err)
	}
	defer func() { _ = fl.Unlock() }()

	records, err := l.read(fl.File())
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if strings.EqualFold(r.Vehicle.Plate, plate) {
			return r, nil
		}
	}
	return Record{}, errors.ErrAbsent
}

// Checkin removes the active rental for a plate, rewriting the ledger
// without it under an exclusive lock. Checking in a plate with no
// record is a no-op, so a retried checkin stays safe.
func (l *Ledger) Checkin(plate string) error {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil
	}

	fl := filelock.New(l.path)
	if err := fl.Lock(); err != nil {
		return errors.NewStoreError("checkin", l.path, err)
	}
	defer func() { _ = fl.Unlock() }()

	f := fl.File()
	records, err := l.read(f)
	if err != nil {
		return err
	}

	remainder := records[:0:0]
	removed := false
	for _, r := range records {
		if !removed && strings.EqualFold(r.Vehicle.Plate, plate) {
			removed = true
			continue
		}
		remainder = append(remainder, r)
	}
	if !removed {
		return nil
	}

	if err := f.Truncate(0); err != nil {
		return errors.NewStoreError("checkin", l.path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.NewStoreError("checkin", l.path, err)
	}
	for _, r := range remainder {
		if _, err := fmt.Fprintln(f, r.Line()); err != nil {
			return errors.NewStoreError("checkin", l.path, err)
		}
	}

	l.log.Debug("checked in vehicle", "plate", plate)
	return nil
}

// read parses every record from the locked ledger file.
func (l *Ledger) read(f *os.File) ([]Record, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewStoreError("read", l.path, err)
	}

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := ParseRecord(line)
		if err != nil {
			return nil, errors.NewCorruptError(l.path, line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStoreError("read", l.path, err)
	}
	return records, nil
}
