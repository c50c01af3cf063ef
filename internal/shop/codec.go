package shop

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// Record-file section labels, in fixed order.
const (
	labelCity         = "City:"
	labelSpaces       = "Spaces:"
	labelBalance      = "Balance:"
	labelLots         = "Lots:"
	labelVehicles     = "Vehicles:"
	labelTransactions = "Transactions:"
)

// encode writes the full shop record in the fixed text layout.
func encode(w io.Writer, s *Shop) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", labelCity, s.Location)
	fmt.Fprintf(&b, "%s%d\n", labelSpaces, s.Spaces)
	fmt.Fprintf(&b, "%s%.2f\n", labelBalance, s.Balance)
	fmt.Fprintf(&b, "%s%s\n", labelLots, strings.Join(s.Lots, ","))
	b.WriteString(labelVehicles + "\n")
	for _, v := range s.Vehicles {
		b.WriteString(v.Line() + "\n")
	}
	b.WriteString(labelTransactions + "\n")
	for _, t := range s.Transactions {
		b.WriteString(t.Line() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// decode parses the full shop record. Any missing section or
// unparseable field is a corrupt record, never silently skipped.
func decode(r io.Reader, path string) (*Shop, error) {
	scanner := bufio.NewScanner(r)
	s := &Shop{}

	city, err := header(scanner, labelCity, path)
	if err != nil {
		return nil, err
	}
	s.Location = city

	spaces, err := header(scanner, labelSpaces, path)
	if err != nil {
		return nil, err
	}
	s.Spaces, err = strconv.Atoi(spaces)
	if err != nil {
		return nil, errors.NewCorruptError(path, spaces, fmt.Errorf("spaces: %w", err))
	}

	balance, err := header(scanner, labelBalance, path)
	if err != nil {
		return nil, err
	}
	s.Balance, err = strconv.ParseFloat(balance, 64)
	if err != nil {
		return nil, errors.NewCorruptError(path, balance, fmt.Errorf("balance: %w", err))
	}

	lots, err := header(scanner, labelLots, path)
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(lots, ",") {
		if name = strings.TrimSpace(name); name != "" {
			s.Lots = append(s.Lots, name)
		}
	}

	if _, err := header(scanner, labelVehicles, path); err != nil {
		return nil, err
	}

	// Vehicle lines run until the Transactions label.
	sawTransactions := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == labelTransactions {
			sawTransactions = true
			break
		}
		v, err := vehicle.ParseLine(line)
		if err != nil {
			return nil, errors.NewCorruptError(path, line, err)
		}
		s.Vehicles = append(s.Vehicles, v)
	}
	if !sawTransactions {
		return nil, errors.NewCorruptError(path, "", fmt.Errorf("missing %s section: %w", labelTransactions, errors.ErrCorruptRecord))
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, err := ParseTransaction(line)
		if err != nil {
			return nil, errors.NewCorruptError(path, line, err)
		}
		s.Transactions = append(s.Transactions, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read shop record: %w", err)
	}
	return s, nil
}

// header consumes the next non-empty line, strips the expected label
// prefix, and returns the remainder.
func header(scanner *bufio.Scanner, label, path string) (string, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, label) {
			return "", errors.NewCorruptError(path, line, fmt.Errorf("expected %s: %w", label, errors.ErrCorruptRecord))
		}
		return strings.TrimSpace(strings.TrimPrefix(line, label)), nil
	}
	return "", errors.NewCorruptError(path, "", fmt.Errorf("missing %s section: %w", label, errors.ErrCorruptRecord))
}

// ParseTransaction parses a transaction record line produced by
// Transaction.Line.
func ParseTransaction(line string) (Transaction, error) {
	var t Transaction

	rest, ok := strings.CutPrefix(line, "TRANSACTION: ")
	if !ok {
		return t, fmt.Errorf("%w: missing TRANSACTION prefix", errors.ErrCorruptRecord)
	}
	parts := strings.Split(rest, ";")
	if len(parts) != 4 {
		return t, fmt.Errorf("%w: want 4 transaction fields, got %d", errors.ErrCorruptRecord, len(parts))
	}

	t.Plate = strings.TrimSpace(parts[0])

	distance := strings.TrimSpace(parts[1])
	distance = strings.TrimPrefix(distance, "Distance:")
	distance = strings.TrimSuffix(strings.TrimSpace(distance), " km")
	n, err := strconv.Atoi(strings.TrimSpace(distance))
	if err != nil {
		return t, fmt.Errorf("%w: distance: %v", errors.ErrCorruptRecord, err)
	}
	t.Distance = n

	discount := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[2]), "Discount:"))
	t.Discount = discount == "10%"

	amount := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[3]), "Amount:"))
	amount = strings.TrimPrefix(amount, "$")
	t.Amount, err = strconv.ParseFloat(amount, 64)
	if err != nil {
		return t, fmt.Errorf("%w: amount: %v", errors.ErrCorruptRecord, err)
	}
	return t, nil
}
