// Package plate issues globally-unique license plates against a
// persisted append-only index file. Uniqueness holds across every
// plate ever issued: the index is monotonically growing and plates are
// never released, so a deleted vehicle's plate can never be reissued.
package plate

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/filelock"
	"github.com/Dampmar/rentalshop/internal/logging"
)

// Allocator generates plates of the form LLL-DDD, drawn uniformly at
// random, and guarantees uniqueness by consulting the index file under
// an exclusive lock. The read-check-append sequence runs inside a
// single locked critical section so two allocators can never pick the
// same candidate.
type Allocator struct {
	indexPath string
	log       *logging.Logger
}

// NewAllocator creates an Allocator backed by the given index file.
func NewAllocator(indexPath string, log *logging.Logger) *Allocator {
	return &Allocator{indexPath: indexPath, log: log}
}

// Allocate draws a fresh plate and records it in the index. Returns a
// StoreError if the index cannot be locked or written; the caller must
// retry or abort.
func (a *Allocator) Allocate() (string, error) {
	if err := os.MkdirAll(filepath.Dir(a.indexPath), 0755); err != nil {
		return "", errors.NewStoreError("allocate", a.indexPath, err)
	}

	fl := filelock.New(a.indexPath)
	if err := fl.Lock(); err != nil {
		return "", errors.NewStoreError("allocate", a.indexPath, err)
	}
	defer func() { _ = fl.Unlock() }()

	issued, err := readIndex(fl.File())
	if err != nil {
		return "", errors.NewStoreError("allocate", a.indexPath, err)
	}

	var candidate string
	for {
		candidate = draw()
		if _, taken := issued[candidate]; !taken {
			break
		}
	}

	// Append while still holding the lock. The descriptor is at EOF
	// after readIndex.
	if _, err := fmt.Fprintln(fl.File(), candidate); err != nil {
		return "", errors.NewStoreError("allocate", a.indexPath, err)
	}

	a.log.Debug("allocated plate", "plate", candidate, "issued_total", len(issued)+1)
	return candidate, nil
}

// draw produces one random LLL-DDD candidate.
func draw() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteByte(byte('A' + rand.Intn(26)))
	}
	b.WriteByte('-')
	for i := 0; i < 3; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// readIndex reads every issued plate from the locked index file.
func readIndex(f *os.File) (map[string]struct{}, error) {
	issued := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			issued[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return issued, nil
}
