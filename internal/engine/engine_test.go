package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/ledger"
	"github.com/Dampmar/rentalshop/internal/logging"
	"github.com/Dampmar/rentalshop/internal/lot"
	"github.com/Dampmar/rentalshop/internal/shop"
	"github.com/Dampmar/rentalshop/internal/vehicle"
)

// fixture wires an engine over real stores in a temp directory.
type fixture struct {
	eng    *Engine
	shops  *shop.Store
	lots   *lot.Store
	ledger *ledger.Ledger
	dir    string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	log := logging.NewNop()

	shops := shop.NewStore(filepath.Join(dir, "shops"), log)
	lots := lot.NewStore(filepath.Join(dir, "lots"), log)
	led := ledger.New(filepath.Join(dir, "shops", "rentals.txt"), log)

	return &fixture{
		eng:    New(shops, lots, led, opts, log),
		shops:  shops,
		lots:   lots,
		ledger: led,
		dir:    dir,
	}
}

func defaultOptions() Options {
	return Options{
		LotDiscount:      true,
		ReservedSpaces:   2,
		EvictionFraction: 0.2,
		RandLot:          func(n int) int { return 0 },
	}
}

func (f *fixture) saveShop(t *testing.T, sh *shop.Shop) {
	t.Helper()
	if err := f.shops.Save(sh); err != nil {
		t.Fatalf("save shop: %v", err)
	}
}

func (f *fixture) seedLot(t *testing.T, name string, vehicles ...vehicle.Vehicle) {
	t.Helper()
	if err := f.lots.Add(name, vehicles); err != nil {
		t.Fatalf("seed lot %s: %v", name, err)
	}
}

// countEverywhere sums vehicles across the shop record, all lot files,
// and the rental ledger — the conservation quantity.
func (f *fixture) countEverywhere(t *testing.T, location string, lotNames []string) int {
	t.Helper()
	total := 0

	sh, err := f.shops.Load(location)
	if err == nil {
		total += len(sh.Vehicles)
	} else if !errors.IsAbsent(err) {
		t.Fatalf("load shop: %v", err)
	}

	for _, name := range lotNames {
		vs, err := f.lots.ListAll(name)
		if err != nil {
			t.Fatalf("list lot %s: %v", name, err)
		}
		total += len(vs)
	}

	data, err := os.ReadFile(f.ledger.Path())
	if err == nil {
		for _, line := range splitLines(string(data)) {
			if line != "" {
				total++
			}
		}
	} else if !os.IsNotExist(err) {
		t.Fatalf("read ledger: %v", err)
	}
	return total
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func TestRent_FromLotAppliesDiscount(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A"}})
	f.seedLot(t, "A", vehicle.Vehicle{Plate: "ABC-123", Category: vehicle.Sedan, Odometer: 0})

	res, err := f.eng.Rent("Austin", "SEDAN")
	if err != nil {
		t.Fatalf("Rent: %v", err)
	}
	if res.Vehicle.Plate != "ABC-123" {
		t.Errorf("rented %s, want ABC-123", res.Vehicle.Plate)
	}
	if !res.Discount {
		t.Error("lot-sourced rental should carry the discount")
	}
	if res.FromLot != "A" {
		t.Errorf("FromLot = %q, want A", res.FromLot)
	}

	// The vehicle left the lot and entered the ledger.
	if vs, _ := f.lots.ListAll("A"); len(vs) != 0 {
		t.Errorf("lot A should be empty, has %+v", vs)
	}
	rec, err := f.ledger.Lookup("ABC-123")
	if err != nil {
		t.Fatalf("ledger should hold the rental: %v", err)
	}
	if !rec.Discount {
		t.Error("ledger record should carry the discount flag")
	}
}

func TestRentReturn_Scenario(t *testing.T) {
	// Lot A holds ABC-123,SEDAN,0. Rent(SEDAN) with an empty shop
	// yields the lot vehicle with discount; Return at 50 km charges
	// 45.00 and rolls the odometer to 50.
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A"}})
	f.seedLot(t, "A", vehicle.Vehicle{Plate: "ABC-123", Category: vehicle.Sedan, Odometer: 0})

	if _, err := f.eng.Rent("Austin", "SEDAN"); err != nil {
		t.Fatalf("Rent: %v", err)
	}

	res, err := f.eng.Return("Austin", "ABC-123", 50)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if res.Charge != 45.0 {
		t.Errorf("charge = %v, want 45.0 (10%% discount on 50 km)", res.Charge)
	}
	if res.Vehicle.Odometer != 50 {
		t.Errorf("odometer = %d, want 50", res.Vehicle.Odometer)
	}

	sh, err := f.eng.List("Austin")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if sh.Balance != 45.0 {
		t.Errorf("balance = %v, want 45.0", sh.Balance)
	}
	if len(sh.Transactions) != 1 {
		t.Fatalf("want 1 transaction, got %d", len(sh.Transactions))
	}
	tr := sh.Transactions[0]
	if tr.Plate != "ABC-123" || tr.Distance != 50 || !tr.Discount || tr.Amount != 45.0 {
		t.Errorf("transaction = %+v", tr)
	}
	if !sh.HasVehicle("ABC-123") {
		t.Error("vehicle should be back on site")
	}
}

func TestRent_OnSiteNoDiscount(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{
		Location: "Austin", Spaces: 10, Lots: []string{"A"},
		Vehicles: []vehicle.Vehicle{{Plate: "DEF-456", Category: vehicle.SUV, Odometer: 7}},
	})

	res, err := f.eng.Rent("Austin", "suv")
	if err != nil {
		t.Fatalf("Rent: %v", err)
	}
	if res.Discount {
		t.Error("on-site rental must not carry the discount")
	}
	if res.FromLot != "" {
		t.Errorf("FromLot = %q, want empty for on-site", res.FromLot)
	}

	sh, _ := f.eng.List("Austin")
	if sh.HasVehicle("DEF-456") {
		t.Error("rented vehicle should have left the on-site set")
	}
}

func TestRentReturn_ZeroKmLeavesBalanceAndOdometer(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{
		Location: "Austin", Spaces: 10, Balance: 12.5, Lots: []string{"A"},
		Vehicles: []vehicle.Vehicle{{Plate: "DEF-456", Category: vehicle.Van, Odometer: 31}},
	})

	if _, err := f.eng.Rent("Austin", "VAN"); err != nil {
		t.Fatalf("Rent: %v", err)
	}
	res, err := f.eng.Return("Austin", "DEF-456", 0)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if res.Charge != 0 {
		t.Errorf("charge = %v, want 0", res.Charge)
	}
	if res.Vehicle.Odometer != 31 {
		t.Errorf("odometer = %d, want unchanged 31", res.Vehicle.Odometer)
	}

	sh, _ := f.eng.List("Austin")
	if sh.Balance != 12.5 {
		t.Errorf("balance = %v, want unchanged 12.5", sh.Balance)
	}
}

func TestRent_InvalidCategoryTouchesNothing(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A"}})
	f.seedLot(t, "A", vehicle.Vehicle{Plate: "ABC-123", Category: vehicle.Sedan, Odometer: 0})

	shopBefore, _ := os.ReadFile(f.shops.Path("Austin"))
	lotBefore, _ := os.ReadFile(f.lots.Path("A"))

	_, err := f.eng.Rent("Austin", "TRUCK")
	if !errors.Is(err, errors.ErrInvalidCategory) {
		t.Fatalf("want ErrInvalidCategory, got %v", err)
	}

	shopAfter, _ := os.ReadFile(f.shops.Path("Austin"))
	lotAfter, _ := os.ReadFile(f.lots.Path("A"))
	if string(shopBefore) != string(shopAfter) {
		t.Error("shop record changed on invalid category")
	}
	if string(lotBefore) != string(lotAfter) {
		t.Error("lot file changed on invalid category")
	}
	if _, err := os.Stat(f.ledger.Path()); !os.IsNotExist(err) {
		t.Error("ledger file should not exist after a rejected rent")
	}
}

func TestRent_NoInventory(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A", "B"}})
	f.seedLot(t, "A", vehicle.Vehicle{Plate: "VAN-001", Category: vehicle.Van, Odometer: 0})

	_, err := f.eng.Rent("Austin", "SEDAN")
	if !errors.Is(err, errors.ErrNoInventory) {
		t.Fatalf("want ErrNoInventory, got %v", err)
	}
}

func TestRent_PollsLotsInOrder(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"first", "second"}})
	f.seedLot(t, "first", vehicle.Vehicle{Plate: "AAA-111", Category: vehicle.Sedan, Odometer: 0})
	f.seedLot(t, "second", vehicle.Vehicle{Plate: "BBB-222", Category: vehicle.Sedan, Odometer: 0})

	res, err := f.eng.Rent("Austin", "SEDAN")
	if err != nil {
		t.Fatalf("Rent: %v", err)
	}
	if res.FromLot != "first" || res.Vehicle.Plate != "AAA-111" {
		t.Errorf("rented %s from %s, want AAA-111 from first", res.Vehicle.Plate, res.FromLot)
	}
}

func TestReturn_NotRented(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A"}})

	_, err := f.eng.Return("Austin", "ZZZ-999", 10)
	if !errors.Is(err, errors.ErrNotRented) {
		t.Fatalf("want ErrNotRented, got %v", err)
	}
}

func TestReturn_NegativeDistance(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{Location: "Austin", Spaces: 10, Lots: []string{"A"}})

	_, err := f.eng.Return("Austin", "ABC-123", -1)
	if !errors.Is(err, errors.ErrInvalidDistance) {
		t.Fatalf("want ErrInvalidDistance, got %v", err)
	}
	if !errors.IsInvalidInput(err) {
		t.Error("negative distance should classify as invalid input")
	}
}

func TestReturn_NoDiscountChargesFullRate(t *testing.T) {
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{
		Location: "Austin", Spaces: 10, Lots: []string{"A"},
		Vehicles: []vehicle.Vehicle{{Plate: "DEF-456", Category: vehicle.Sedan, Odometer: 0}},
	})

	if _, err := f.eng.Rent("Austin", "SEDAN"); err != nil {
		t.Fatalf("Rent: %v", err)
	}
	res, err := f.eng.Return("Austin", "DEF-456", 80)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if res.Charge != 80.0 {
		t.Errorf("charge = %v, want 80.0 (no discount)", res.Charge)
	}
}

func TestConservationAcrossOperations(t *testing.T) {
	f := newFixture(t, defaultOptions())
	lots := []string{"A", "B"}
	f.saveShop(t, &shop.Shop{
		Location: "Austin", Spaces: 6, Lots: lots,
		Vehicles: []vehicle.Vehicle{
			{Plate: "ONE-001", Category: vehicle.Sedan, Odometer: 5},
			{Plate: "TWO-002", Category: vehicle.SUV, Odometer: 50},
		},
	})
	f.seedLot(t, "A",
		vehicle.Vehicle{Plate: "THR-003", Category: vehicle.Van, Odometer: 1},
		vehicle.Vehicle{Plate: "FOU-004", Category: vehicle.Sedan, Odometer: 9},
	)
	f.seedLot(t, "B", vehicle.Vehicle{Plate: "FIV-005", Category: vehicle.SUV, Odometer: 3})

	before := f.countEverywhere(t, "Austin", lots)
	if before != 5 {
		t.Fatalf("fixture should start with 5 vehicles, got %d", before)
	}

	// A mixed sequence of rents and returns, some triggering
	// redistribution along the way.
	if _, err := f.eng.Rent("Austin", "VAN"); err != nil {
		t.Fatalf("Rent VAN: %v", err)
	}
	if _, err := f.eng.Rent("Austin", "SEDAN"); err != nil {
		t.Fatalf("Rent SEDAN: %v", err)
	}
	if _, err := f.eng.Return("Austin", "THR-003", 25); err != nil {
		t.Fatalf("Return THR-003: %v", err)
	}
	if _, err := f.eng.Rent("Austin", "SUV"); err != nil {
		t.Fatalf("Rent SUV: %v", err)
	}
	if _, err := f.eng.Return("Austin", "ONE-001", 0); err != nil {
		t.Fatalf("Return ONE-001: %v", err)
	}

	after := f.countEverywhere(t, "Austin", lots)
	if after != before {
		t.Errorf("conservation violated: %d vehicles before, %d after", before, after)
	}
}

func TestRent_NotPersistedOnLedgerFailure(t *testing.T) {
	// Make the ledger path unusable by planting a directory there, so
	// checkout fails after the vehicle left the on-site set. The shop
	// record on disk must be untouched.
	f := newFixture(t, defaultOptions())
	f.saveShop(t, &shop.Shop{
		Location: "Austin", Spaces: 10, Lots: []string{"A"},
		Vehicles: []vehicle.Vehicle{{Plate: "DEF-456", Category: vehicle.Sedan, Odometer: 0}},
	})
	if err := os.MkdirAll(f.ledger.Path(), 0755); err != nil {
		t.Fatal(err)
	}

	before, _ := os.ReadFile(f.shops.Path("Austin"))

	_, err := f.eng.Rent("Austin", "SEDAN")
	if err == nil {
		t.Fatal("Rent should fail when the ledger cannot be written")
	}
	if !errors.IsStorage(err) {
		t.Errorf("want storage failure, got %v", err)
	}

	after, _ := os.ReadFile(f.shops.Path("Austin"))
	if string(before) != string(after) {
		t.Error("shop record must not be persisted when checkout fails")
	}
}
