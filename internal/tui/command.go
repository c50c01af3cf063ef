package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dampmar/rentalshop/internal/engine"
	"github.com/Dampmar/rentalshop/internal/errors"
	"github.com/Dampmar/rentalshop/internal/shop"
)

// dispatcher translates prompt input into engine calls and renders
// structured results into display text. It holds no state of its own;
// every command works against the freshest shop snapshot.
type dispatcher struct {
	eng      *engine.Engine
	location string
}

// execute runs one prompt line. Returns the rendered output and
// whether the prompt should exit. Unrecognized input yields an error
// message and changes no state.
func (d dispatcher) execute(line string) (string, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", false
	}

	switch strings.ToUpper(tokens[0]) {
	case "RENT":
		if len(tokens) < 2 {
			return errorStyle.Render("ERROR: RENT requires a vehicle category (SEDAN, SUV, VAN)."), false
		}
		return d.rent(tokens[1]), false

	case "RETURN":
		if len(tokens) < 3 {
			return errorStyle.Render("ERROR: RETURN requires a license plate and kilometers driven."), false
		}
		return d.returnVehicle(tokens[1], tokens[2]), false

	case "LIST":
		return d.list(), false

	case "TRANSACTIONS":
		return d.transactions(), false

	case "EXIT", "QUIT":
		return "", true

	default:
		return errorStyle.Render("ERROR: Unknown command. Valid commands are: RENT, RETURN, LIST, TRANSACTIONS, EXIT."), false
	}
}

func (d dispatcher) rent(category string) string {
	res, err := d.eng.Rent(d.location, category)
	if err != nil {
		return renderError(err)
	}

	var b strings.Builder
	if res.FromLot != "" {
		b.WriteString(infoStyle.Render(fmt.Sprintf("Vehicle %s retrieved from lot %s.", res.Vehicle.Plate, res.FromLot)))
		b.WriteString("\n")
	}
	msg := fmt.Sprintf("Vehicle %s (%s) rented successfully.", res.Vehicle.Plate, res.Vehicle.Category)
	if res.Discount {
		msg += " A 10% discount will apply."
	}
	b.WriteString(infoStyle.Render(msg))
	return b.String()
}

func (d dispatcher) returnVehicle(plateArg, kmArg string) string {
	km, err := strconv.Atoi(kmArg)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("ERROR: invalid kilometers %q.", kmArg))
	}

	res, err := d.eng.Return(d.location, plateArg, km)
	if err != nil {
		return renderError(err)
	}

	var b strings.Builder
	b.WriteString(infoStyle.Render(fmt.Sprintf("Vehicle %s returned successfully. Charge: $%.2f", res.Vehicle.Plate, res.Charge)))
	for _, ev := range res.Evictions {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(fmt.Sprintf("Vehicle %s moved to lot %s.", ev.Plate, ev.Lot)))
	}
	return b.String()
}

func (d dispatcher) list() string {
	sh, err := d.eng.List(d.location)
	if err != nil {
		return renderError(err)
	}
	return renderShopState(sh)
}

func (d dispatcher) transactions() string {
	transactions, err := d.eng.Transactions(d.location)
	if err != nil {
		return renderError(err)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("----TRANSACTIONS----"))
	if len(transactions) == 0 {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(none)"))
		return b.String()
	}
	for _, t := range transactions {
		b.WriteString("\n")
		b.WriteString(vehicleStyle.Render(t.Line()))
	}
	return b.String()
}

// renderShopState renders the LIST view of a shop snapshot.
func renderShopState(sh *shop.Shop) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("----SHOP STATE (%s)----", sh.Location)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total Parking Spaces: %d\n", sh.Spaces)
	fmt.Fprintf(&b, "Parking Spaces Available: %d\n", sh.FreeSpaces())
	fmt.Fprintf(&b, "Shop Balance: $%.2f\n", sh.Balance)
	b.WriteString("Vehicles in Shop:")
	for _, v := range sh.Vehicles {
		b.WriteString("\n")
		b.WriteString(vehicleStyle.Render(fmt.Sprintf("> %s - %s - %d km", v.Plate, v.Category, v.Odometer)))
	}
	return b.String()
}

// renderError maps engine errors onto user-facing messages. Every
// failure leaves the system at its last committed write; none is fatal
// to the prompt.
func renderError(err error) string {
	switch {
	case errors.IsInvalidInput(err):
		return errorStyle.Render(fmt.Sprintf("ERROR: %v", err))
	case errors.Is(err, errors.ErrNotRented):
		return errorStyle.Render(fmt.Sprintf("ERROR: %v", err))
	case errors.Is(err, errors.ErrNoInventory):
		return errorStyle.Render(fmt.Sprintf("ERROR: %v", err))
	case errors.IsCorrupt(err):
		return errorStyle.Render(fmt.Sprintf("ERROR: shop record is corrupt: %v", err))
	default:
		return errorStyle.Render(fmt.Sprintf("ERROR: %v", err))
	}
}
