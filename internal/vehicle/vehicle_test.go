package vehicle

import (
	"testing"

	"github.com/Dampmar/rentalshop/internal/errors"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"SEDAN", Sedan, false},
		{"sedan", Sedan, false},
		{"SuV", SUV, false},
		{"van", Van, false},
		{"TRUCK", "", true},
		{"", "", true},
		{"SEDANS", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCategory(%q) should fail", tt.in)
				}
				if !errors.Is(err, errors.ErrInvalidCategory) {
					t.Errorf("error should match ErrInvalidCategory, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidPlate(t *testing.T) {
	tests := []struct {
		plate string
		want  bool
	}{
		{"ABC-123", true},
		{"ZZZ-000", true},
		{"abc-123", false},
		{"AB-123", false},
		{"ABCD-123", false},
		{"ABC-12", false},
		{"ABC123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPlate(tt.plate); got != tt.want {
			t.Errorf("ValidPlate(%q) = %v, want %v", tt.plate, got, tt.want)
		}
	}
}

func TestVehicle_Is(t *testing.T) {
	v := Vehicle{Plate: "ABC-123", Category: "Sedan"}
	if !v.Is(Sedan) {
		t.Error("category comparison should be case-insensitive")
	}
	if v.Is(Van) {
		t.Error("Sedan should not match VAN")
	}
}

func TestLineRoundTrip(t *testing.T) {
	v := Vehicle{Plate: "XYZ-987", Category: SUV, Odometer: 1542}
	line := v.Line()
	if line != "XYZ-987,SUV,1542" {
		t.Errorf("Line() = %q", line)
	}

	got, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got != v {
		t.Errorf("round trip = %+v, want %+v", got, v)
	}
}

func TestParseLine_Corrupt(t *testing.T) {
	tests := []string{
		"ABC-123,SEDAN",          // missing odometer
		"ABC-123,SEDAN,ten",      // non-numeric odometer
		"ABC-123,SEDAN,-5",       // negative odometer
		"ABC-123,SEDAN,10,extra", // trailing field
		"",                       // empty line
	}
	for _, line := range tests {
		if _, err := ParseLine(line); !errors.Is(err, errors.ErrCorruptRecord) {
			t.Errorf("ParseLine(%q) should return ErrCorruptRecord, got %v", line, err)
		}
	}
}
