package inventory

import (
	"errors"
	"testing"

	"github.com/kilianp07/resq112/core/model"
)

func station(city string, available int) model.Station {
	return model.Station{
		City:      city,
		County:    "Brasov",
		Location:  model.Coordinate{Lat: 45.6, Lon: 25.5},
		Available: available,
	}
}

func TestDecrement(t *testing.T) {
	inv := New(model.ResourceMedical)
	inv.Add(station("Brasov", 5))

	if err := inv.Decrement("Brasov/Brasov", 3); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	got, err := inv.Available("Brasov/Brasov")
	if err != nil || got != 2 {
		t.Fatalf("available = %d, %v, want 2", got, err)
	}
}

func TestDecrementExceedsAvailable(t *testing.T) {
	inv := New(model.ResourcePolice)
	inv.Add(station("Brasov", 2))

	err := inv.Decrement("Brasov/Brasov", 3)
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("err = %v, want ErrInsufficientInventory", err)
	}
	got, _ := inv.Available("Brasov/Brasov")
	if got != 2 {
		t.Fatalf("failed decrement mutated available: %d", got)
	}
}

func TestDecrementRejectsNonPositive(t *testing.T) {
	inv := New(model.ResourceFire)
	inv.Add(station("Brasov", 4))
	if err := inv.Decrement("Brasov/Brasov", 0); err == nil {
		t.Fatal("zero amount accepted")
	}
	if err := inv.Decrement("Brasov/Brasov", -1); err == nil {
		t.Fatal("negative amount accepted")
	}
}

func TestUnknownStation(t *testing.T) {
	inv := New(model.ResourceRescue)
	if _, err := inv.Available("Cluj/Cluj"); !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("err = %v, want ErrUnknownStation", err)
	}
	if err := inv.Decrement("Cluj/Cluj", 1); !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("err = %v, want ErrUnknownStation", err)
	}
}

func TestConservation(t *testing.T) {
	inv := FromRoster(model.ResourceMedical, []model.Station{station("Brasov", 10)})
	total := 0
	for _, amount := range []int{1, 4, 2} {
		if err := inv.Decrement("Brasov/Brasov", amount); err != nil {
			t.Fatalf("decrement %d: %v", amount, err)
		}
		total += amount
	}
	got, _ := inv.Available("Brasov/Brasov")
	if got != 10-total {
		t.Fatalf("available = %d, want %d", got, 10-total)
	}
	if got < 0 {
		t.Fatal("available went negative")
	}
}

func TestStationsSnapshotIsCopy(t *testing.T) {
	inv := New(model.ResourceUtility)
	inv.Add(station("Brasov", 3))
	snap := inv.Stations()
	snap[0].Available = 0
	got, _ := inv.Available("Brasov/Brasov")
	if got != 3 {
		t.Fatal("snapshot mutation leaked into inventory")
	}
}
