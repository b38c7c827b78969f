package dataset

import (
	"testing"

	"github.com/jgoulah/ehrkpi/pkg/models"
)

func TestUniqueStates(t *testing.T) {
	records := []models.KPIRecord{
		{State: "Ohio", StateCode: "OH", StateFIPS: "39", CountyName: "Adams"},
		{State: "Ohio", StateCode: "OH", StateFIPS: "39", CountyName: "Allen"},
		{State: "Alabama", StateCode: "AL", StateFIPS: "01", CountyName: "Autauga"},
		// Same code, different FIPS: a distinct triple.
		{State: "Ohio", StateCode: "OH", StateFIPS: "99", CountyName: "Bogus"},
		{State: "Alabama", StateCode: "AL", StateFIPS: "01", CountyName: "Baldwin"},
	}

	got := UniqueStates(records)
	want := []models.StateKey{
		{State: "Ohio", StateCode: "OH", StateFIPS: "39"},
		{State: "Alabama", StateCode: "AL", StateFIPS: "01"},
		{State: "Ohio", StateCode: "OH", StateFIPS: "99"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d states %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d = %v, want %v", i, got[i], want[i])
		}
	}

	seen := make(map[models.StateKey]bool)
	for _, s := range got {
		if seen[s] {
			t.Errorf("duplicate state %v", s)
		}
		seen[s] = true
	}
	for _, r := range records {
		if !seen[r.StateKey()] {
			t.Errorf("state of record %q missing", r.CountyName)
		}
	}
}

func TestUniqueStates_Empty(t *testing.T) {
	if got := UniqueStates(nil); len(got) != 0 {
		t.Errorf("UniqueStates(nil) = %v, want empty", got)
	}
}

func TestSortStates(t *testing.T) {
	states := []models.StateKey{
		{State: "Wyoming", StateCode: "WY", StateFIPS: "56"},
		{State: "Alaska", StateCode: "AK", StateFIPS: "02"},
		{State: "Alabama", StateCode: "AL", StateFIPS: "01"},
	}
	SortStates(states)

	wantCodes := []string{"AK", "AL", "WY"}
	for i, code := range wantCodes {
		if states[i].StateCode != code {
			t.Errorf("states[%d].StateCode = %q, want %q", i, states[i].StateCode, code)
		}
	}
}

func TestStateKeyString(t *testing.T) {
	k := models.StateKey{State: "Ontario", StateCode: "ON", StateFIPS: "35"}
	if got := k.String(); got != "(Ontario, ON, 35)" {
		t.Errorf("String() = %q, want %q", got, "(Ontario, ON, 35)")
	}
}
