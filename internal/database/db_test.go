package database

import (
	"path/filepath"
	"testing"

	"github.com/jgoulah/ehrkpi/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtrOf(n int) *int { return &n }

func sampleRecords() []models.KPIRecord {
	return []models.KPIRecord{
		{
			State: "Ontario", StateCode: "ON", CountyName: "County A",
			StateFIPS: "35", CountyFIPS: "001", FIPS: "35001", Period: "2013-01",
			NumProvidersSignedUp:            intPtrOf(10),
			NumPrimaryCareProvidersSignedUp: intPtrOf(5),
			NumPrimaryCareProvidersGoLive:   intPtrOf(3),
		},
		{
			State: "Ontario", StateCode: "ON", CountyName: "County B",
			StateFIPS: "35", CountyFIPS: "003", FIPS: "35003", Period: "2013-01",
			NumProvidersGoLive:                   intPtrOf(8),
			NumPrimaryCareProvidersGoLive:        intPtrOf(2),
			NumProvidersMeaningfulUse:            intPtrOf(1),
			NumPrimaryCareProvidersMeaningfulUse: intPtrOf(1),
		},
		{
			State: "Alabama", StateCode: "AL", CountyName: "Autauga",
			StateFIPS: "01", CountyFIPS: "001", FIPS: "01001", Period: "2013-02",
			NumProvidersSignedUp: intPtrOf(0),
		},
	}
}

func assertCount(t *testing.T, label string, got, want *int) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %d, want nil", label, *got)
	case want != nil && got == nil:
		t.Errorf("%s = nil, want %d", label, *want)
	case want != nil && *got != *want:
		t.Errorf("%s = %d, want %d", label, *got, *want)
	}
}

func TestImportRecords_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	run, err := db.ImportRecords("REC_KPI_County.csv", sampleRecords())
	if err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}
	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if run.Total != 3 || run.Inserted != 3 {
		t.Errorf("run = %+v, want total 3 inserted 3", run)
	}

	got, err := db.ListRecords(RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}

	// Ordered by state code: AL first, then ON by FIPS.
	if got[0].StateCode != "AL" || got[1].FIPS != "35001" || got[2].FIPS != "35003" {
		t.Errorf("order = %s, %s, %s", got[0].FIPS, got[1].FIPS, got[2].FIPS)
	}

	want := sampleRecords()
	a := got[1]
	if a.CountyName != want[0].CountyName || a.Period != want[0].Period || a.CountyFIPS != "001" {
		t.Errorf("record = %+v", a)
	}
	assertCount(t, "SignedUp", a.NumProvidersSignedUp, want[0].NumProvidersSignedUp)
	assertCount(t, "PCSignedUp", a.NumPrimaryCareProvidersSignedUp, want[0].NumPrimaryCareProvidersSignedUp)
	assertCount(t, "GoLive", a.NumProvidersGoLive, nil)
	assertCount(t, "PCGoLive", a.NumPrimaryCareProvidersGoLive, want[0].NumPrimaryCareProvidersGoLive)
	assertCount(t, "MU", a.NumProvidersMeaningfulUse, nil)
	assertCount(t, "PCMU", a.NumPrimaryCareProvidersMeaningfulUse, nil)

	assertCount(t, "AL SignedUp", got[0].NumProvidersSignedUp, intPtrOf(0))
}

func TestImportRecords_SkipsDuplicates(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.ImportRecords("first.csv", sampleRecords()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	run, err := db.ImportRecords("second.csv", sampleRecords())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if run.Inserted != 0 || run.Total != 3 {
		t.Errorf("second run = %+v, want total 3 inserted 0", run)
	}

	n, err := db.CountRecords()
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 3 {
		t.Errorf("CountRecords = %d, want 3", n)
	}

	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Source != "second.csv" || runs[0].Inserted != 0 {
		t.Errorf("newest run = %+v", runs[0])
	}
	if runs[1].Inserted != 3 {
		t.Errorf("oldest run inserted = %d, want 3", runs[1].Inserted)
	}
}

func TestListRecords_Filter(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.ImportRecords("kpi.csv", sampleRecords()); err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}

	tests := []struct {
		name   string
		filter RecordFilter
		want   int
	}{
		{"state", RecordFilter{StateCode: "ON"}, 2},
		{"period", RecordFilter{Period: "2013-02"}, 1},
		{"state and period", RecordFilter{StateCode: "ON", Period: "2013-02"}, 0},
		{"unknown state", RecordFilter{StateCode: "ZZ"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListRecords(tt.filter)
			if err != nil {
				t.Fatalf("ListRecords: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListStates(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.ImportRecords("kpi.csv", sampleRecords()); err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}

	states, err := db.ListStates()
	if err != nil {
		t.Fatalf("ListStates: %v", err)
	}
	want := []models.StateKey{
		{State: "Alabama", StateCode: "AL", StateFIPS: "01"},
		{State: "Ontario", StateCode: "ON", StateFIPS: "35"},
	}
	if len(states) != len(want) {
		t.Fatalf("got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestEmptyCatalogue(t *testing.T) {
	db := openTestDB(t)

	n, err := db.CountRecords()
	if err != nil || n != 0 {
		t.Errorf("CountRecords = %d, %v; want 0, nil", n, err)
	}
	states, err := db.ListStates()
	if err != nil || len(states) != 0 {
		t.Errorf("ListStates = %v, %v; want empty", states, err)
	}
}
