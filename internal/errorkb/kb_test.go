package errorkb

import (
	"math/rand"
	"testing"

	"fleetops-sim/internal/fleet"
)

func TestLookup(t *testing.T) {
	e, ok := Lookup("E-1001")
	if !ok {
		t.Fatal("E-1001 missing from knowledge base")
	}
	if e.Vendor != fleet.VendorAmazon || e.Severity != SeverityCritical {
		t.Errorf("unexpected entry: %+v", e)
	}
	if _, ok := Lookup("E-9999"); ok {
		t.Error("unknown code should not resolve")
	}
}

func TestByVendor(t *testing.T) {
	for _, v := range fleet.Vendors() {
		entries := ByVendor(v)
		if len(entries) == 0 {
			t.Fatalf("vendor %s has no error codes", v)
		}
		for _, e := range entries {
			if e.Vendor != v {
				t.Errorf("ByVendor(%s) returned %s entry %s", v, e.Vendor, e.Code)
			}
		}
	}
}

func TestSearch(t *testing.T) {
	hits := Search("blocked")
	if len(hits) < 3 {
		t.Fatalf("expected path-blocked codes from all vendors, got %d", len(hits))
	}
	codes := map[string]bool{}
	for _, e := range hits {
		codes[e.Code] = true
	}
	for _, want := range []string{"E-4012", "PATH_BLOCKED", "0x8008"} {
		if !codes[want] {
			t.Errorf("Search(blocked) missing %s", want)
		}
	}

	// Case-insensitive and matches vendor names too.
	if len(Search("BALYO")) == 0 {
		t.Error("vendor-name search returned nothing")
	}
	if len(Search("no-such-thing")) != 0 {
		t.Error("nonsense query should match nothing")
	}
}

func TestEquivalent(t *testing.T) {
	eq := Equivalent("ESTOP")
	if len(eq) != 2 {
		t.Fatalf("expected 2 cross-vendor equivalents, got %d", len(eq))
	}
	got := map[string]bool{}
	for _, e := range eq {
		if e.Code == "ESTOP" {
			t.Error("Equivalent must not include the queried code")
		}
		got[e.Code] = true
	}
	if !got["E-1001"] || !got["0x8001"] {
		t.Errorf("unexpected equivalents: %v", got)
	}
	if Equivalent("E-9999") != nil {
		t.Error("unknown code has no equivalents")
	}
}

func TestRandomStaysInVendorPool(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		e := Random(fleet.VendorGemini, r)
		if e.Vendor != fleet.VendorGemini {
			t.Fatalf("Random(Gemini) returned %s entry %s", e.Vendor, e.Code)
		}
		if e.Severity == SeverityInfo {
			t.Fatalf("Random returned info-severity entry %s", e.Code)
		}
	}
}

func TestEntriesWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range All() {
		if seen[e.Code] {
			t.Errorf("duplicate code %s", e.Code)
		}
		seen[e.Code] = true
		if e.Name == "" || e.Description == "" || len(e.Remediation) == 0 {
			t.Errorf("entry %s incomplete", e.Code)
		}
		for _, rel := range e.Related {
			if _, ok := Lookup(rel); !ok {
				t.Errorf("entry %s references unknown related code %s", e.Code, rel)
			}
		}
	}
}
