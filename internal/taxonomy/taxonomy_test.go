package taxonomy

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	names := tax.Specialties()
	if len(names) == 0 {
		t.Fatal("expected specialties, got none")
	}
	for _, name := range names {
		if name == "" {
			t.Fatal("found empty specialty name")
		}
		if name != strings.TrimSpace(name) {
			t.Fatalf("specialty %q not trimmed at load", name)
		}
	}
	if names[0] != "Allergy and Immunology" {
		t.Fatalf("expected declaration order to start with Allergy and Immunology, got %q", names[0])
	}
}

func TestSubspecialtiesOf(t *testing.T) {
	tax := mustLoad(t)

	subs, err := tax.SubspecialtiesOf("Pediatrician")
	if err != nil {
		t.Fatalf("SubspecialtiesOf(Pediatrician) failed: %v", err)
	}
	found := false
	for _, s := range subs {
		if s == "Pediatric Cardiology" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Pediatric Cardiology in Pediatrician subspecialties, got %v", subs)
	}

	// Terminal specialties have an empty, non-nil set.
	subs, err = tax.SubspecialtiesOf("Nuclear Medicine Specialist")
	if err != nil {
		t.Fatalf("SubspecialtiesOf(Nuclear Medicine Specialist) failed: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no subspecialties for Nuclear Medicine Specialist, got %v", subs)
	}

	if _, err := tax.SubspecialtiesOf("Wizard"); !errors.Is(err, ErrUnknownSpecialty) {
		t.Fatalf("expected ErrUnknownSpecialty, got %v", err)
	}
}

func TestMatchSpecialty(t *testing.T) {
	tax := mustLoad(t)

	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Pediatrician", "Pediatrician", true},
		{"pediatrician", "Pediatrician", true},
		{"Board-certified Pediatrician (General)", "Pediatrician", true},
		{"INTERNIST", "Internist", true},
		{"Quantum Healer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := tax.MatchSpecialty(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("MatchSpecialty(%q) = %q,%v; want %q,%v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatchSpecialtyOrderStable(t *testing.T) {
	tax := mustLoad(t)
	// "Dermatologist" appears as a key and inside later subspecialty names;
	// a candidate containing two keys must resolve to the earlier one.
	got, ok := tax.MatchSpecialty("dermatologist or internist")
	if !ok || got != "Dermatologist" {
		t.Fatalf("expected first declaration-order match Dermatologist, got %q (ok=%v)", got, ok)
	}
}

func TestMatchSubspecialty(t *testing.T) {
	tax := mustLoad(t)

	// Exact.
	got, ok := tax.MatchSubspecialty("Pediatrician", "Pediatric Cardiology")
	if !ok || got != "Pediatric Cardiology" {
		t.Fatalf("exact match failed: %q %v", got, ok)
	}
	// Candidate is a prefix of the member.
	got, ok = tax.MatchSubspecialty("Pediatrician", "Pediatric Cardio")
	if !ok || got != "Pediatric Cardiology" {
		t.Fatalf("prefix match failed: %q %v", got, ok)
	}
	// Member is contained in the candidate.
	got, ok = tax.MatchSubspecialty("Internist", "Interventional Cardiology (Adult)")
	if !ok || got != "Interventional Cardiology" {
		t.Fatalf("containment match failed: %q %v", got, ok)
	}
	// Case-insensitive.
	got, ok = tax.MatchSubspecialty("Internist", "gastroenterology")
	if !ok || got != "Gastroenterology" {
		t.Fatalf("case-insensitive match failed: %q %v", got, ok)
	}
	// No match.
	if _, ok := tax.MatchSubspecialty("Pediatrician", "Astrology"); ok {
		t.Fatal("expected no match for Astrology")
	}
	// Unknown specialty.
	if _, ok := tax.MatchSubspecialty("Wizard", "Pediatric Cardiology"); ok {
		t.Fatal("expected no match for unknown specialty")
	}
}

func TestDefaultSpecialty(t *testing.T) {
	if got := DefaultSpecialty("Child"); got != "Pediatrician" {
		t.Fatalf("DefaultSpecialty(Child) = %q", got)
	}
	if got := DefaultSpecialty("child"); got != "Pediatrician" {
		t.Fatalf("DefaultSpecialty(child) = %q", got)
	}
	if got := DefaultSpecialty("Adult"); got != "Internist" {
		t.Fatalf("DefaultSpecialty(Adult) = %q", got)
	}
	if got := DefaultSpecialty(""); got != "Internist" {
		t.Fatalf("DefaultSpecialty(\"\") = %q", got)
	}
}

func mustLoad(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tax
}
