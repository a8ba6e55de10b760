package modulation

import (
	"testing"

	"github.com/gosdrtx/radiotx/errs"
)

func TestNewRejectsNoDuplicatesByDefault(t *testing.T) {
	if _, err := New(); err != nil {
		t.Fatalf("unexpected error building registry: %v", err)
	}
}

func TestAliasRoundTrip(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range allNames {
		if name == Unknown {
			continue
		}
		for _, alias := range aliasTable[name] {
			if got := r.Lookup(alias); got != name {
				t.Errorf("Lookup(%q) = %v, want %v", alias, got, name)
			}
		}
		if canonical := r.Canonical(name); canonical != aliasTable[name][0] {
			t.Errorf("Canonical(%v) = %q, want %q", name, canonical, aliasTable[name][0])
		}
	}
}

func TestLookupUnknownForUnmatchedText(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.Lookup("not-a-real-modulation"); got != Unknown {
		t.Errorf("Lookup(unmatched) = %v, want Unknown", got)
	}
}

func TestFamilyAndKindClassification(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		name   Name
		family Family
		kind   Type
	}{
		{AM_DSB, FamilyAM, TypeAnalog},
		{FM, FamilyFM, TypeAnalog},
		{PM, FamilyPM, TypeAnalog},
		{APSK16, FamilyAPSK, TypeDigital},
		{OOK, FamilyASK, TypeDigital},
		{GMSK, FamilyFSK, TypeDigital},
		{QPSK, FamilyPSK, TypeDigital},
		{PAM4, FamilyPAM, TypeDigital},
		{QAM256, FamilyQAM, TypeDigital},
		{Unknown, FamilyUnknown, TypeUnknown},
	}
	for _, c := range cases {
		if got := r.Family(c.name); got != c.family {
			t.Errorf("Family(%v) = %v, want %v", c.name, got, c.family)
		}
		if got := r.Kind(c.name); got != c.kind {
			t.Errorf("Kind(%v) = %v, want %v", c.name, got, c.kind)
		}
	}
}

func TestDuplicateAliasDetected(t *testing.T) {
	orig := aliasTable[QPSK]
	defer func() { aliasTable[QPSK] = orig }()

	// Inject a collision with BPSK's canonical alias.
	aliasTable[QPSK] = []string{"BPSK"}

	_, err := New()
	if err == nil {
		t.Fatal("expected duplicate alias error, got nil")
	}
	if !errs.Is(err, errs.DuplicateAlias) {
		t.Fatalf("expected DuplicateAlias kind, got %v", err)
	}
}
