package normalizer

import (
	"testing"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

func TestRegistry_MergeSameNormalizedName(t *testing.T) {
	reg := NewRegistry(0)

	first, ok := reg.RegisterTeacher("Sir John Smith", "")
	if !ok {
		t.Fatal("first registration should succeed")
	}
	second, ok := reg.RegisterTeacher("sir john smith", "03001234567")
	if !ok {
		t.Fatal("second registration should succeed")
	}

	if first != second {
		t.Fatal("both spellings should resolve to one identity")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 identity, got %d", reg.Len())
	}
	if !first.HasVariation("Sir John Smith") || !first.HasVariation("sir john smith") {
		t.Errorf("variations not recorded: %v", first.Variations)
	}
	if first.Phone != "03001234567" {
		t.Errorf("phone should be backfilled, got %q", first.Phone)
	}
	if first.CanonicalName != "Sir John Smith" {
		t.Errorf("canonical name = %q", first.CanonicalName)
	}
}

func TestRegistry_PhoneNotOverwritten(t *testing.T) {
	reg := NewRegistry(0)
	reg.RegisterTeacher("Ali Khan", "111111")
	identity, _ := reg.RegisterTeacher("ali  khan", "222222")
	if identity.Phone != "111111" {
		t.Errorf("existing phone must be kept, got %q", identity.Phone)
	}
}

func TestRegistry_RejectsPlaceholders(t *testing.T) {
	reg := NewRegistry(0)
	for _, raw := range []string{"", "  ", "x", "EMPTY", "empty", "12"} {
		if _, ok := reg.RegisterTeacher(raw, ""); ok {
			t.Errorf("RegisterTeacher(%q) should be rejected", raw)
		}
	}
	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d", reg.Len())
	}
}

func TestRegistry_FuzzyMerge(t *testing.T) {
	reg := NewRegistry(0)
	a, _ := reg.RegisterTeacher("Muhammad Ali Khan", "")
	b, _ := reg.RegisterTeacher("Muhammad Ali Khan Jr", "")
	if a != b {
		t.Error("names sharing three tokens and the first token should merge")
	}
}

func TestRegistry_MergedSpellingResolvesToSameIdentity(t *testing.T) {
	reg := NewRegistry(0)
	a, _ := reg.RegisterTeacher("Muhammad Ali Khan", "")
	merged, _ := reg.RegisterTeacher("Muhammad Ali Khan Jr", "0311")
	if merged != a {
		t.Fatal("expected the second spelling to merge")
	}

	again, _ := reg.RegisterTeacher("Muhammad Ali Khan Jr", "")
	if again != a {
		t.Error("a spelling already recorded on an identity should resolve to it")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 identity, got %d", reg.Len())
	}
	if found, ok := reg.Lookup("muhammad ali khan jr"); !ok || found != a {
		t.Error("merged spelling should be found by lookup")
	}
	if a.Phone != "0311" {
		t.Errorf("phone = %q, expected the merged spelling's phone", a.Phone)
	}
}

func TestRegistry_NeverMergesDifferentFirstToken(t *testing.T) {
	reg := NewRegistry(0)
	a, _ := reg.RegisterTeacher("Ali Ahmed Khan", "")
	b, _ := reg.RegisterTeacher("Ahmed Ali Khan", "")
	if a == b {
		t.Error("different first tokens must never merge")
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 identities, got %d", reg.Len())
	}
}

func TestRegistry_RosterVariationsAndLookup(t *testing.T) {
	reg := NewRegistry(0)
	grade := 8
	reg.RegisterRoster([]model.RosterEntry{
		{Name: "Sara Malik", Phone: "0300", Variations: []string{"Miss Sara", "S. Malik"}, GradeLevel: &grade},
		{Name: "Bilal Shah", Phone: "0301"},
	})

	identity, ok := reg.Lookup("miss sara")
	if !ok {
		t.Fatal("variation should resolve")
	}
	if identity.CanonicalName != "Sara Malik" {
		t.Errorf("lookup resolved to %q", identity.CanonicalName)
	}
	if identity.GradeLevel != 8 {
		t.Errorf("grade = %d, expected 8", identity.GradeLevel)
	}

	other, _ := reg.Lookup("BILAL SHAH")
	if other.GradeLevel != model.DefaultGradeLevel {
		t.Errorf("default grade expected, got %d", other.GradeLevel)
	}

	if _, ok := reg.Lookup("Nobody Here"); ok {
		t.Error("unknown name should not resolve")
	}

	ids := reg.Identities()
	if len(ids) != 2 || ids[0].CanonicalName != "Sara Malik" || ids[1].CanonicalName != "Bilal Shah" {
		t.Errorf("identities should keep registration order: %+v", ids)
	}

	reg.Reset()
	if reg.Len() != 0 {
		t.Error("reset should clear identities")
	}
}
