package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeDay(t *testing.T) {
	tests := []struct {
		raw  string
		want Day
	}{
		{"Monday", Monday},
		{"  tue ", Tuesday},
		{"WEDNESDAY", Wednesday},
		{"thurs", Thursday},
		{"Fri", Friday},
		{"sa", ""},
		{"Funday", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeDay(tt.raw); got != tt.want {
				t.Errorf("NormalizeDay(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDayOf(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // 周一
	for i, want := range Days {
		if got := DayOf(start.AddDate(0, 0, i)); got != want {
			t.Errorf("DayOf(+%d) = %s, want %s", i, got, want)
		}
	}
}

func TestDayOrder(t *testing.T) {
	if Monday.Order() != 0 || Sunday.Order() != 6 {
		t.Errorf("unexpected order: monday=%d sunday=%d", Monday.Order(), Sunday.Order())
	}
	if Day("holiday").Valid() {
		t.Error("unknown day should be invalid")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-03-03 ")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Format(DateLayout) != "2025-03-03" {
		t.Errorf("ParseDate() = %v", d)
	}
	if _, err := ParseDate("03/03/2025"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestGradeOf(t *testing.T) {
	tests := map[string]int{
		"10A":     10,
		"9B":      9,
		"Grade 7": 7,
		"KG":      0,
		"":        0,
	}
	for class, want := range tests {
		if got := GradeOf(class); got != want {
			t.Errorf("GradeOf(%q) = %d, want %d", class, got, want)
		}
	}
}

func TestRosterEntry(t *testing.T) {
	g := 7
	entry := RosterEntry{Name: "Ali Khan", Phone: "0300", GradeLevel: &g}
	if entry.Grade() != 7 || !entry.CanSubstitute() {
		t.Errorf("unexpected entry %+v", entry)
	}

	noPhone := RosterEntry{Name: "Sara Malik"}
	if noPhone.Grade() != DefaultGradeLevel {
		t.Errorf("Grade() = %d, want default %d", noPhone.Grade(), DefaultGradeLevel)
	}
	if noPhone.CanSubstitute() {
		t.Error("entry without phone must not substitute")
	}
}

func TestTeacherIdentity_AddVariation(t *testing.T) {
	id := &TeacherIdentity{CanonicalName: "Ali Khan"}
	id.AddVariation("Sir Ali Khan")
	id.AddVariation("Sir Ali Khan")
	id.AddVariation("")
	if len(id.Variations) != 1 || !id.HasVariation("Sir Ali Khan") {
		t.Errorf("Variations = %v", id.Variations)
	}
}

func TestAssignmentDocument(t *testing.T) {
	data, err := json.Marshal(EmptyDocument())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"assignments":[],"warnings":[]}` {
		t.Errorf("EmptyDocument() = %s", data)
	}

	doc := AssignmentDocument{}.Normalize()
	if doc.Assignments == nil || doc.Warnings == nil || !doc.IsEmpty() {
		t.Errorf("Normalize() = %+v", doc)
	}

	if !doc.ForDate("2025-03-03") {
		t.Error("undated document seeds any date")
	}
	doc.Date = "2025-03-03"
	if doc.ForDate("2025-03-04") {
		t.Error("dated document must not seed another date")
	}
}

func TestManualOverrideSlot(t *testing.T) {
	o := ManualOverride{Teacher: "Ali Khan", Day: "monday", Period: 3, ClassName: "9A"}
	if got := o.Slot(); got != (PeriodSlot{Period: 3, ClassName: "9A"}) || !got.Valid() {
		t.Errorf("Slot() = %+v", got)
	}
	if (PeriodSlot{Period: 0, ClassName: "9A"}).Valid() {
		t.Error("period 0 is invalid")
	}
}
