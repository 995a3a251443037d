package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestEntry_Fields(t *testing.T) {
	typ := reflect.TypeOf(Entry{})

	assertGormTag(t, typ, "Key", "primaryKey")
	assertGormTag(t, typ, "Key", "size:128")
	assertGormTag(t, typ, "Value", "type:longtext")
	if _, ok := typ.FieldByName("UpdatedAt"); !ok {
		t.Error("Entry.UpdatedAt missing")
	}
}

func TestRecord_JSONNames(t *testing.T) {
	typ := reflect.TypeOf(Record{})
	want := map[string]string{
		"ID":          "id",
		"LotNumber":   "lotNumber",
		"Date":        "date",
		"Time":        "time",
		"Shift":       "shift",
		"RibbonModel": "ribbonModel",
		"Quantity":    "quantity",
		"Problem":     "problem",
		"Details":     "details",
		"Status":      "status",
		"CreatedAt":   "createdAt",
		"Attachment":  "attachment,omitempty",
	}
	for field, tag := range want {
		f, ok := typ.FieldByName(field)
		if !ok {
			t.Errorf("Record.%s missing", field)
			continue
		}
		if got := f.Tag.Get("json"); got != tag {
			t.Errorf("Record.%s json tag = %q, want %q", field, got, tag)
		}
	}
}

func TestParseShift(t *testing.T) {
	tests := []struct {
		in   string
		want Shift
	}{
		{"ADM", ShiftADM},
		{"", ShiftADM},
		{"2°Turno", SecondShift},
		{"2° Turno", SecondShift},
		{"SecondShift", SecondShift},
		{"2", SecondShift},
		{"night", ShiftADM},
	}
	for _, tt := range tests {
		if got := ParseShift(tt.in); got != tt.want {
			t.Errorf("ParseShift(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShift_Label(t *testing.T) {
	if ShiftADM.Label() != "Turno ADM" {
		t.Errorf("ADM label = %q", ShiftADM.Label())
	}
	if SecondShift.Label() != "2° Turno" {
		t.Errorf("second shift label = %q", SecondShift.Label())
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		s     Status
		valid bool
		label string
	}{
		{StatusActive, true, "Ativo"},
		{StatusPending, true, "Pendente"},
		{StatusResolved, true, "Resolvido"},
		{"closed", false, "Inativo"},
	}
	for _, tt := range tests {
		if tt.s.Valid() != tt.valid {
			t.Errorf("%q.Valid() = %v", tt.s, !tt.valid)
		}
		if tt.s.Label() != tt.label {
			t.Errorf("%q.Label() = %q, want %q", tt.s, tt.s.Label(), tt.label)
		}
	}
}

func TestRecord_StoredShape(t *testing.T) {
	rec := Record{
		ID:          "1",
		LotNumber:   "000123",
		Date:        "04/03/2026",
		Time:        "13:05",
		Shift:       SecondShift,
		RibbonModel: "R-500",
		Quantity:    10,
		Problem:     "Jam",
		Status:      StatusActive,
		CreatedAt:   time.Date(2026, 3, 4, 16, 5, 0, 0, time.UTC),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"shift":"2°Turno"`, `"status":"active"`, `"createdAt":"2026-03-04T16:05:00Z"`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded record missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, "attachment") {
		t.Error("empty attachment should be omitted")
	}
	if rec.HasAttachment() {
		t.Error("HasAttachment on empty record")
	}
}

func TestRecord_DecodeUnknownShift(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":"1","shift":"graveyard"}`), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Shift != ShiftADM {
		t.Errorf("Shift = %q, want ADM", rec.Shift)
	}
}
