package importer_test

import (
	"errors"
	"testing"

	"voter-canvass-backend/internal/importer"
	apperrors "voter-canvass-backend/pkg/errors"
)

var sessionColumns = []string{"Full Name", "Age", "Booth No", "Mobile", "Ward"}

func TestValidateMappingNormalizes(t *testing.T) {
	t.Parallel()

	mapping, err := importer.ValidateMapping(map[string]string{
		"name_english": "full name", // case-insensitive match
		"booth_number": "  Booth No  ",
		"phone":        "Mobile",
		"age":          "", // explicitly not imported
	}, sessionColumns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mapping) != 3 {
		t.Fatalf("expected 3 mapped fields, got %d", len(mapping))
	}
	if mapping[importer.FieldNameEnglish] != 0 {
		t.Errorf("name_english mapped to index %d, want 0", mapping[importer.FieldNameEnglish])
	}
	if mapping[importer.FieldBoothNumber] != 2 {
		t.Errorf("booth_number mapped to index %d, want 2", mapping[importer.FieldBoothNumber])
	}
	if _, ok := mapping[importer.FieldAge]; ok {
		t.Error("empty mapping entry should be absent, not mapped")
	}
}

func TestValidateMappingUnknownColumnsAggregated(t *testing.T) {
	t.Parallel()

	_, err := importer.ValidateMapping(map[string]string{
		"name_english": "Full Name",
		"booth_number": "Booth Id",
		"phone":        "Phone Number",
	}, sessionColumns)
	if err == nil {
		t.Fatal("expected error")
	}

	var verr *apperrors.MappingValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected MappingValidationError, got %T", err)
	}
	if len(verr.UnknownColumns) != 2 {
		t.Fatalf("expected both unknown columns reported, got %v", verr.UnknownColumns)
	}
	if verr.UnknownColumns[0].Field != "booth_number" || verr.UnknownColumns[0].Column != "Booth Id" {
		t.Errorf("unexpected first violation: %+v", verr.UnknownColumns[0])
	}
	if verr.UnknownColumns[1].Field != "phone" || verr.UnknownColumns[1].Column != "Phone Number" {
		t.Errorf("unexpected second violation: %+v", verr.UnknownColumns[1])
	}
}

func TestValidateMappingMissingRequiredFields(t *testing.T) {
	t.Parallel()

	_, err := importer.ValidateMapping(map[string]string{
		"phone": "Mobile",
	}, sessionColumns)
	if err == nil {
		t.Fatal("expected error")
	}

	var verr *apperrors.MappingValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected MappingValidationError, got %T", err)
	}
	if len(verr.MissingFields) != 2 {
		t.Fatalf("expected all missing required fields in one report, got %v", verr.MissingFields)
	}
}

func TestValidateMappingUnknownTargetField(t *testing.T) {
	t.Parallel()

	_, err := importer.ValidateMapping(map[string]string{
		"name_english":  "Full Name",
		"booth_number":  "Booth No",
		"shoe_size":     "Age",
		"date_of_death": "Ward",
	}, sessionColumns)
	if err == nil {
		t.Fatal("expected error")
	}

	var verr *apperrors.MappingValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected MappingValidationError, got %T", err)
	}
	want := []string{"date_of_death", "shoe_size"}
	if len(verr.UnknownFields) != len(want) {
		t.Fatalf("expected %d unknown fields, got %v", len(want), verr.UnknownFields)
	}
	for i, name := range want {
		if verr.UnknownFields[i] != name {
			t.Errorf("unknown field %d = %q, want %q", i, verr.UnknownFields[i], name)
		}
	}
}
