package importer

import (
	"fmt"
	"strconv"
	"strings"

	"voter-canvass-backend/internal/model"
)

const (
	minAge         = 0
	maxAge         = 120
	minPhoneDigits = 7
	maxPhoneDigits = 15
	maxIdentifier  = 20
)

// transformRow applies the mapping to one data row and coerces every mapped
// cell into its canonical field. A wholly blank row returns (nil, true, nil)
// and is skipped by the caller. A validation failure returns the reason; the
// row is recorded as errored and the batch continues.
func transformRow(row []string, mapping Mapping, adminID string) (*model.Voter, bool, error) {
	cells := make(map[Field]string, len(mapping))
	blank := true
	for field, idx := range mapping {
		var value string
		if idx >= 0 && idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
		cells[field] = value
		if value != "" {
			blank = false
		}
	}
	if blank {
		return nil, true, nil
	}

	voter := &model.Voter{
		VoterID:       cells[FieldVoterID],
		Name:          cells[FieldNameEnglish],
		NameLocal:     cells[FieldNameLocal],
		Area:          cells[FieldArea],
		Caste:         cells[FieldCaste],
		Address:       cells[FieldAddress],
		Gender:        model.GenderOther,
		FavorScore:    50.0,
		FavorCategory: model.FavorNeutral,
		AdminID:       adminID,
	}

	if voter.Name == "" {
		return nil, false, fmt.Errorf("name is empty")
	}
	voter.FullName = voter.Name

	booth := cells[FieldBoothNumber]
	if booth == "" {
		return nil, false, fmt.Errorf("booth_number is empty")
	}
	if len(booth) > maxIdentifier {
		return nil, false, fmt.Errorf("booth_number '%s' exceeds %d characters", booth, maxIdentifier)
	}
	voter.BoothNumber = booth

	if ward := cells[FieldWard]; ward != "" {
		if len(ward) > maxIdentifier {
			return nil, false, fmt.Errorf("ward '%s' exceeds %d characters", ward, maxIdentifier)
		}
		voter.Ward = ward
	}

	if ageStr := cells[FieldAge]; ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			return nil, false, fmt.Errorf("invalid age value '%s'", ageStr)
		}
		if age < minAge || age > maxAge {
			return nil, false, fmt.Errorf("age %d out of range %d-%d", age, minAge, maxAge)
		}
		voter.Age = age
	}

	if genderStr := cells[FieldGender]; genderStr != "" {
		gender, ok := model.ParseGender(genderStr)
		if !ok {
			return nil, false, fmt.Errorf("unrecognized gender '%s'", genderStr)
		}
		voter.Gender = gender
	}

	if phone := cells[FieldPhone]; phone != "" {
		normalized, err := normalizePhone(phone)
		if err != nil {
			return nil, false, err
		}
		voter.Phone = normalized
	}

	return voter, false, nil
}

// normalizePhone strips separators and checks the remainder is digits of a
// plausible length.
func normalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '+' || r == '(' || r == ')':
			// separator, dropped
		default:
			return "", fmt.Errorf("phone '%s' contains non-digit characters", phone)
		}
	}
	normalized := digits.String()
	if len(normalized) < minPhoneDigits || len(normalized) > maxPhoneDigits {
		return "", fmt.Errorf("phone '%s' has implausible length", phone)
	}
	return normalized, nil
}
