package importer

// Field is a canonical voter field an uploaded column can be mapped onto.
// The set is closed: mapping requests naming anything else are rejected at
// validation time.
type Field string

const (
	FieldVoterID     Field = "voter_id"
	FieldNameEnglish Field = "name_english"
	FieldNameLocal   Field = "name_local"
	FieldAge         Field = "age"
	FieldGender      Field = "gender"
	FieldArea        Field = "area"
	FieldWard        Field = "ward"
	FieldBoothNumber Field = "booth_number"
	FieldPhone       Field = "phone"
	FieldCaste       Field = "caste"
	FieldAddress     Field = "address"
)

var allFields = map[Field]bool{
	FieldVoterID:     true,
	FieldNameEnglish: true,
	FieldNameLocal:   true,
	FieldAge:         true,
	FieldGender:      true,
	FieldArea:        true,
	FieldWard:        true,
	FieldBoothNumber: true,
	FieldPhone:       true,
	FieldCaste:       true,
	FieldAddress:     true,
}

// requiredFields must be mapped to a non-empty source column before any row
// is processed: a record without a name and a booth is not importable.
var requiredFields = []Field{FieldNameEnglish, FieldBoothNumber}
