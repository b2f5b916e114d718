package model

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender matches the fixed enumeration case-insensitively.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, true
	case "female", "f":
		return GenderFemale, true
	case "other":
		return GenderOther, true
	}
	return "", false
}

type FavorCategory string

const (
	FavorSupporter  FavorCategory = "supporter"
	FavorNeutral    FavorCategory = "neutral"
	FavorOpposition FavorCategory = "opposition"
)

type Voter struct {
	ID            int64         `json:"id" db:"id"`
	VoterID       string        `json:"voter_id,omitempty" db:"voter_id"`
	Name          string        `json:"name" db:"name"`
	NameLocal     string        `json:"name_local,omitempty" db:"name_local"`
	FullName      string        `json:"full_name" db:"full_name"`
	Gender        Gender        `json:"gender" db:"gender"`
	Age           int           `json:"age" db:"age"`
	Area          string        `json:"area" db:"area"`
	Ward          string        `json:"ward,omitempty" db:"ward"`
	BoothNumber   string        `json:"booth_number" db:"booth_number"`
	Phone         string        `json:"phone,omitempty" db:"phone"`
	Caste         string        `json:"caste,omitempty" db:"caste"`
	Address       string        `json:"address,omitempty" db:"address"`
	FavorScore    float64       `json:"favor_score" db:"favor_score"`
	FavorCategory FavorCategory `json:"favor_category" db:"favor_category"`
	VisitedStatus bool          `json:"visited_status" db:"visited_status"`
	VotedStatus   bool          `json:"voted_status" db:"voted_status"`
	VisitCount    int           `json:"visit_count" db:"visit_count"`
	AdminID       string        `json:"admin_id,omitempty" db:"admin_id"`
	AssignedTo    *string       `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// DedupKey identifies the record for upsert purposes. Two rows with the same
// key are the same voter: a re-import updates instead of duplicating.
func (v *Voter) DedupKey() string {
	return DedupKey(v.FullName, v.BoothNumber, v.Phone)
}

func DedupKey(fullName, booth, phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	return strings.ToLower(strings.TrimSpace(fullName)) + "|" +
		strings.TrimSpace(booth) + "|" + string(digits)
}
