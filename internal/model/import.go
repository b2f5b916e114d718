package model

import (
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates the opaque token an upload is staged under.
func NewSessionID() string {
	return uuid.NewString()
}

// SessionMeta is the ephemeral record of an uploaded-but-not-yet-committed
// dataset. The full row set lives in object storage at ObjectKey; Redis holds
// only this envelope, under the session TTL.
type SessionMeta struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Format     string    `json:"format"`
	ObjectKey  string    `json:"object_key"`
	Columns    []string  `json:"columns"`
	TotalRows  int       `json:"total_rows"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// ImportRun is the persisted history record of one completed commit.
type ImportRun struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	Filename      string    `json:"filename" db:"filename"`
	AdminID       string    `json:"admin_id" db:"admin_id"`
	UploadedBy    string    `json:"uploaded_by" db:"uploaded_by"`
	TotalRows     int       `json:"total_rows" db:"total_rows"`
	ImportedCount int       `json:"imported_count" db:"imported_count"`
	ErrorCount    int       `json:"error_count" db:"error_count"`
	SkippedCount  int       `json:"skipped_count" db:"skipped_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
