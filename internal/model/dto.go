package model

import (
	"time"

	apperrors "voter-canvass-backend/pkg/errors"
)

type UploadResponse struct {
	SessionID string              `json:"session_id"`
	Columns   []string            `json:"columns"`
	Preview   []map[string]string `json:"preview"`
	TotalRows int                 `json:"total_rows"`
	Warnings  []string            `json:"warnings,omitempty"`
}

type MapColumnsRequest struct {
	SessionID     string            `json:"session_id"`
	ColumnMapping map[string]string `json:"column_mapping"`
	AdminID       string            `json:"admin_id"`
}

type MapColumnsResponse struct {
	Message         string              `json:"message"`
	ImportedCount   int                 `json:"imported_count"`
	ErrorCount      int                 `json:"error_count"`
	SkippedCount    int                 `json:"skipped_count"`
	Errors          []apperrors.RowError `json:"errors"`
	TruncatedErrors int                 `json:"truncated_errors"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

type VoterListResponse struct {
	Voters []*Voter `json:"voters"`
	Total  int      `json:"total"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
	Pages  int      `json:"pages"`
}

type VoterFilter struct {
	Search      string
	Gender      string
	Area        string
	Ward        string
	BoothNumber string
	AgeMin      *int
	AgeMax      *int
	Visited     *bool
	Voted       *bool
	AdminID     string
	AssignedTo  string
	Page        int
	Limit       int
}

type DashboardSummary struct {
	TotalVoters int       `json:"total_voters"`
	Visited     int       `json:"visited"`
	Voted       int       `json:"voted"`
	CoveragePct float64   `json:"coverage_pct"`
	TurnoutPct  float64   `json:"turnout_pct"`
	UpdatedAt   time.Time `json:"updated_at"`
}
