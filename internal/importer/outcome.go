package importer

import (
	"voter-canvass-backend/internal/model"
	apperrors "voter-canvass-backend/pkg/errors"
)

// Outcome is the per-row accounting of one commit. Every row ends up in
// exactly one bucket: imported, errored, or blank-skipped. The error list is
// capped; TruncatedErrors counts what the cap dropped.
type Outcome struct {
	TotalRows       int
	Imported        int
	Errored         int
	Skipped         int
	Errors          []apperrors.RowError
	TruncatedErrors int
}

func (o *Outcome) recordError(limit int, rowErr apperrors.RowError) {
	o.Errored++
	if len(o.Errors) < limit {
		o.Errors = append(o.Errors, rowErr)
	} else {
		o.TruncatedErrors++
	}
}

// Response shapes the outcome for the client, returning at most inlineCap
// errors in the payload.
func (o *Outcome) Response(inlineCap int) *model.MapColumnsResponse {
	errors := o.Errors
	truncated := o.TruncatedErrors
	if len(errors) > inlineCap {
		truncated += len(errors) - inlineCap
		errors = errors[:inlineCap]
	}
	if errors == nil {
		errors = []apperrors.RowError{}
	}

	return &model.MapColumnsResponse{
		Message:         "Import completed",
		ImportedCount:   o.Imported,
		ErrorCount:      o.Errored,
		SkippedCount:    o.Skipped,
		Errors:          errors,
		TruncatedErrors: truncated,
	}
}
