package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/model"
	"voter-canvass-backend/internal/storage"
	"voter-canvass-backend/internal/tabular"
	apperrors "voter-canvass-backend/pkg/errors"

	"github.com/rs/zerolog"
)

// SessionStore is the slice of the session store the committer needs.
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.SessionMeta, error)
	Acquire(ctx context.Context, id string) error
	Release(ctx context.Context, id string)
	Consume(ctx context.Context, id string) error
	Deregister(ctx context.Context, id, objectKey string)
}

// VoterWriter is the slice of the repository the committer needs.
type VoterWriter interface {
	UpsertVoter(ctx context.Context, voter *model.Voter) (bool, error)
	InsertImportRun(ctx context.Context, run *model.ImportRun) error
}

// Committer applies a validated column mapping to every row of an uploaded
// file and upserts the survivors into the voter store. Failures are per-row:
// a batch with a handful of malformed rows still commits the rest.
type Committer struct {
	store   SessionStore
	storage storage.Storage
	parser  *tabular.Parser
	repo    VoterWriter
	cfg     *config.Config
	log     zerolog.Logger
}

func NewCommitter(store SessionStore, st storage.Storage, repo VoterWriter, cfg *config.Config) *Committer {
	return &Committer{
		store:   store,
		storage: st,
		parser:  tabular.NewParser(),
		repo:    repo,
		cfg:     cfg,
		log:     logger.Get(),
	}
}

// Commit runs the whole map-and-import operation for one session. The
// session is consumed only as the final step: a crash mid-commit leaves it
// re-attemptable, and the idempotent upsert makes the retry safe.
func (c *Committer) Commit(ctx context.Context, sessionID string, rawMapping map[string]string, adminID string) (*Outcome, error) {
	meta, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	mapping, err := ValidateMapping(rawMapping, meta.Columns)
	if err != nil {
		return nil, err
	}

	if err := c.store.Acquire(ctx, sessionID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Import.CommitTimeout)
	defer cancel()

	log := c.log.With().Str("session_id", sessionID).Str("admin_id", adminID).Logger()

	table, err := c.reloadTable(ctx, meta)
	if err != nil {
		c.store.Release(ctx, sessionID)
		return nil, err
	}

	outcome := &Outcome{TotalRows: len(table.Rows)}

	for i, row := range table.Rows {
		if ctx.Err() != nil {
			// Rows already upserted stay; the session survives for a retry.
			c.store.Release(context.Background(), sessionID)
			log.Error().Int("row", i+1).Msg("Commit timed out")
			return nil, apperrors.ErrCommitTimeout
		}

		voter, blank, terr := transformRow(row, mapping, adminID)
		if blank {
			outcome.Skipped++
			continue
		}
		if terr != nil {
			outcome.recordError(c.cfg.Import.ErrorReportCap,
				apperrors.RowError{Row: i + 1, Reason: terr.Error()})
			continue
		}

		if _, uerr := c.repo.UpsertVoter(ctx, voter); uerr != nil {
			outcome.recordError(c.cfg.Import.ErrorReportCap,
				apperrors.RowError{Row: i + 1, Reason: fmt.Sprintf("failed to save: %v", uerr)})
			continue
		}
		outcome.Imported++
	}

	run := &model.ImportRun{
		SessionID:     sessionID,
		Filename:      meta.Filename,
		AdminID:       adminID,
		UploadedBy:    meta.UploadedBy,
		TotalRows:     outcome.TotalRows,
		ImportedCount: outcome.Imported,
		ErrorCount:    outcome.Errored,
		SkippedCount:  outcome.Skipped,
	}
	if err := c.repo.InsertImportRun(ctx, run); err != nil {
		log.Error().Err(err).Msg("Failed to record import run")
	}

	if err := c.store.Consume(ctx, sessionID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSessionConsumed), errors.Is(err, apperrors.ErrSessionNotFound):
			// The session TTL lapsed while the rows were being written. The
			// commit lock kept racing commits out, every row is already
			// upserted and the run recorded, so the caller still gets the
			// accounting.
			log.Warn().Err(err).Msg("Session gone at consume, reporting outcome anyway")
		default:
			c.store.Release(ctx, sessionID)
			return nil, err
		}
	}

	// The raw upload is no longer needed once the session is consumed.
	if err := c.storage.Delete(ctx, meta.ObjectKey); err != nil {
		log.Warn().Err(err).Str("object_key", meta.ObjectKey).Msg("Failed to delete raw upload")
	}
	c.store.Deregister(ctx, sessionID, meta.ObjectKey)

	log.Info().
		Int("imported", outcome.Imported).
		Int("errored", outcome.Errored).
		Int("skipped", outcome.Skipped).
		Msg("Import committed")

	return outcome, nil
}

// reloadTable re-reads the full original upload from object storage, not the
// bounded preview held in the session.
func (c *Committer) reloadTable(ctx context.Context, meta *model.SessionMeta) (*tabular.Table, error) {
	reader, err := c.storage.Download(ctx, meta.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download upload: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return c.parser.Parse(data, tabular.Format(meta.Format))
}
