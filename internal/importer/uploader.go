package importer

import (
	"bytes"
	"context"
	"fmt"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/model"
	"voter-canvass-backend/internal/storage"
	"voter-canvass-backend/internal/tabular"

	"github.com/rs/zerolog"
)

// SessionCreator is the slice of the session store the uploader needs.
type SessionCreator interface {
	Create(ctx context.Context, meta model.SessionMeta) (string, error)
}

// ObjectKeyer names the archive object for a session's raw file.
type ObjectKeyer interface {
	UploadKey(sessionID, filename string) string
}

// Uploader turns an uploaded file into a pending import session: parse,
// archive the raw bytes, hand back detected columns and a bounded preview.
// No session is created when parsing fails.
type Uploader struct {
	store   SessionCreator
	storage storage.Storage
	keyer   ObjectKeyer
	parser  *tabular.Parser
	cfg     *config.Config
	log     zerolog.Logger
}

func NewUploader(store SessionCreator, st storage.Storage, keyer ObjectKeyer, cfg *config.Config) *Uploader {
	return &Uploader{
		store:   store,
		storage: st,
		keyer:   keyer,
		parser:  tabular.NewParser(),
		cfg:     cfg,
		log:     logger.Get(),
	}
}

func (u *Uploader) Upload(ctx context.Context, filename, contentType string, data []byte, uploadedBy string) (*model.UploadResponse, error) {
	format, err := tabular.DetectFormat(filename, contentType)
	if err != nil {
		return nil, err
	}

	table, err := u.parser.Parse(data, format)
	if err != nil {
		return nil, err
	}

	meta := model.SessionMeta{
		Filename:   filename,
		Format:     string(format),
		Columns:    table.Columns,
		TotalRows:  len(table.Rows),
		UploadedBy: uploadedBy,
	}

	sessionID, err := u.createWithObject(ctx, &meta, data)
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("session_id", sessionID).
		Str("filename", filename).
		Int("total_rows", len(table.Rows)).
		Int("columns", len(table.Columns)).
		Msg("Upload staged for mapping")

	return &model.UploadResponse{
		SessionID: sessionID,
		Columns:   table.Columns,
		Preview:   table.Preview(u.cfg.Import.PreviewRows),
		TotalRows: len(table.Rows),
		Warnings:  table.Warnings,
	}, nil
}

func (u *Uploader) createWithObject(ctx context.Context, meta *model.SessionMeta, data []byte) (string, error) {
	id := model.NewSessionID()
	meta.ObjectKey = u.keyer.UploadKey(id, meta.Filename)

	if err := u.storage.Upload(ctx, meta.ObjectKey, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}

	meta.ID = id
	sessionID, err := u.store.Create(ctx, *meta)
	if err != nil {
		// Don't leak the object when the session never materialized.
		if derr := u.storage.Delete(ctx, meta.ObjectKey); derr != nil {
			u.log.Warn().Err(derr).Str("object_key", meta.ObjectKey).Msg("Failed to delete orphaned upload")
		}
		return "", err
	}
	return sessionID, nil
}
