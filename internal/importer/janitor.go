package importer

import (
	"context"
	"strings"
	"time"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/storage"

	"github.com/rs/zerolog"
)

type uploadRegistry interface {
	ExpiredUploads(ctx context.Context, now time.Time) ([]string, error)
	Deregister(ctx context.Context, id, objectKey string)
}

// Janitor deletes raw uploads whose sessions expired uncommitted. Session
// records themselves expire by TTL; only the backing objects need a sweep.
type Janitor struct {
	registry uploadRegistry
	storage  storage.Storage
	interval time.Duration
	log      zerolog.Logger
}

func NewJanitor(registry uploadRegistry, st storage.Storage, cfg *config.Config) *Janitor {
	return &Janitor{
		registry: registry,
		storage:  st,
		interval: cfg.Import.JanitorInterval,
		log:      logger.Get(),
	}
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.log.Info().Dur("interval", j.interval).Msg("Starting upload janitor")

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("Upload janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes the backing objects of every expired registry entry and
// drops the entries.
func (j *Janitor) Sweep(ctx context.Context) {
	entries, err := j.registry.ExpiredUploads(ctx, time.Now())
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list expired uploads")
		return
	}

	for _, entry := range entries {
		id, objectKey, ok := strings.Cut(entry, "|")
		if !ok || objectKey == "" {
			j.log.Warn().Str("entry", entry).Msg("Malformed upload registry entry")
			continue
		}

		// An object can be gone already (committed session, manual cleanup);
		// only the registry entry is left to drop.
		if exists, err := j.storage.Exists(ctx, objectKey); err == nil && !exists {
			j.registry.Deregister(ctx, id, objectKey)
			continue
		}

		if err := j.storage.Delete(ctx, objectKey); err != nil {
			j.log.Warn().Err(err).Str("object_key", objectKey).Msg("Failed to delete expired upload")
			continue
		}
		j.registry.Deregister(ctx, id, objectKey)
		j.log.Debug().Str("session_id", id).Str("object_key", objectKey).Msg("Removed expired upload")
	}
}
