package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"voter-canvass-backend/internal/auth"
	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/db"
	"voter-canvass-backend/internal/importer"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/model"
	apperrors "voter-canvass-backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type uploadService interface {
	Upload(ctx context.Context, filename, contentType string, data []byte, uploadedBy string) (*model.UploadResponse, error)
}

type commitService interface {
	Commit(ctx context.Context, sessionID string, rawMapping map[string]string, adminID string) (*importer.Outcome, error)
}

type Handler struct {
	uploader  uploadService
	committer commitService
	repo      db.Repository
	tokens    *auth.Manager
	cfg       *config.Config
	log       zerolog.Logger
}

func NewHandler(
	uploader uploadService,
	committer commitService,
	repo db.Repository,
	tokens *auth.Manager,
	cfg *config.Config,
) *Handler {
	return &Handler{
		uploader:  uploader,
		committer: committer,
		repo:      repo,
		tokens:    tokens,
		cfg:       cfg,
		log:       logger.Get(),
	}
}

func (h *Handler) UploadCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}

	if file.Size > h.cfg.Import.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	resp, err := h.uploader.Upload(c.Request.Context(), file.Filename,
		file.Header.Get("Content-Type"), data, c.GetString(ctxUserID))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format, expected CSV or Excel"})
		case errors.Is(err, apperrors.ErrEmptyFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File contains no data rows"})
		default:
			h.log.Error().Err(err).Str("filename", file.Filename).Msg("Upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MapColumns(c *gin.Context) {
	var req model.MapColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.SessionID == "" || req.AdminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and admin_id are required"})
		return
	}

	if err := h.checkAdmin(c, req.AdminID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid admin user"})
		return
	}

	outcome, err := h.committer.Commit(c.Request.Context(), req.SessionID, req.ColumnMapping, req.AdminID)
	if err != nil {
		var verr *apperrors.MappingValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Invalid column mapping",
				"details": verr,
			})
		case errors.Is(err, apperrors.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Import session not found or expired"})
		case errors.Is(err, apperrors.ErrSessionConsumed):
			c.JSON(http.StatusConflict, gin.H{"error": "Import session already consumed"})
		case errors.Is(err, apperrors.ErrCommitTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Import timed out, already committed rows were kept"})
		default:
			h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("Commit failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome.Response(h.cfg.Import.InlineErrors))
}

func (h *Handler) ListImportRuns(c *gin.Context) {
	runs, err := h.repo.ListImportRuns(c.Request.Context(), 50)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if runs == nil {
		runs = []*model.ImportRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

// checkAdmin ensures the import target is an existing, active admin user.
func (h *Handler) checkAdmin(c *gin.Context, adminID string) error {
	admin, err := h.repo.GetUserByID(c.Request.Context(), adminID)
	if err != nil {
		return apperrors.ErrInvalidAdmin
	}
	if admin.Role != model.RoleAdmin || !admin.ActiveStatus {
		return apperrors.ErrInvalidAdmin
	}
	return nil
}
