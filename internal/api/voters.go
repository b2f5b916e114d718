package api

import (
	"net/http"
	"strconv"
	"time"

	"voter-canvass-backend/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (h *Handler) ListVoters(c *gin.Context) {
	filter := model.VoterFilter{
		Search:      c.Query("search"),
		Gender:      c.Query("gender"),
		Area:        c.Query("area"),
		Ward:        c.Query("ward"),
		BoothNumber: c.Query("booth_number"),
		AgeMin:      intQuery(c, "age_min"),
		AgeMax:      intQuery(c, "age_max"),
		Visited:     boolQuery(c, "visited"),
		Voted:       boolQuery(c, "voted"),
		Page:        1,
		Limit:       defaultPageSize,
	}

	if page := intQuery(c, "page"); page != nil && *page > 0 {
		filter.Page = *page
	}
	if limit := intQuery(c, "limit"); limit != nil && *limit > 0 {
		filter.Limit = *limit
		if filter.Limit > maxPageSize {
			filter.Limit = maxPageSize
		}
	}

	// Data isolation: karyakartas see only assigned voters, admins only
	// their own slice. Super admins are unrestricted.
	switch c.MustGet(ctxRole).(model.Role) {
	case model.RoleKaryakarta:
		filter.AssignedTo = c.GetString(ctxUserID)
	case model.RoleAdmin:
		filter.AdminID = c.GetString(ctxUserID)
		filter.AssignedTo = c.Query("assigned_to")
	}

	voters, total, err := h.repo.ListVoters(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list voters")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if voters == nil {
		voters = []*model.Voter{}
	}

	c.JSON(http.StatusOK, model.VoterListResponse{
		Voters: voters,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
		Pages:  (total + filter.Limit - 1) / filter.Limit,
	})
}

func (h *Handler) GetVoter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid voter ID"})
		return
	}

	voter, err := h.repo.GetVoter(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Voter not found"})
		return
	}
	c.JSON(http.StatusOK, voter)
}

type createVoterRequest struct {
	VoterID     string `json:"voter_id"`
	Name        string `json:"name" binding:"required"`
	NameLocal   string `json:"name_local"`
	Gender      string `json:"gender" binding:"required"`
	Age         *int   `json:"age"`
	Area        string `json:"area" binding:"required"`
	Ward        string `json:"ward"`
	BoothNumber string `json:"booth_number" binding:"required"`
	Phone       string `json:"phone"`
	Caste       string `json:"caste"`
	Address     string `json:"address"`
}

func (h *Handler) CreateVoter(c *gin.Context) {
	var req createVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	gender, ok := model.ParseGender(req.Gender)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gender value"})
		return
	}

	voter := &model.Voter{
		VoterID:       req.VoterID,
		Name:          req.Name,
		NameLocal:     req.NameLocal,
		FullName:      req.Name,
		Gender:        gender,
		Area:          req.Area,
		Ward:          req.Ward,
		BoothNumber:   req.BoothNumber,
		Phone:         req.Phone,
		Caste:         req.Caste,
		Address:       req.Address,
		FavorScore:    50.0,
		FavorCategory: model.FavorNeutral,
	}
	if req.Age != nil {
		voter.Age = *req.Age
	}
	if c.MustGet(ctxRole).(model.Role) == model.RoleAdmin {
		voter.AdminID = c.GetString(ctxUserID)
	}

	if err := h.repo.CreateVoter(c.Request.Context(), voter); err != nil {
		h.log.Error().Err(err).Str("full_name", voter.FullName).Msg("Failed to create voter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create voter"})
		return
	}

	c.JSON(http.StatusCreated, voter)
}

func (h *Handler) DashboardSummary(c *gin.Context) {
	adminID := ""
	if c.MustGet(ctxRole).(model.Role) == model.RoleAdmin {
		adminID = c.GetString(ctxUserID)
	}

	total, visited, voted, err := h.repo.DashboardCounts(c.Request.Context(), adminID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load dashboard counts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	summary := model.DashboardSummary{
		TotalVoters: total,
		Visited:     visited,
		Voted:       voted,
		UpdatedAt:   time.Now().UTC(),
	}
	if total > 0 {
		summary.CoveragePct = float64(visited) / float64(total) * 100
		summary.TurnoutPct = float64(voted) / float64(total) * 100
	}

	c.JSON(http.StatusOK, summary)
}

func intQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func boolQuery(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
