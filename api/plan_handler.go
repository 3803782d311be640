package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"brickvest/models"
	"brickvest/service"
)

// PlanHandler serves the plan lifecycle and statistics endpoints
type PlanHandler struct {
	plans service.PlanService
	stats service.StatsService
}

func NewPlanHandler(plans service.PlanService, stats service.StatsService) *PlanHandler {
	return &PlanHandler{plans: plans, stats: stats}
}

type createPlanRequest struct {
	Kind                  string           `json:"kind" binding:"required"`
	MonthlyAmount         *decimal.Decimal `json:"monthlyAmount"`
	DepositDay            *int             `json:"depositDay"`
	ReinvestPercentage    *decimal.Decimal `json:"reinvestPercentage"`
	MinimumReinvestAmount *decimal.Decimal `json:"minimumReinvestAmount"`
	Theme                 string           `json:"theme"`
	RiskLevel             string           `json:"riskLevel"`
	PreferredRegions      []string         `json:"preferredRegions"`
	ExcludedPropertyTypes []string         `json:"excludedPropertyTypes"`
	Notes                 *string          `json:"notes"`
}

type updatePlanRequest struct {
	MonthlyAmount         *decimal.Decimal `json:"monthlyAmount"`
	DepositDay            *int             `json:"depositDay"`
	ReinvestPercentage    *decimal.Decimal `json:"reinvestPercentage"`
	MinimumReinvestAmount *decimal.Decimal `json:"minimumReinvestAmount"`
	Theme                 *string          `json:"theme"`
	RiskLevel             *string          `json:"riskLevel"`
	PreferredRegions      []string         `json:"preferredRegions"`
	ExcludedPropertyTypes []string         `json:"excludedPropertyTypes"`
	Notes                 *string          `json:"notes"`
}

// planKindParam parses the :kind path segment. A bad segment is a 404,
// not a 400: /api/plans/weekly simply isn't a route we serve.
func planKindParam(c *gin.Context) (models.PlanKind, bool) {
	switch kind := models.PlanKind(c.Param("kind")); kind {
	case models.PlanKindAutoInvest, models.PlanKindAutoReinvest:
		return kind, true
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "unknown plan kind",
		})
		return "", false
	}
}

func (h *PlanHandler) Create(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.NewValidationError("invalid request body: %v", err))
		return
	}

	input := service.CreatePlanInput{
		Kind:                  models.PlanKind(req.Kind),
		MonthlyAmount:         req.MonthlyAmount,
		DepositDay:            req.DepositDay,
		ReinvestPercentage:    req.ReinvestPercentage,
		MinimumReinvestAmount: req.MinimumReinvestAmount,
		Theme:                 models.InvestmentTheme(req.Theme),
		RiskLevel:             req.RiskLevel,
		PreferredRegions:      req.PreferredRegions,
		ExcludedPropertyTypes: req.ExcludedPropertyTypes,
		Notes:                 req.Notes,
	}

	plan, err := h.plans.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, plan, "Plan created")
}

func (h *PlanHandler) Get(c *gin.Context) {
	kind, ok := planKindParam(c)
	if !ok {
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), currentUserID(c), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	if plan == nil {
		respondError(c, service.NewNotFoundError("no %s plan found", kind))
		return
	}
	respond(c, http.StatusOK, plan, "")
}

func (h *PlanHandler) Update(c *gin.Context) {
	kind, ok := planKindParam(c)
	if !ok {
		return
	}
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.NewValidationError("invalid request body: %v", err))
		return
	}

	input := service.UpdatePlanInput{
		MonthlyAmount:         req.MonthlyAmount,
		DepositDay:            req.DepositDay,
		ReinvestPercentage:    req.ReinvestPercentage,
		MinimumReinvestAmount: req.MinimumReinvestAmount,
		RiskLevel:             req.RiskLevel,
		PreferredRegions:      req.PreferredRegions,
		ExcludedPropertyTypes: req.ExcludedPropertyTypes,
		Notes:                 req.Notes,
	}
	if req.Theme != nil {
		theme := models.InvestmentTheme(*req.Theme)
		input.Theme = &theme
	}

	plan, err := h.plans.Update(c.Request.Context(), currentUserID(c), kind, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plan, "Plan updated")
}

type toggleRequest struct {
	Action string `json:"action"`
}

// Toggle pauses or resumes a plan. With an explicit action the
// requested transition is attempted as-is; without one the current
// status decides, and anything but active/paused is a conflict.
func (h *PlanHandler) Toggle(c *gin.Context) {
	kind, ok := planKindParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var req toggleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, service.NewValidationError("invalid request body: %v", err))
			return
		}
	}

	action := req.Action
	if action == "" {
		plan, err := h.plans.Get(ctx, userID, kind)
		if err != nil {
			respondError(c, err)
			return
		}
		if plan == nil {
			respondError(c, service.NewNotFoundError("no %s plan found", kind))
			return
		}
		switch plan.Status {
		case models.PlanStatusActive:
			action = "pause"
		case models.PlanStatusPaused:
			action = "resume"
		default:
			respondError(c, service.NewInvalidStateError("plan is %s and cannot be toggled", plan.Status))
			return
		}
	}

	var (
		plan    *models.Plan
		err     error
		message string
	)
	switch action {
	case "pause":
		plan, err = h.plans.Pause(ctx, userID, kind)
		message = "Plan paused"
	case "resume":
		plan, err = h.plans.Resume(ctx, userID, kind)
		message = "Plan resumed"
	default:
		err = service.NewValidationError("action must be pause or resume")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plan, message)
}

func (h *PlanHandler) Cancel(c *gin.Context) {
	kind, ok := planKindParam(c)
	if !ok {
		return
	}
	plan, err := h.plans.Cancel(c.Request.Context(), currentUserID(c), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plan, "Plan cancelled")
}

// Stats serves performance figures. Only autoinvest plans carry a
// deposit history worth projecting.
func (h *PlanHandler) Stats(c *gin.Context) {
	kind, ok := planKindParam(c)
	if !ok {
		return
	}
	if kind != models.PlanKindAutoInvest {
		respondError(c, service.NewValidationError("statistics are only available for autoinvest plans"))
		return
	}
	stats, err := h.stats.PlanStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats, "")
}
