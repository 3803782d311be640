package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brickvest/scheduler"
	"brickvest/service"
)

// ProcessingHandler exposes the batch entry points and the scheduler's
// state. These routes are operational, not user-facing; they still sit
// behind the identity middleware so every trigger is attributable.
type ProcessingHandler struct {
	executor service.ExecutorService
	sched    *scheduler.Scheduler
}

func NewProcessingHandler(executor service.ExecutorService, sched *scheduler.Scheduler) *ProcessingHandler {
	return &ProcessingHandler{executor: executor, sched: sched}
}

func (h *ProcessingHandler) RunAutoInvest(c *gin.Context) {
	result, err := h.sched.TriggerManual(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result, "Auto-invest batch completed")
}

func (h *ProcessingHandler) RunAutoReinvest(c *gin.Context) {
	result, err := h.executor.ProcessPendingReinvestments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result, "Auto-reinvest batch completed")
}

func (h *ProcessingHandler) SchedulerStatus(c *gin.Context) {
	respond(c, http.StatusOK, h.sched.Status(), "")
}
