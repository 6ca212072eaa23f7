package reservation

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/reservation"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/httputil"
)

type Handler struct {
	manager *reservation.Manager
}

func NewHandler(manager *reservation.Manager) *Handler {
	return &Handler{manager: manager}
}

// ReserveSlot places a short-lived hold on the slot covering the given
// interval. Exactly one concurrent caller wins; the rest get a
// conflict.
func (h *Handler) ReserveSlot(c *gin.Context) {
	var req model.ReserveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	resp, err := h.manager.ReserveByInterval(c.Request.Context(), req.TrainerID, req.StartTime, req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

// ReleaseSlot drops a hold. Releasing an expired or foreign hold is a
// no-op.
func (h *Handler) ReleaseSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("slot_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("slot_id", "must be a valid id"))
		return
	}

	token := c.Query("reservation_token")
	if token == "" {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("reservation_token", "is required"))
		return
	}

	if err := h.manager.Release(c.Request.Context(), slotID, token); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"released": slotID})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auths *middleware.AuthMiddleware) {
	r.POST("/reservations", auths.RequireRole(auth.RoleClient), h.ReserveSlot)
	r.DELETE("/reservations/:slot_id", auths.RequireRole(auth.RoleClient), h.ReleaseSlot)
}
