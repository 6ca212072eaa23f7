package availability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/availability"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/httputil"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

// GetAvailability returns bookable candidates for a trainer within a
// date window, merged to the requested duration.
func (h *Handler) GetAvailability(c *gin.Context) {
	trainerID, err := uuid.Parse(c.Query("trainer_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("trainer_id", "must be a valid id"))
		return
	}

	from, to, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	duration := 60
	if raw := c.Query("duration_minutes"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			httputil.RespondWithError(c, apperrors.NewFieldValidation("duration_minutes", "must be a positive number of minutes"))
			return
		}
	}

	candidates, err := h.service.GetAvailableSlots(c.Request.Context(), trainerID, from, to, duration)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, candidates)
}

// CreateBulkSlots generates slots across a date range for the calling
// trainer.
func (h *Handler) CreateBulkSlots(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateBulkSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}
	req.TrainerID = actor.ID

	slots, err := h.service.CreateBulkSlots(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, gin.H{"created": len(slots), "slots": slots})
}

// ListTrainerSlots returns a trainer's raw slot inventory.
func (h *Handler) ListTrainerSlots(c *gin.Context) {
	trainerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	from, to, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), trainerID, from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}

// SetAvailability toggles whether an unbooked slot is offered.
func (h *Handler) SetAvailability(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	var req model.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	if err := h.service.SetAvailability(c.Request.Context(), slotID, *req.IsAvailable); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"slot_id": slotID, "is_available": *req.IsAvailable})
}

// DeleteSlot removes an unbooked slot from the inventory.
func (h *Handler) DeleteSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), slotID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": slotID})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auths *middleware.AuthMiddleware) {
	r.GET("/availability", h.GetAvailability)
	r.POST("/availability/bulk", auths.RequireRole(auth.RoleTrainer), h.CreateBulkSlots)
	r.GET("/trainers/:id/slots", h.ListTrainerSlots)
	r.PATCH("/slots/:id/availability", auths.RequireRole(auth.RoleTrainer), h.SetAvailability)
	r.DELETE("/slots/:id", auths.RequireRole(auth.RoleTrainer), h.DeleteSlot)
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewFieldValidation("start_date", "must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewFieldValidation("end_date", "must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.NewFieldValidation("end_date", "must not precede start_date")
	}
	// End of range is inclusive of the final day.
	return from, to.Add(24 * time.Hour), nil
}
