package request

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/request"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/httputil"
)

type Handler struct {
	service *request.Service
}

func NewHandler(service *request.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateBookingRequest(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var input model.CreateBookingRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	req, err := h.service.Create(c.Request.Context(), actor, &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, req)
}

func (h *Handler) GetBookingRequest(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	req, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, req)
}

// ListBookingRequests returns the caller's own side of the queue,
// optionally filtered by status.
func (h *Handler) ListBookingRequests(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	status := model.BookingRequestStatus(c.Query("status"))
	reqs, err := h.service.List(c.Request.Context(), actor, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, reqs)
}

func (h *Handler) ApproveBookingRequest(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	var input model.ApproveBookingRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	booking, err := h.service.Approve(c.Request.Context(), actor, id, &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, booking)
}

func (h *Handler) RejectBookingRequest(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	var input model.RejectBookingRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("reason", "is required"))
		return
	}

	req, err := h.service.Reject(c.Request.Context(), actor, id, input.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, req)
}

func (h *Handler) CancelBookingRequest(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	var input model.CancelInput
	_ = c.ShouldBindJSON(&input)

	req, err := h.service.CancelRequest(c.Request.Context(), actor, id, input.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, req)
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, booking)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	var input model.CancelInput
	_ = c.ShouldBindJSON(&input)

	booking, err := h.service.CancelBooking(c.Request.Context(), actor, id, input.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, booking)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("id", "must be a valid id"))
		return
	}

	booking, err := h.service.CompleteBooking(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, booking)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auths *middleware.AuthMiddleware) {
	requests := r.Group("/booking-requests")
	{
		requests.POST("", auths.RequireRole(auth.RoleClient), h.CreateBookingRequest)
		requests.GET("", h.ListBookingRequests)
		requests.GET("/:id", h.GetBookingRequest)
		requests.POST("/:id/approve", auths.RequireRole(auth.RoleTrainer), h.ApproveBookingRequest)
		requests.POST("/:id/reject", auths.RequireRole(auth.RoleTrainer), h.RejectBookingRequest)
		requests.POST("/:id/cancel", auths.RequireRole(auth.RoleClient), h.CancelBookingRequest)
	}

	bookings := r.Group("/bookings")
	{
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/complete", auths.RequireRole(auth.RoleTrainer), h.CompleteBooking)
	}
}
