package schedule

import (
	"github.com/gin-gonic/gin"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/scheduling"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/httputil"
)

type Handler struct {
	finder *scheduling.Finder
}

func NewHandler(finder *scheduling.Finder) *Handler {
	return &Handler{finder: finder}
}

// FindOptimalSchedule ranks bookable candidates against the caller's
// preferences. Read-only: nothing is held or booked. An empty result
// carries an explanatory message and is still a success.
func (h *Handler) FindOptimalSchedule(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.FindScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}
	if req.LatestDate.Before(req.EarliestDate) {
		httputil.RespondWithError(c, apperrors.NewFieldValidation("latest_date", "must not precede earliest_date"))
		return
	}

	suggestions, err := h.finder.FindOptimalSchedule(c.Request.Context(), actor.ID, req.Preferences())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, suggestions)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auths *middleware.AuthMiddleware) {
	r.POST("/schedule/optimal", auths.RequireRole(auth.RoleClient), h.FindOptimalSchedule)
}
