package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/auth"
	"github.com/songzhibin97/academia/internal/portal/middleware"
	"github.com/songzhibin97/academia/internal/portal/service"
	"github.com/songzhibin97/academia/pkg/portal"
)

// ProfileHandler exposes one kind of role profile.
type ProfileHandler[V any, PV service.ProfilePtr[V]] struct {
	profiles *service.Profiles[V, PV]
	errors   *middleware.ErrorResponder
	setOwner func(*V, int64)
}

// NewProfileHandler creates a profile handler. setOwner fills the profile key
// from the caller when the body leaves it unset.
func NewProfileHandler[V any, PV service.ProfilePtr[V]](
	profiles *service.Profiles[V, PV],
	errs *middleware.ErrorResponder,
	setOwner func(*V, int64),
) *ProfileHandler[V, PV] {
	return &ProfileHandler[V, PV]{profiles: profiles, errors: errs, setOwner: setOwner}
}

// Create handles POST and answers 201 with the saved profile. Only
// administrators may write a profile owned by another account.
func (h *ProfileHandler[V, PV]) Create(c *gin.Context) {
	profile := new(V)
	if !bindJSON(c, profile) {
		return
	}
	if user, ok := auth.GetUserFromContext(c.Request.Context()); ok {
		owner := PV(profile).OwnerID()
		switch {
		case owner == 0:
			h.setOwner(profile, user.ID)
		case owner != user.ID && user.Role != string(portal.RoleAdministrator):
			middleware.Abort(c, http.StatusForbidden, "Access is denied")
			return
		}
	}

	saved, err := h.profiles.Save(c.Request.Context(), profile)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Get handles GET /:id where id is the owning account's ID.
func (h *ProfileHandler[V, PV]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
