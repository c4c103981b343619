package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/middleware"
	"github.com/songzhibin97/academia/pkg/entity"
)

// EntityHandler exposes create, get and list for one store.
type EntityHandler[V any] struct {
	store   *entity.Store[int64, V]
	errors  *middleware.ErrorResponder
	prepare func(*gin.Context, *V)
}

// NewEntityHandler creates a handler over store. prepare, when set, fills
// server-side defaults into a decoded body before it is saved.
func NewEntityHandler[V any](store *entity.Store[int64, V], errs *middleware.ErrorResponder, prepare func(*gin.Context, *V)) *EntityHandler[V] {
	return &EntityHandler[V]{store: store, errors: errs, prepare: prepare}
}

// Create handles POST and answers 201 with the saved record.
func (h *EntityHandler[V]) Create(c *gin.Context) {
	value := new(V)
	if !bindJSON(c, value) {
		return
	}
	if h.prepare != nil {
		h.prepare(c, value)
	}

	saved, err := h.store.Save(c.Request.Context(), value)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Get handles GET /:id
func (h *EntityHandler[V]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	value, err := h.store.GetByKey(c.Request.Context(), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

// List handles GET on the collection. An empty collection is reported as
// not found.
func (h *EntityHandler[V]) List(c *gin.Context) {
	values, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}
