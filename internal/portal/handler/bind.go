package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/middleware"
)

// bindJSON decodes the request body into v and answers 400 on malformed input.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.Error(err)
		middleware.Abort(c, http.StatusBadRequest, "Malformed JSON request")
		return false
	}
	return true
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		middleware.Abort(c, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", raw))
		return 0, false
	}
	return id, true
}
