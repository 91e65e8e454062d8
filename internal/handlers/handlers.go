// Package handlers binds HTTP requests to the household services. Handlers
// only parse input and shape responses; authorization and validation live in
// the services.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/middleware"
)

func currentUser(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pathIDs parses several path parameters, stopping at the first bad one.
func pathIDs(c *gin.Context, names ...string) ([]uint64, bool) {
	ids := make([]uint64, len(names))
	for i, name := range names {
		id, ok := pathID(c, name)
		if !ok {
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

func queryUint(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &v, true
}

// queryTime parses an RFC 3339 timestamp or a plain date.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	apierrors.BadRequest(c, "Invalid "+name)
	return nil, false
}

func respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

func noContent(c *gin.Context, err error) {
	respond(c, http.StatusNoContent, nil, err)
}
