package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/domain/model"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
	"github.com/polkiloo/shopmart/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentClaims returns the parsed token of the caller.
func CurrentClaims(c *gin.Context) pkgAuth.Claims {
	val, ok := c.Get(middleware.ClaimsContextKey)
	if !ok {
		return pkgAuth.Claims{}
	}
	claims, _ := val.(pkgAuth.Claims)
	return claims
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func pageRequest(c *gin.Context) (model.PageRequest, bool) {
	page, ok := queryInt(c, "page", 0)
	if !ok {
		return model.PageRequest{}, false
	}
	size, ok := queryInt(c, "size", 0)
	if !ok {
		return model.PageRequest{}, false
	}
	return model.PageRequest{Page: page, Size: size}, true
}
