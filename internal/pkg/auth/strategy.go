package auth

import (
	"time"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// Claims identify the caller behind a token.
type Claims struct {
	UserID int64
	Role   model.Role
}

// IsAdmin reports whether the caller may use administrative endpoints.
func (c Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

type Strategy interface {
	IssueToken(claims Claims) (string, error)
	ParseToken(token string) (Claims, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
