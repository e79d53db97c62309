package repository

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// UserRepository describes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Verify(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}
