package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

const userColumns = `id, username, password_hash, name, email, COALESCE(phone, ''), address, role, enabled,
                     COALESCE(verification_token, ''), created_at`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Role, &u.Enabled, &u.VerificationToken, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const query = `INSERT INTO users (username, password_hash, name, email, phone, address, role, enabled, verification_token)
                   VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''))
                   RETURNING id, created_at`
	created := *user
	err := r.storage.pool.QueryRow(ctx, query,
		user.Username, user.PasswordHash, user.Name, user.Email, user.Phone, user.Address, user.Role, user.Enabled, user.VerificationToken,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, username))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) Verify(ctx context.Context, token string) error {
	const query = `UPDATE users SET enabled=TRUE, verification_token=NULL WHERE verification_token=$1`
	tag, err := r.storage.pool.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	const query = `UPDATE users
                   SET name = COALESCE($2, name),
                       email = COALESCE($3, email),
                       phone = COALESCE($4, phone),
                       address = COALESCE($5, address)
                   WHERE id=$1
                   RETURNING ` + userColumns
	user, err := scanUser(r.storage.pool.QueryRow(ctx, query, userID, update.Name, update.Email, update.Phone, update.Address))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
