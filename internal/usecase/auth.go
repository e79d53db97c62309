package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
)

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	users     repository.UserRepository
	hasher    pkgAuth.PasswordHasher
	tokens    pkgAuth.Strategy
	events    EventPublisher
	verifyURL string
	logger    *slog.Logger
}

// NewAuthUseCase constructs AuthUseCase. verifyURL prefixes the link sent to
// new users, which gets the verification token as its "token" query parameter.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy,
	events EventPublisher, verifyURL string, logger *slog.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy, events: events, verifyURL: verifyURL, logger: logger}
}

// Register creates a disabled account and asks for email verification.
func (u *AuthUseCase) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" || reg.Password == "" || reg.Email == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if reg.Username == model.AdminUsername {
		role = model.RoleAdmin
	}

	usr, err := u.users.Create(ctx, &model.User{
		Username:          reg.Username,
		PasswordHash:      hash,
		Name:              strings.TrimSpace(reg.Name),
		Email:             reg.Email,
		Phone:             strings.TrimSpace(reg.Phone),
		Address:           strings.TrimSpace(reg.Address),
		Role:              role,
		VerificationToken: pkgAuth.NewVerificationToken(),
	})
	if err != nil {
		return nil, err
	}

	event := model.UserEvent{
		Type:             model.EventUserRegistered,
		UserID:           usr.ID,
		Email:            usr.Email,
		VerificationLink: u.verificationLink(usr.VerificationToken),
	}
	if err := u.events.PublishUserEvent(ctx, event); err != nil {
		u.logger.Warn("publish registration event failed", slog.Int64("user_id", usr.ID), slog.String("error", err.Error()))
	}

	return usr, nil
}

func (u *AuthUseCase) verificationLink(token string) string {
	sep := "?"
	if strings.Contains(u.verifyURL, "?") {
		sep = "&"
	}
	return u.verifyURL + sep + "token=" + url.QueryEscape(token)
}

// Verify enables the account owning token.
func (u *AuthUseCase) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainErrors.ErrInvalidInput
	}
	return u.users.Verify(ctx, token)
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if !usr.Enabled {
		return nil, "", domainErrors.ErrNotVerified
	}

	token, err := u.tokens.IssueToken(pkgAuth.Claims{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken extracts caller claims from provided token.
func (u *AuthUseCase) ParseToken(token string) (pkgAuth.Claims, error) {
	if token == "" {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// Profile fetches user by identifier.
func (u *AuthUseCase) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return u.users.GetByID(ctx, userID)
}

func (u *AuthUseCase) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, domainErrors.ErrInvalidInput
		}
		update.Email = &email
	}
	return u.users.UpdateProfile(ctx, userID, update)
}

// ChangePassword replaces the password after checking the current one.
func (u *AuthUseCase) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if next == "" {
		return domainErrors.ErrInvalidInput
	}
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.hasher.Compare(usr.PasswordHash, current); err != nil {
		return domainErrors.ErrInvalidCredentials
	}
	hash, err := u.hasher.Hash(next)
	if err != nil {
		return err
	}
	return u.users.UpdatePassword(ctx, userID, hash)
}
