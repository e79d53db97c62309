package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
	testhelpers "github.com/polkiloo/shopmart/internal/test"
)

func newStrategyStub() testhelpers.StrategyStub {
	return testhelpers.StrategyStub{
		IssueFn: func(c pkgAuth.Claims) (string, error) {
			return fmt.Sprintf("token-%d-%s", c.UserID, c.Role), nil
		},
		ParseFn: func(token string) (pkgAuth.Claims, error) {
			var id int64
			var role string
			if _, err := fmt.Sscanf(strings.ReplaceAll(token, "-", " "), "token %d %s", &id, &role); err != nil {
				return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
			}
			return pkgAuth.Claims{UserID: id, Role: model.Role(role)}, nil
		},
	}
}

func newTestAuthUseCase(t *testing.T) (*AuthUseCase, *testhelpers.MemStore, *testhelpers.PublisherStub) {
	t.Helper()
	store := testhelpers.NewMemStore()
	publisher := &testhelpers.PublisherStub{}
	uc := NewAuthUseCase(store.Users(), testhelpers.HasherStub{}, newStrategyStub(), publisher,
		"http://shop.test/auth/verify", discardLogger())
	return uc, store, publisher
}

func registration(username string) model.Registration {
	return model.Registration{
		Username: username,
		Password: "password",
		Name:     "Kim",
		Email:    username + "@example.com",
		Phone:    "010-" + username,
		Address:  "Seoul",
	}
}

func TestAuthUseCaseRegister(t *testing.T) {
	uc, store, publisher := newTestAuthUseCase(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, registration("alice"))
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if user.ID == 0 || user.Enabled || user.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(user.VerificationToken) != 36 {
		t.Fatalf("expected uuid verification token, got %q", user.VerificationToken)
	}

	stored, err := store.Users().GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("expected user in repository: %v", err)
	}
	if stored.PasswordHash != "hash:password" {
		t.Fatalf("password hash not stored: %v", stored.PasswordHash)
	}

	if len(publisher.UserEvents) != 1 {
		t.Fatalf("expected one user event, got %d", len(publisher.UserEvents))
	}
	event := publisher.UserEvents[0]
	if event.Type != model.EventUserRegistered || event.Email != "alice@example.com" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.VerificationLink != "http://shop.test/auth/verify?token="+user.VerificationToken {
		t.Fatalf("unexpected link %q", event.VerificationLink)
	}
}

func TestAuthUseCaseRegisterAdminAndValidation(t *testing.T) {
	uc, _, _ := newTestAuthUseCase(t)
	ctx := context.Background()

	admin, err := uc.Register(ctx, registration(model.AdminUsername))
	if err != nil || admin.Role != model.RoleAdmin {
		t.Fatalf("expected admin role, got %+v err=%v", admin, err)
	}

	if _, err := uc.Register(ctx, registration(model.AdminUsername)); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	for _, reg := range []model.Registration{
		{Username: " ", Password: "p", Email: "a@b"},
		{Username: "u", Password: "", Email: "a@b"},
		{Username: "u", Password: "p", Email: ""},
	} {
		if _, err := uc.Register(ctx, reg); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %+v, got %v", reg, err)
		}
	}
}

func TestAuthUseCaseRegisterPublishFailureIgnored(t *testing.T) {
	uc, _, publisher := newTestAuthUseCase(t)
	publisher.Err = errors.New("broker down")
	if _, err := uc.Register(context.Background(), registration("dave")); err != nil {
		t.Fatalf("registration must not fail on publish errors: %v", err)
	}
}

func TestAuthUseCaseVerifyAndAuthenticate(t *testing.T) {
	uc, _, _ := newTestAuthUseCase(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, registration("carol"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := uc.Authenticate(ctx, "carol", "password"); !errors.Is(err, domainErrors.ErrNotVerified) {
		t.Fatalf("expected not verified, got %v", err)
	}
	if _, _, err := uc.Authenticate(ctx, "carol", "bad"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, _, err := uc.Authenticate(ctx, "nobody", "password"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	if _, _, err := uc.Authenticate(ctx, "", ""); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for empty input, got %v", err)
	}

	if err := uc.Verify(ctx, ""); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := uc.Verify(ctx, "unknown"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := uc.Verify(ctx, user.VerificationToken); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := uc.Verify(ctx, user.VerificationToken); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("token must be single use, got %v", err)
	}

	_, token, err := uc.Authenticate(ctx, "carol", "password")
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	claims, err := uc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := uc.ParseToken(""); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestAuthUseCaseProfile(t *testing.T) {
	uc, _, _ := newTestAuthUseCase(t)
	ctx := context.Background()
	user, err := uc.Register(ctx, registration("erin"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := uc.Register(ctx, registration("frank")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, err := uc.Profile(ctx, user.ID)
	if err != nil || profile.Username != "erin" {
		t.Fatalf("unexpected profile %+v err=%v", profile, err)
	}

	address := "Busan"
	updated, err := uc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{Address: &address})
	if err != nil || updated.Address != "Busan" || updated.Email != "erin@example.com" {
		t.Fatalf("unexpected update %+v err=%v", updated, err)
	}

	blank := "  "
	if _, err := uc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{Email: &blank}); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	taken := "frank@example.com"
	if _, err := uc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{Email: &taken}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestAuthUseCaseChangePassword(t *testing.T) {
	uc, store, _ := newTestAuthUseCase(t)
	ctx := context.Background()
	user, err := uc.Register(ctx, registration("gina"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := uc.ChangePassword(ctx, user.ID, "password", ""); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := uc.ChangePassword(ctx, user.ID, "wrong", "next"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := uc.ChangePassword(ctx, 999, "password", "next"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := uc.ChangePassword(ctx, user.ID, "password", "next"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored, _ := store.Users().GetByID(ctx, user.ID)
	if stored.PasswordHash != "hash:next" {
		t.Fatalf("unexpected hash %q", stored.PasswordHash)
	}
}
