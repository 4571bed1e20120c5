package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pano-service/internal/config"
	"pano-service/internal/model"
	authsvc "pano-service/internal/service/auth"
	appErr "pano-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *authsvc.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Wallet{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	config.GlobalConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret: "test-secret",
			Expire: 1,
		},
	}

	return db, authsvc.NewService(db)
}

func TestRegisterCreatesUserAndWallet(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authsvc.RegisterParams{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == 0 || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.InviteCode == "" {
		t.Fatalf("expected invite code")
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("password must not be stored in clear")
	}

	var wallet model.Wallet
	if err := db.Where("user_id = ?", user.ID).First(&wallet).Error; err != nil {
		t.Fatalf("expected wallet row: %v", err)
	}
	if wallet.BalanceAvailable != 0 {
		t.Fatalf("new wallet must start empty, got %d", wallet.BalanceAvailable)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authsvc.RegisterParams{Username: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Register(ctx, authsvc.RegisterParams{Username: "alice", Email: "other@example.com", Password: "secret123"})
	if !errors.Is(err, appErr.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = svc.Register(ctx, authsvc.RegisterParams{Username: "bob", Email: "alice@example.com", Password: "secret123"})
	if !errors.Is(err, appErr.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	cases := []authsvc.RegisterParams{
		{Username: "al", Email: "a@b.com", Password: "secret123"},
		{Username: "alice", Email: "not-an-email", Password: "secret123"},
		{Username: "alice", Email: "a@b.com", Password: "short"},
	}
	for i, params := range cases {
		if _, err := svc.Register(ctx, params); !errors.Is(err, appErr.ErrInvalidCredentials) {
			t.Fatalf("case %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
}

func TestLoginWithUsernameOrEmail(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authsvc.RegisterParams{Username: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	byName, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("login by username failed: %v", err)
	}
	if byName.Token == "" {
		t.Fatalf("expected a token")
	}

	byEmail, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
	if byEmail.User.ID != byName.User.ID {
		t.Fatalf("both logins should resolve the same user")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authsvc.RegisterParams{Username: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "secret123"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginRejectsBannedUser(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authsvc.RegisterParams{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(user).Update("status", "banned").Error; err != nil {
		t.Fatalf("failed to ban user: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "secret123"); !errors.Is(err, appErr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
