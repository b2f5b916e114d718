package auth_test

import (
	"testing"
	"time"

	"voter-canvass-backend/internal/auth"
	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/model"
)

func testManager(secret string) *auth.Manager {
	return auth.NewManager(&config.Config{
		Auth: config.AuthConfig{JWTSecret: secret, TokenTTL: time.Hour},
	})
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	manager := testManager("test-secret")
	user := &model.User{ID: "user-1", Username: "admin", Role: model.RoleSuperAdmin}

	token, err := manager.Issue(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Username != "admin" {
		t.Errorf("username = %q, want admin", claims.Username)
	}
	if claims.Role != model.RoleSuperAdmin {
		t.Errorf("role = %q, want super_admin", claims.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := testManager("secret-a").Issue(&model.User{ID: "user-1", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := testManager("secret-b").Verify(token); err == nil {
		t.Fatal("token signed with a different secret must not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := testManager("secret").Verify("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
