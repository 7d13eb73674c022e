package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/logiclens/gatepass-go/internal/application/services"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminLoginPlaintext(t *testing.T) {
	auth := services.NewAdminAuthService(
		quietLogger(t), "admin", "", "s3cret", "test-jwt-secret", time.Hour)

	token, err := auth.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty session token")
	}

	username, err := auth.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if username != "admin" {
		t.Errorf("username = %q, want admin", username)
	}
}

func TestAdminLoginBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	auth := services.NewAdminAuthService(
		quietLogger(t), "admin", string(hash), "", "test-jwt-secret", time.Hour)

	if _, err := auth.Login("admin", "s3cret"); err != nil {
		t.Fatalf("Login with correct password: %v", err)
	}
	if _, err := auth.Login("admin", "wrong"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Login with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	auth := services.NewAdminAuthService(
		quietLogger(t), "admin", "", "s3cret", "test-jwt-secret", time.Hour)

	cases := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := auth.Login(tc.user, tc.pass); !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) = %v, want ErrInvalidCredentials", tc.user, tc.pass, err)
		}
	}
}

func TestAdminLoginDisabledWithoutConfig(t *testing.T) {
	auth := services.NewAdminAuthService(quietLogger(t), "", "", "", "", time.Hour)

	if auth.Enabled() {
		t.Error("unconfigured console must report disabled")
	}
	if _, err := auth.Login("admin", "anything"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Login on disabled console = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateRejectsForgedToken(t *testing.T) {
	auth := services.NewAdminAuthService(
		quietLogger(t), "admin", "", "s3cret", "test-jwt-secret", time.Hour)
	other := services.NewAdminAuthService(
		quietLogger(t), "admin", "", "s3cret", "different-secret", time.Hour)

	token, err := other.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := auth.Validate(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}
