package services

import (
	"errors"
	"time"

	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/security"
)

// ErrInvalidCredentials is returned for any login failure; the caller never
// learns whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminAuthService authenticates admin console users and mints their session
// tokens.
type AdminAuthService struct {
	logger       *logging.ChanneledLogger
	username     string
	passwordHash string
	password     string
	jwtSecret    string
	tokenTTL     time.Duration
}

// NewAdminAuthService creates the admin authenticator. passwordHash takes
// precedence over the plaintext password when both are configured.
func NewAdminAuthService(
	logger *logging.ChanneledLogger,
	username, passwordHash, password, jwtSecret string,
	tokenTTL time.Duration,
) *AdminAuthService {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AdminAuthService{
		logger:       logger,
		username:     username,
		passwordHash: passwordHash,
		password:     password,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

// Enabled reports whether the admin console is configured at all.
func (s *AdminAuthService) Enabled() bool {
	return s.username != "" && (s.passwordHash != "" || s.password != "") && s.jwtSecret != ""
}

// Login checks the credentials and returns a signed session token.
func (s *AdminAuthService) Login(username, password string) (string, error) {
	if !s.Enabled() {
		s.logger.Auth().Warn("Admin login attempted but admin console is not configured")
		return "", ErrInvalidCredentials
	}

	if username != s.username || !security.VerifyAdminPassword(s.passwordHash, s.password, password) {
		s.logger.Auth().Warn("Admin login failed", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := security.GenerateAdminToken(username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", err
	}

	s.logger.Auth().Info("Admin login succeeded", "username", username)
	return token, nil
}

// Validate checks a session token and returns the authenticated username.
func (s *AdminAuthService) Validate(token string) (string, error) {
	return security.ValidateAdminToken(token, s.jwtSecret)
}
