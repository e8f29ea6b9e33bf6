// Package auth signs the user in and out and keeps the session store in sync.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Gateway is the subset of the remote gateway used for accounts.
type Gateway interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	GetProfileWithToken(ctx context.Context, token string) (model.User, error)
	UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error)
	ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error
}

// Service runs the login, register and profile flows.
type Service struct {
	gw      Gateway
	session *store.SessionStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates an auth service writing into session.
func NewService(gw Gateway, session *store.SessionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gw: gw, session: session, logger: logger, now: time.Now}
}

// LandingPath is where a user with role lands after signing in.
func LandingPath(role string) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleEmployee:
		return "/employee"
	case model.RoleCustomer:
		return "/customer"
	}
	return "/profile"
}

func validateCredentials(email, password string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return apperror.NewValidation("email", "Please enter a valid email address")
	}
	if len(password) < minPasswordLength {
		return apperror.NewValidation("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Login signs in and returns the landing path for the user's role.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	resp, err := s.gw.Login(ctx, model.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return s.establish(ctx, resp)
}

// Register creates an account, signs in and returns the landing path.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return "", apperror.NewValidation("firstName", "First name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return "", apperror.NewValidation("lastName", "Last name is required")
	}

	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	req.Email = strings.TrimSpace(req.Email)
	resp, err := s.gw.Register(ctx, req)
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return s.establish(ctx, resp)
}

func (s *Service) establish(ctx context.Context, resp model.AuthResponse) (string, error) {
	if resp.AccessToken == "" {
		return "", &apperror.ServerError{Op: "login", StatusCode: http.StatusOK, Message: "The server did not return an access token"}
	}

	user, err := s.gw.GetProfileWithToken(ctx, resp.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile: %w", err)
	}

	s.session.Login(resp.AccessToken, user)
	s.logger.Info("signed in", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return LandingPath(user.Role), nil
}

// Logout clears the session.
func (s *Service) Logout() {
	s.session.Logout()
}

// RestoreSession loads the persisted session and drops it when the token has expired.
func (s *Service) RestoreSession() (bool, error) {
	ok, err := s.session.Restore()
	if err != nil || !ok {
		return false, err
	}

	exp, hasExp, err := TokenExpiry(s.session.Token())
	if err != nil {
		// Opaque tokens are kept; the server decides.
		return true, nil
	}
	if hasExp && !s.now().Before(exp) {
		s.logger.Info("persisted session expired", zap.Time("expired_at", exp))
		s.session.Logout()
		return false, nil
	}
	return true, nil
}

// UpdateProfile sends patch and merges the acknowledged profile into the session.
func (s *Service) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error) {
	if patch.Email != nil && !emailPattern.MatchString(*patch.Email) {
		return model.User{}, apperror.NewValidation("email", "Please enter a valid email address")
	}
	u, err := s.gw.UpdateProfile(ctx, patch)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	s.session.SetUser(u)
	return u, nil
}

// ChangePassword changes the account password.
func (s *Service) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" {
		return apperror.NewValidation("currentPassword", "Current password is required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return apperror.NewValidation("newPassword", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if err := s.gw.ChangePassword(ctx, req); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}
