// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	"github.com/propmatch/PropMatch/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles account creation, authentication, and the admin bootstrap
type AuthFlow interface {
	Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error)
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshSession(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
	// Logout revokes the presented access token and closes every active
	// session of the profile.
	Logout(ctx context.Context, profileID uint, accessToken string, metadata *ClientMetadata) (*dto.LogoutResponse, error)
	// EnsureAdminExists provisions the configured admin account on startup.
	// It is idempotent: an existing account with the same email is left as is.
	EnsureAdminExists(ctx context.Context, email, password, name string) error
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	profileRepo   repository.ProfileRepository
	sessionRepo   repository.ProfileSessionRepository
	auditRepo     repository.AuditLogRepository
	tokenService  services.TokenService
	webhookClient services.WebhookClient
	db            *gorm.DB
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	profileRepo repository.ProfileRepository,
	sessionRepo repository.ProfileSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	webhookClient services.WebhookClient,
	db *gorm.DB,
) AuthFlow {
	return &AuthFlowImpl{
		profileRepo:   profileRepo,
		sessionRepo:   sessionRepo,
		auditRepo:     auditRepo,
		tokenService:  tokenService,
		webhookClient: webhookClient,
		db:            db,
	}
}

// Signup registers a new profile and opens a session for it
func (af *AuthFlowImpl) Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error) {
	var profile *models.Profile

	resp, err := af.withSignupTransaction(ctx, func(ctx context.Context) (*dto.SignupResponse, error) {
		existing, err := af.profileRepo.ByEmail(ctx, request.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailAlreadyExists
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		profile = &models.Profile{
			UUID:         uuid.New(),
			Name:         strings.TrimSpace(request.Name),
			Email:        strings.ToLower(strings.TrimSpace(request.Email)),
			Phone:        request.Phone,
			PasswordHash: string(hashedPassword),
			IsAdmin:      utils.ToPtr(false),
			IsActive:     utils.ToPtr(true),
		}

		if err := af.profileRepo.Save(ctx, profile); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrEmailAlreadyExists
			}
			return nil, err
		}

		session, err := af.createSession(ctx, profile, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.SignupResponse{
			Profile: ToAuthProfileDTO(*profile),
			Session: ToProfileSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Signup failed: %s", err.Error())
		_ = af.logAuthAttempt(ctx, profile, models.AuditActionSignupCompleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	msg := fmt.Sprintf("User signed up successfully: %d", profile.ID)
	_ = af.logAuthAttempt(ctx, profile, models.AuditActionSignupCompleted, msg, true, nil, metadata)

	// Signup event is best-effort: the account exists regardless
	if err := af.webhookClient.SendSignupEvent(ctx, services.SignupEventPayload{
		User: services.SignupUser{
			Name:  profile.Name,
			Email: profile.Email,
			Phone: profile.Phone,
		},
	}); err != nil {
		log.Printf("signup webhook event failed for user %d: %v", profile.ID, err)
	}

	return resp, nil
}

// Login authenticates a user with email and password
func (af *AuthFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	var profile *models.Profile

	resp, err := af.withLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		var err error
		profile, err = af.profileRepo.ByEmail(ctx, request.Email)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, ErrProfileNotFound
		}

		if !utils.IsTrue(profile.IsActive) {
			return nil, ErrAccountInactive
		}

		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		if err := af.profileRepo.UpdateLastLogin(ctx, profile.ID, utils.UTCNow()); err != nil {
			return nil, err
		}

		session, err := af.createSession(ctx, profile, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			Profile: ToAuthProfileDTO(*profile),
			Session: ToProfileSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = af.logAuthAttempt(ctx, profile, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", profile.ID)
	_ = af.logAuthAttempt(ctx, profile, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return resp, nil
}

// RefreshSession exchanges a valid refresh token for a new session
func (af *AuthFlowImpl) RefreshSession(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	claims, err := af.tokenService.ValidateToken(request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Invalid refresh token", err)
	}
	if claims.TokenType != "refresh" {
		return nil, NewBusinessError("REFRESH_FAILED", "Token is not a refresh token", nil)
	}

	resp, err := af.withRefreshTransaction(ctx, func(ctx context.Context) (*dto.RefreshTokenResponse, error) {
		profile, err := af.profileRepo.ByID(ctx, claims.ProfileID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, ErrProfileNotFound
		}
		if !utils.IsTrue(profile.IsActive) {
			return nil, ErrAccountInactive
		}

		existing, err := af.sessionRepo.ByRefreshToken(ctx, request.RefreshToken)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := af.sessionRepo.ExpireSession(ctx, existing.ID); err != nil {
				return nil, err
			}
		}

		session, err := af.createSession(ctx, profile, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.RefreshTokenResponse{
			Session: ToProfileSessionDTO(*session),
		}, nil
	})

	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Session refresh failed", err)
	}

	return resp, nil
}

// Logout closes every active session of the profile and revokes the access
// token that carried the request
func (af *AuthFlowImpl) Logout(ctx context.Context, profileID uint, accessToken string, metadata *ClientMetadata) (*dto.LogoutResponse, error) {
	profile, err := af.profileRepo.ByID(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if profile == nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", ErrProfileNotFound)
	}

	sessions, err := af.sessionRepo.ListActiveSessionsByProfile(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	if err := af.sessionRepo.ExpireAllProfileSessions(ctx, profileID); err != nil {
		errMsg := fmt.Sprintf("Logout failed: %s", err.Error())
		_ = af.logAuthAttempt(ctx, profile, models.AuditActionLogoutCompleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	// Revocation is best-effort: the sessions are already closed and the
	// token dies on its own at expiry
	if accessToken != "" {
		if err := af.tokenService.RevokeToken(accessToken); err != nil {
			log.Printf("failed to revoke access token for user %d: %v", profileID, err)
		}
	}

	msg := fmt.Sprintf("User logged out, %d session(s) closed: %d", len(sessions), profile.ID)
	_ = af.logAuthAttempt(ctx, profile, models.AuditActionLogoutCompleted, msg, true, nil, metadata)

	return &dto.LogoutResponse{SessionsClosed: len(sessions)}, nil
}

// EnsureAdminExists creates the admin account from configured credentials.
// Safe to run on every startup: the unique email index makes a concurrent
// bootstrap race resolve to a single account.
func (af *AuthFlowImpl) EnsureAdminExists(ctx context.Context, email, password, name string) error {
	if email == "" {
		return nil
	}

	existing, err := af.profileRepo.ByEmail(ctx, email)
	if err != nil {
		return NewBusinessError("ADMIN_BOOTSTRAP_FAILED", "Failed to check for admin account", err)
	}
	if existing != nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return NewBusinessError("ADMIN_BOOTSTRAP_FAILED", "Failed to hash admin password", err)
	}

	if name == "" {
		name = "Admin"
	}

	admin := &models.Profile{
		UUID:         uuid.New(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		IsAdmin:      utils.ToPtr(true),
		IsActive:     utils.ToPtr(true),
	}

	if err := af.profileRepo.Save(ctx, admin); err != nil {
		// Another instance won the race; the account exists either way
		if isUniqueViolation(err) {
			return nil
		}
		return NewBusinessError("ADMIN_BOOTSTRAP_FAILED", "Failed to create admin account", err)
	}

	msg := fmt.Sprintf("Admin account provisioned: %s", admin.Email)
	_ = af.logAuthAttempt(ctx, admin, models.AuditActionAdminBootstrapped, msg, true, nil, nil)

	log.Printf("admin account provisioned for %s", admin.Email)
	return nil
}

// Private helper methods

func (af *AuthFlowImpl) createSession(ctx context.Context, profile *models.Profile, metadata *ClientMetadata) (*models.ProfileSession, error) {
	accessToken, refreshToken, err := af.tokenService.GenerateTokens(profile.ID, utils.IsTrue(profile.IsAdmin))
	if err != nil {
		return nil, err
	}

	expiresAt := utils.UTCNowAdd(utils.SessionTimeout)

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	session := &models.ProfileSession{
		ProfileID:     profile.ID,
		CorrelationID: uuid.New(),
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     expiresAt,
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = af.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (af *AuthFlowImpl) logAuthAttempt(ctx context.Context, profile *models.Profile, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var profileID *uint
	if profile != nil && profile.ID != 0 {
		profileID = &profile.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ProfileID:    profileID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return af.auditRepo.Save(ctx, audit)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
		strings.Contains(err.Error(), "SQLSTATE 23505")
}

func (af *AuthFlowImpl) withSignupTransaction(ctx context.Context, fn func(context.Context) (*dto.SignupResponse, error)) (*dto.SignupResponse, error) {
	var result *dto.SignupResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (af *AuthFlowImpl) withLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (af *AuthFlowImpl) withRefreshTransaction(ctx context.Context, fn func(context.Context) (*dto.RefreshTokenResponse, error)) (*dto.RefreshTokenResponse, error) {
	var result *dto.RefreshTokenResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
