package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/jwt"
	"aegis/backend/pkg/logger"

	"github.com/google/uuid"
)

// AuthService handles authentication logic
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.JWTManager
	clock      Clock
	log        *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, jwtManager *jwt.JWTManager, clock Clock, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		clock:      clock,
		log:        log,
	}
}

func invalidCredentials() *util.AppError {
	return util.NewAppError(http.StatusUnauthorized, util.ErrCodeInvalidCredentials, "Invalid username or password")
}

func invalidToken(message string) *util.AppError {
	return util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, message)
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.SafeUser, error) {
	if !crypto.ValidatePasswordStrength(req.Password) {
		return nil, util.ErrValidation("Password must be 8-100 characters")
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to hash password")
	}

	now := s.clock.Now()
	user := &model.User{
		ID:            uuid.New().String(),
		Username:      req.Username,
		DiscordUserID: req.DiscordUserID,
		PasswordHash:  passwordHash,
		Role:          model.RoleUser,
		Status:        model.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, util.ErrConflict("Username already exists")
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to create user", err)
	}

	s.log.Infof("User %s registered", user.Username)
	return user.ToSafeUser(), nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest, userAgent, ip string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to load user", err)
	}

	if !user.IsActive() {
		return nil, util.ErrForbidden("User account is inactive")
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate access token")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate refresh token")
	}

	now := s.clock.Now()
	refreshTTL := s.jwtManager.RefreshTokenDuration()
	session := &model.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(refreshTTL),
		CreatedAt:    now,
		UserAgent:    userAgent,
		IP:           ip,
	}

	if err := s.userRepo.CreateSession(ctx, session, refreshTTL); err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to create session", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Error("Failed to update last login", err)
	} else {
		user.LastLoginAt = &now
	}

	return &model.AuthResponse{
		User:         user.ToSafeUser(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenDuration().Seconds()),
	}, nil
}

// RefreshToken issues a new access token for a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateTokenOfType(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, invalidToken("Invalid refresh token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to check token status")
	}
	if blacklisted {
		return nil, invalidToken("Token has been revoked")
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate access token")
	}

	return &model.AuthResponse{
		User:         user.ToSafeUser(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenDuration().Seconds()),
	}, nil
}

// Logout blacklists both tokens until they would have expired and drops the
// session created at login
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if claims, err := s.jwtManager.ValidateToken(accessToken); err == nil {
		if err := s.userRepo.BlacklistToken(ctx, accessToken, time.Until(claims.ExpiresAt.Time)); err != nil {
			return util.ErrInternalServer("Failed to blacklist access token")
		}
	}

	refreshClaims, err := s.jwtManager.ValidateTokenOfType(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		// already unusable
		return nil
	}
	if err := s.userRepo.BlacklistToken(ctx, refreshToken, time.Until(refreshClaims.ExpiresAt.Time)); err != nil {
		return util.ErrInternalServer("Failed to blacklist refresh token")
	}
	if err := s.userRepo.DeleteSessionByRefreshToken(ctx, refreshClaims.UserID, refreshToken); err != nil {
		s.log.Error("Failed to delete session", err)
	}
	return nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.SafeUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrNotFound("User not found")
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to load user", err)
	}
	return user.ToSafeUser(), nil
}

// ValidateToken validates an access token and returns the active user it
// belongs to
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtManager.ValidateTokenOfType(token, jwt.TokenTypeAccess)
	if err != nil {
		return nil, invalidToken("Invalid token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to check token status")
	}
	if blacklisted {
		return nil, invalidToken("Token has been revoked")
	}

	return s.activeUser(ctx, claims.UserID)
}

func (s *AuthService) activeUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidToken("User no longer exists")
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to load user", err)
	}
	if !user.IsActive() {
		return nil, util.ErrForbidden("User account is inactive")
	}
	return user, nil
}
