package repository

import (
	"context"
	"errors"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/pkg/redis"
)

// UserRepository handles user and session data in Redis
type UserRepository struct {
	redis *redis.Client
}

// NewUserRepository creates a new user repository
func NewUserRepository(redisClient *redis.Client) *UserRepository {
	return &UserRepository{
		redis: redisClient,
	}
}

// Create stores a new user. The username index is claimed first with SETNX
// so two concurrent registrations cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	usernameKey := redis.UserByUsernameKey(user.Username)
	claimed, err := r.redis.SetNX(ctx, usernameKey, user.ID, 0)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrAlreadyExists
	}

	if err := r.redis.SetJSON(ctx, redis.UserKey(user.ID), user, 0); err != nil {
		_ = r.redis.Del(ctx, usernameKey)
		return err
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.redis.GetJSON(ctx, redis.UserKey(userID), &user); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	userID, err := r.redis.Get(ctx, redis.UserByUsernameKey(username))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// Exists reports whether a username is registered
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	return r.redis.Exists(ctx, redis.UserByUsernameKey(username))
}

// Update overwrites a user record
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.redis.SetJSON(ctx, redis.UserKey(user.ID), user, 0)
}

// UpdateLastLogin updates user's last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.LastLoginAt = &at
	user.UpdatedAt = at

	return r.Update(ctx, user)
}

// CreateSession stores a session for ttl
func (r *UserRepository) CreateSession(ctx context.Context, session *model.Session, ttl time.Duration) error {
	sessionKey := redis.SessionKey(session.ID)
	if err := r.redis.SetJSON(ctx, sessionKey, session, ttl); err != nil {
		return err
	}

	// Add to user's sessions
	return r.redis.SAdd(ctx, redis.UserSessionsKey(session.UserID), session.ID)
}

// GetSession gets a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	if err := r.redis.GetJSON(ctx, redis.SessionKey(sessionID), &session); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := r.redis.Del(ctx, redis.SessionKey(sessionID)); err != nil {
		return err
	}

	_, err = r.redis.SRem(ctx, redis.UserSessionsKey(session.UserID), sessionID)
	return err
}

// DeleteSessionByRefreshToken removes the user's session holding
// refreshToken. Expired session ids are pruned from the user's set on the way.
func (r *UserRepository) DeleteSessionByRefreshToken(ctx context.Context, userID, refreshToken string) error {
	userSessionsKey := redis.UserSessionsKey(userID)
	sessionIDs, err := r.redis.SMembers(ctx, userSessionsKey)
	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		session, err := r.GetSession(ctx, sessionID)
		if errors.Is(err, ErrNotFound) {
			if _, err := r.redis.SRem(ctx, userSessionsKey, sessionID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if session.RefreshToken == refreshToken {
			return r.DeleteSession(ctx, sessionID)
		}
	}
	return nil
}

// DeleteUserSessions deletes all sessions for a user
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	userSessionsKey := redis.UserSessionsKey(userID)

	sessionIDs, err := r.redis.SMembers(ctx, userSessionsKey)
	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		if err := r.redis.Del(ctx, redis.SessionKey(sessionID)); err != nil {
			return err
		}
	}

	return r.redis.Del(ctx, userSessionsKey)
}

// BlacklistToken adds a token to blacklist
func (r *UserRepository) BlacklistToken(ctx context.Context, token string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}
	return r.redis.Set(ctx, redis.TokenBlacklistKey(token), "blacklisted", expiration)
}

// IsTokenBlacklisted checks if a token is blacklisted
func (r *UserRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.redis.Exists(ctx, redis.TokenBlacklistKey(token))
}
