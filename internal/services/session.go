package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// SessionStore maps bearer tokens to identities. A user holds one session at a time: signing in
// again replaces the previous token and restarts the expiry.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// randomToken returns 32 random bytes, URL-safe encoded.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create stores a new session and returns its token.
func (s *SessionStore) Create(ctx context.Context, identity models.Identity) (string, error) {
	if err := s.InvalidateUser(ctx, identity.UserID); err != nil {
		return "", err
	}

	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+token, payload, s.ttl)
	pipe.Set(ctx, UserSessionKeyPrefix+identity.UserID, token, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve returns the identity behind a token. ok is false for unknown or expired tokens.
func (s *SessionStore) Resolve(ctx context.Context, token string) (identity models.Identity, ok bool, err error) {
	if token == "" {
		return models.Identity{}, false, nil
	}
	raw, err := s.rdb.Get(ctx, SessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(raw, &identity); err != nil || !identity.Authenticated() {
		return models.Identity{}, false, nil
	}
	return identity, true, nil
}

// Invalidate removes a session from Redis
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	identity, ok, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	keys := []string{SessionKeyPrefix + token}
	if ok {
		keys = append(keys, UserSessionKeyPrefix+identity.UserID)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// InvalidateUser drops whatever session the user currently has.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	userKey := UserSessionKeyPrefix + userID
	token, err := s.rdb.Get(ctx, userKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user session: %w", err)
	}
	return s.rdb.Del(ctx, SessionKeyPrefix+token, userKey).Err()
}
