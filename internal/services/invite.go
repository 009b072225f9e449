package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

// InviteKeyPrefix is the Redis key prefix for clinic invite tokens
const InviteKeyPrefix = "clinic_invite:"

// InviteStore issues one-time clinic invite tokens. The token maps to the clinic application it
// was issued for and expires on its own.
type InviteStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	baseURL string
}

func NewInviteStore(rdb *redis.Client, ttl time.Duration, baseURL string) *InviteStore {
	return &InviteStore{rdb: rdb, ttl: ttl, baseURL: baseURL}
}

// Issue creates a token for the application. It returns the token, the link the clinic receives
// and the moment the token stops working.
func (s *InviteStore) Issue(ctx context.Context, applicationID string, now time.Time) (token, link string, expiresAt time.Time, err error) {
	token, err = randomToken()
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate invite token: %w", err)
	}
	if err := s.rdb.Set(ctx, InviteKeyPrefix+token, applicationID, s.ttl).Err(); err != nil {
		return "", "", time.Time{}, fmt.Errorf("store invite: %w", err)
	}
	return token, s.Link(token), now.Add(s.ttl), nil
}

// Link renders the invite link for a token.
func (s *InviteStore) Link(token string) string {
	return s.baseURL + "?token=" + url.QueryEscape(token)
}

// Lookup returns the application id a live token belongs to.
func (s *InviteStore) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.InvalidOrExpiredToken()
	}
	id, err := s.rdb.Get(ctx, InviteKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.InvalidOrExpiredToken()
	}
	if err != nil {
		return "", fmt.Errorf("load invite: %w", err)
	}
	return id, nil
}

// Consume deletes the token. It reports false when the token was already gone, which means
// another redemption won.
func (s *InviteStore) Consume(ctx context.Context, token string) (bool, error) {
	_, err := s.rdb.GetDel(ctx, InviteKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume invite: %w", err)
	}
	return true, nil
}
