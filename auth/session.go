/*
Package auth holds the caller's identity. A Session is created by Login, passed explicitly into every service call
and destroyed by Logout; nothing about the caller lives in package state.
*/
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

const DefaultSessionTTL = 12 * time.Hour

type Session struct {
	Token     string         `json:"token"`
	UserID    int32          `json:"user_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Role      store.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == store.RoleAdmin
}

// SessionStore keeps sessions in redis under service:<svc>|session|<token>
type SessionStore struct {
	redis       *redis.Client
	serviceName string
	ttl         time.Duration
	now         func() time.Time
}

func NewSessionStore(conn *redis.Client, serviceName string, ttl time.Duration) *SessionStore {
	if serviceName == "" {
		serviceName = "leadflow"
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		redis:       conn,
		serviceName: serviceName,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (s *SessionStore) key(token string) string {
	return fmt.Sprintf("service:%s|session|%s", s.serviceName, token)
}

func (s *SessionStore) Create(ctx context.Context, u *store.User) (*Session, error) {
	now := s.now()
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, s.key(sess.Token), b, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get returns apierr.ErrSessionExpired for an unknown, expired or malformed token
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, apierr.ErrSessionExpired
	}

	str, err := s.redis.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apierr.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := &Session{}
	if err := json.Unmarshal([]byte(str), sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, apierr.ErrSessionExpired
	}
	return sess, nil
}

// Destroy is logout; destroying an unknown token is not an error
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	return s.redis.Del(ctx, s.key(token)).Err()
}
