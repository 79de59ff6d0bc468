package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers map[string]*store.User

func (f fakeUsers) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	u, ok := f[strings.ToLower(email)]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	return u, nil
}

func testUsers(t *testing.T) fakeUsers {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	return fakeUsers{
		"ana@example.com":  {ID: 1, Name: "Ana", Email: "ana@example.com", Role: store.RoleEmployee, Status: store.UserActive, PasswordHash: string(hash)},
		"boss@example.com": {ID: 2, Name: "Boss", Email: "boss@example.com", Role: store.RoleAdmin, Status: store.UserActive, PasswordHash: string(hash)},
		"gone@example.com": {ID: 3, Name: "Gone", Email: "gone@example.com", Role: store.RoleEmployee, Status: store.UserInactive, PasswordHash: string(hash)},
	}
}

func newTestAuth(t *testing.T) (*Authenticator, *SessionStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	sessions := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "leadflow", time.Hour)
	return NewAuthenticator(testUsers(t), sessions), sessions, mr
}

func TestLoginLogout(t *testing.T) {
	a, _, mr := newTestAuth(t)
	ctx := context.Background()

	sess, err := a.Login(ctx, " Ana@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, int32(1), sess.UserID)
	assert.Equal(t, store.RoleEmployee, sess.Role)
	assert.True(t, mr.Exists("service:leadflow|session|"+sess.Token))

	got, err := a.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Email, got.Email)

	require.NoError(t, a.Logout(ctx, sess))
	_, err = a.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, apierr.ErrSessionExpired)
}

func TestLoginRejects(t *testing.T) {
	a, _, _ := newTestAuth(t)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "ana@example.com", "hunter2"},
		{"unknown user", "who@example.com", "hunter22"},
		{"inactive user", "gone@example.com", "hunter22"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, apierr.ErrUnauthenticated)
		})
	}
}

func TestSessionExpiry(t *testing.T) {
	_, sessions, mr := newTestAuth(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, &store.User{ID: 1, Email: "ana@example.com", Role: store.RoleEmployee})
	require.NoError(t, err)

	// the redis ttl ends the session
	mr.FastForward(2 * time.Hour)
	_, err = sessions.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, apierr.ErrSessionExpired)

	// so does the clock, should the key outlive it
	sess, err = sessions.Create(ctx, &store.User{ID: 1, Email: "ana@example.com"})
	require.NoError(t, err)
	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = sessions.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, apierr.ErrSessionExpired)

	_, err = sessions.Get(ctx, "not-a-token")
	assert.ErrorIs(t, err, apierr.ErrSessionExpired)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("hunter22")))
}
