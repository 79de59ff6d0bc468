package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Users interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

type Authenticator struct {
	users    Users
	sessions *SessionStore
}

func NewAuthenticator(users Users, sessions *SessionStore) *Authenticator {
	return &Authenticator{users: users, sessions: sessions}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login checks the password of an active user and opens a session. Every credential problem is the same
// apierr.ErrUnauthenticated so the caller can't tell which part was wrong.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apierr.ErrUnauthenticated
	}

	u, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, apierr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	if !u.IsActive() || u.PasswordHash == "" {
		logrus.WithField("user_id", u.ID).Info("login refused: account inactive or without password")
		return nil, apierr.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.ErrUnauthenticated
	}

	return a.sessions.Create(ctx, u)
}

func (a *Authenticator) Session(ctx context.Context, token string) (*Session, error) {
	return a.sessions.Get(ctx, token)
}

func (a *Authenticator) Logout(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	return a.sessions.Destroy(ctx, sess.Token)
}
