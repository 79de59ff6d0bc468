package store

import (
	"context"
	"fmt"
	"strings"
)

func (s *store) GetUserByID(ctx context.Context, id int32) (*User, error) {
	u := &User{
		ID: id,
	}
	err := s.store.Select(ctx, u, UsersGetByID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

func (s *store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	err := s.store.Select(ctx, u, UsersGetByEmail)
	if err != nil {
		return nil, translate(err, "user "+u.Email)
	}
	return u, nil
}

// ActiveAdmins are cc'd on every lead reminder
func (s *store) ActiveAdmins(ctx context.Context) ([]User, error) {
	admins := []User{}
	err := s.store.SelectAll(ctx, &User{}, &admins, UsersGetActiveAdmins, fetchAll)
	return admins, translate(err, "active admins")
}
