package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/user"
)

type userStore struct {
	session
}

var _ user.Store = (*userStore)(nil)

func NewUserStore(db *DB) *userStore {
	return &userStore{session: session{db: db}}
}

func (s *userStore) Atomic(_ context.Context, fn func(tx user.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&userStore{session: tx})
	})
}

func (s *userStore) LockSequence(context.Context, string) error {
	return nil // transactions are serialised
}

func (s *userStore) IDsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	var ids []string
	err := s.view(func(t *tables) error {
		for id := range t.users {
			if strings.HasPrefix(id, prefix) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (s *userStore) CreateUser(_ context.Context, usr user.User) error {
	return s.update(func(t *tables) error {
		if _, ok := t.users[usr.ID]; ok {
			return core.NewDuplicateError("duplicate value violates %q", "staff_users_pkey")
		}
		for _, other := range t.users {
			if other.Email == usr.Email {
				return core.NewDuplicateError("duplicate value violates %q", "staff_users_email_key")
			}
		}
		t.users[usr.ID] = usr
		return nil
	})
}

func findUser(t *tables, idOrEmail string) (user.User, bool) {
	if usr, ok := t.users[idOrEmail]; ok {
		return usr, true
	}
	email := strings.ToLower(idOrEmail)
	for _, usr := range t.users {
		if usr.Email == email {
			return usr, true
		}
	}
	return user.User{}, false
}

func (s *userStore) GetUser(_ context.Context, idOrEmail string) (user.User, error) {
	var found user.User
	err := s.view(func(t *tables) error {
		var ok bool
		if found, ok = findUser(t, idOrEmail); !ok {
			return user.ErrNotFound
		}
		return nil
	})
	return found, err
}

func (s *userStore) ListUsers(_ context.Context, role string) ([]user.User, error) {
	users := make([]user.User, 0)
	err := s.view(func(t *tables) error {
		for _, usr := range t.users {
			if role == "" || usr.Role == role {
				users = append(users, usr)
			}
		}
		return nil
	})
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, err
}

func (s *userStore) modify(id string, fn func(usr *user.User)) error {
	return s.update(func(t *tables) error {
		usr, ok := t.users[id]
		if !ok {
			return user.ErrNotFound
		}
		fn(&usr)
		t.users[id] = usr
		return nil
	})
}

func (s *userStore) SetPassword(_ context.Context, id string, hash []byte, at time.Time) error {
	return s.modify(id, func(usr *user.User) {
		usr.PasswordHash = hash
		usr.UpdatedAt = at
	})
}

func (s *userStore) SetLastLogin(_ context.Context, id string, at time.Time) error {
	return s.modify(id, func(usr *user.User) {
		usr.LastLogin = null.TimeFrom(at)
	})
}

func (s *userStore) UpdateUser(_ context.Context, usr user.User) error {
	return s.update(func(t *tables) error {
		if _, ok := t.users[usr.ID]; !ok {
			return user.ErrNotFound
		}
		for _, other := range t.users {
			if other.ID != usr.ID && other.Email == usr.Email {
				return core.NewDuplicateError("duplicate value violates %q", "staff_users_email_key")
			}
		}
		t.users[usr.ID] = usr
		return nil
	})
}

func (s *userStore) DeleteUsers(_ context.Context, role string, ids ...string) (int, error) {
	var n int
	err := s.update(func(t *tables) error {
		for _, id := range ids {
			if usr, ok := t.users[id]; ok && (role == "" || usr.Role == role) {
				delete(t.users, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
