package api

import (
	"errors"
	"sync"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/pkg/auth"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords
// alike; login never reveals which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

type account struct {
	user         auction.User
	passwordHash string
}

// UserDirectory is the registered-user table backing login. Users are
// provisioned at startup; there is no self-registration.
type UserDirectory struct {
	mu     sync.RWMutex
	byName map[string]account
}

// NewUserDirectory creates an empty directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{byName: make(map[string]account)}
}

// Register adds a user with an Argon2id-hashed password.
func (d *UserDirectory) Register(user auction.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.byName[user.Name] = account{user: user, passwordHash: hash}
	return nil
}

// Authenticate verifies a name/password pair and returns the user identity.
func (d *UserDirectory) Authenticate(name, password string) (auction.User, error) {
	d.mu.RLock()
	acc, ok := d.byName[name]
	d.mu.RUnlock()
	if !ok {
		return auction.User{}, ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(acc.passwordHash, password)
	if err != nil || !match {
		return auction.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}
