package model

import (
	"strings"
	"time"

	"telegram-chat-bridge/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// User is a registered web account. The Telegram side never sees this entity
// directly; it is reached only through the user's pairing token.
type User struct {
	ID           string
	Username     string
	FirstName    string
	PasswordHash string
	RegisteredAt time.Time
}

// NewUser validates registration input and hashes the password with bcrypt.
func NewUser(id, username, password, firstName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(password) < minPasswordLen {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           id,
		Username:     username,
		FirstName:    strings.TrimSpace(firstName),
		PasswordHash: string(hash),
		RegisteredAt: time.Now(),
	}, nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
