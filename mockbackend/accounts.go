package mockbackend

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/users"
	"golang.org/x/crypto/bcrypt"
)

// Role names the backend hands out
const (
	RoleAdmin        = "ADMIN"
	RoleDoctor       = "DOCTOR"
	RoleReceptionist = "RECEPTIONIST"
	RoleUser         = "USER"
)

// Account is a stored user: the public profile plus the password hash.
type Account struct {
	Profile      *users.Profile
	PasswordHash string
}

// Accounts is an in-memory account repository keyed by lower-cased email.
type Accounts struct {
	lock     sync.RWMutex
	accounts map[string]*Account
	nowTime  func() time.Time
}

func NewAccounts(nowTime func() time.Time) *Accounts {
	return &Accounts{accounts: make(map[string]*Account), nowTime: nowTime}
}

// Create adds an account. The password must pass ValidatePasswordStrength.
func (a *Accounts) Create(email, password, firstName, lastName, phone string, roles ...string) (*users.Profile, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	key := strings.ToLower(strings.TrimSpace(email))
	a.lock.Lock()
	defer a.lock.Unlock()
	if _, exists := a.accounts[key]; exists {
		return nil, fmt.Errorf("email %s: %w", email, errAccountExists)
	}

	now := a.nowTime()
	profile := &users.Profile{
		ID:            uuid.NewString(),
		Email:         key,
		FirstName:     firstName,
		LastName:      lastName,
		PhoneNumber:   phone,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     &now,
	}
	for _, role := range roles {
		profile.Roles = append(profile.Roles, users.Role{ID: strings.ToLower(role), Name: role})
	}
	a.accounts[key] = &Account{Profile: profile, PasswordHash: hash}
	return profile.Clone(), nil
}

// Authenticate returns the profile when password matches the account's hash.
func (a *Accounts) Authenticate(email, password string) (*users.Profile, error) {
	account, ok := a.lookup(email)
	if !ok || !CheckPasswordHash(password, account.PasswordHash) {
		return nil, hmserrors.ErrInvalidCredentials
	}
	return account.Profile.Clone(), nil
}

// Profile returns the profile for the account with the given ID.
func (a *Accounts) Profile(id string) (*users.Profile, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	for _, account := range a.accounts {
		if account.Profile.ID == id {
			return account.Profile.Clone(), nil
		}
	}
	return nil, hmserrors.ErrNotFound
}

func (a *Accounts) lookup(email string) (*Account, bool) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	account, ok := a.accounts[strings.ToLower(strings.TrimSpace(email))]
	return account, ok
}

// ValidatePasswordStrength requires at least 8 characters with an upper-case letter,
// a lower-case letter and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
