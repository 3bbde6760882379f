package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/repository"
	"github.com/fircode/shelter/internal/utils"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NewUser is the input of Register.
type NewUser struct {
	Email      string
	Phone      string
	FirstName  string
	SecondName string
	Password   string
	IsAdmin    bool
}

// Accounts manages registration and the caller's own account.
type Accounts struct {
	users  *repository.UserRepo
	hasher *utils.Hasher
	log    *slog.Logger
}

func NewAccounts(users *repository.UserRepo, hasher *utils.Hasher, log *slog.Logger) *Accounts {
	return &Accounts{users: users, hasher: hasher, log: log}
}

// Register validates nu, hashes the password and stores the user.
func (a *Accounts) Register(ctx context.Context, nu NewUser) (model.User, error) {
	u, err := validateNewUser(nu)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash, err = a.hasher.Hash(nu.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account unless it exists.
func (a *Accounts) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := a.Register(ctx, NewUser{
		Email:      email,
		FirstName:  "Host",
		SecondName: "(Admin)",
		Password:   password,
		IsAdmin:    true,
	})
	if errors.Is(err, ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.log.Info("admin account created", "email", repository.NormalizeEmail(email))
	return true, nil
}

// ChangePassword replaces the password of email after checking the old one.
func (a *Accounts) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !a.hasher.Verify(oldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdatePasswordHash(ctx, u.Email, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes the account; its sessions and pending requests go with it.
func (a *Accounts) Delete(ctx context.Context, email string) error {
	err := a.users.Delete(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Leaderboard lists users by contribution, biggest first.
func (a *Accounts) Leaderboard(ctx context.Context) ([]model.User, error) {
	return a.users.ListByContribution(ctx)
}

func validateNewUser(nu NewUser) (model.User, error) {
	u := model.User{
		Email:      repository.NormalizeEmail(nu.Email),
		FirstName:  strings.TrimSpace(nu.FirstName),
		SecondName: strings.TrimSpace(nu.SecondName),
		IsAdmin:    nu.IsAdmin,
	}
	if err := validateEmail(u.Email); err != nil {
		return model.User{}, err
	}
	if phone := strings.TrimSpace(nu.Phone); phone != "" {
		if !phonePattern.MatchString(phone) {
			return model.User{}, invalid("phone", "must be 7 to 15 digits, optionally prefixed with +")
		}
		u.Phone = sql.NullString{String: phone, Valid: true}
	}
	if n := utf8.RuneCountInString(u.FirstName); n < 2 || n > 64 {
		return model.User{}, invalid("first_name", "must be 2 to 64 characters")
	}
	if n := utf8.RuneCountInString(u.SecondName); n < 2 || n > 64 {
		return model.User{}, invalid("second_name", "must be 2 to 64 characters")
	}
	if err := validatePassword(nu.Password); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func validateEmail(email string) error {
	if len(email) < 4 || len(email) > 254 {
		return invalid("email", "must be 4 to 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("email", "not a valid address")
	}
	return nil
}

func validatePassword(p string) error {
	if p == "" {
		return invalid("password", "must not be empty")
	}
	if len(p) > utils.MaxPasswordBytes {
		return invalid("password", "must be at most 72 bytes")
	}
	return nil
}
