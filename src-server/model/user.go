package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string `bun:"id,pk,notnull,unique"`
	Email        string `bun:"email,notnull,unique"`
	PasswordHash string `bun:"password_hash,notnull" json:"-"`
	FullName     string `bun:"full_name"`
	CreatedAt    int64  `bun:"created_at,notnull"`
	LastLogin    int64  `bun:"last_login"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("(*User).SetPassword: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) Insert(ctx context.Context, db bun.IDB) error {
	if u.ID == "" {
		return fmt.Errorf("(*User).Insert: user id is empty")
	}
	if u.Email == "" {
		return fmt.Errorf("(*User).Insert: email is empty")
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UTC().UnixNano()
	}
	if _, err := db.NewInsert().Model(u).Exec(ctx); err != nil {
		// both sqlite drivers word it this way
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return fmt.Errorf("(*User).Insert: %w", ErrEmailTaken)
		}
		return fmt.Errorf("(*User).Insert: %w", err)
	}
	return nil
}

func (u *User) TouchLastLogin(ctx context.Context, db bun.IDB) error {
	u.LastLogin = time.Now().UTC().UnixNano()
	if _, err := db.NewUpdate().
		Model(u).
		Column("last_login").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("(*User).TouchLastLogin: %w", err)
	}
	return nil
}

func EmailTaken(ctx context.Context, db bun.IDB, email string) (bool, error) {
	exists, err := db.NewSelect().
		Model((*User)(nil)).
		Where("email = ?", NormalizeEmail(email)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("EmailTaken: %w", err)
	}
	return exists, nil
}

func UserByEmail(ctx context.Context, db bun.IDB, email string) (*User, error) {
	u := new(User)
	if err := db.NewSelect().
		Model(u).
		Where("email = ?", NormalizeEmail(email)).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("UserByEmail: %w", err)
	}
	return u, nil
}

func UserByID(ctx context.Context, db bun.IDB, id string) (*User, error) {
	u := new(User)
	if err := db.NewSelect().
		Model(u).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("UserByID: %w", err)
	}
	return u, nil
}
