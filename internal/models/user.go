package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `json:"id" bun:"id,pk,autoincrement"`
	Name         string    `json:"name" bun:"name"`
	Phone        string    `json:"phone" bun:"phone"`
	PasswordHash string    `json:"-" bun:"password_hash"`
	Role         Role      `json:"role" bun:"role"`
	CreatedAt    time.Time `json:"created_at" bun:"created_at,nullzero"`
}

type UserOut struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

func (u *User) Out() *UserOut {
	return &UserOut{ID: u.ID, Name: u.Name, Phone: u.Phone, Role: u.Role}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
