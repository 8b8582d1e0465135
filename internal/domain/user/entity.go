package user

import "time"

// Role はユーザーの役割を表す
type Role string

const (
	RoleUser        Role = "user"
	RoleFacilitator Role = "facilitator"
	RoleAdmin       Role = "admin"
)

// User はユーザーエンティティを表す
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser は新しいユーザーを作成する
func NewUser(email, passwordHash, name string, role Role) *User {
	now := time.Now()
	if role == "" {
		role = RoleUser
	}
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	switch u.Role {
	case RoleUser, RoleFacilitator, RoleAdmin:
	default:
		return ErrInvalidRole
	}
	return nil
}
