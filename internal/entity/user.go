package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User roles.
const (
	RoleUser   = "user"
	RoleDealer = "bayi"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is one of the supported roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleDealer, RoleAdmin:
		return true
	}
	return false
}

// User is an account. Self-registered users start unapproved and
// cannot log in until an admin approves them. Password holds a bcrypt
// hash, never the plaintext.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID         int64     `bun:",pk,autoincrement"`
	Name       string    `bun:"name,notnull"`
	Email      string    `bun:"email,notnull,unique"`
	Password   string    `bun:"password,notnull"`
	Phone      string    `bun:"phone"`
	Role       string    `bun:"role,notnull,default:'user'"`
	IsApproved bool      `bun:"is_approved,notnull,default:false"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero"`
}
