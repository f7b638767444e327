package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is a user's role on the platform
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User is a registered student or teacher
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"` // email
	DisplayName  string    `json:"display_name" bson:"display_name"`
	Role         Role      `json:"role" bson:"role"`
	PhotoURL     string    `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// UserClaims are JWT claims for an authenticated user
type UserClaims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// SignupRequest is the request body for user signup
type SignupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful signup or login
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
