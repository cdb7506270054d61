package models

import "time"

// Roles a user can hold. Admins manage the catalog and order statuses.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered (or still unverified) account.
// OTP and OTPExpiresAt are set together at registration and cleared
// together once the email is verified.
type User struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Username     string     `json:"username" bson:"username"`
	Email        string     `json:"email" bson:"email"`
	Phone        string     `json:"phone" bson:"phone"`
	Password     string     `json:"-" bson:"password"` // bcrypt hash, never serialized
	Role         string     `json:"role" bson:"role"`
	OTP          string     `json:"-" bson:"otp,omitempty"`
	OTPExpiresAt *time.Time `json:"-" bson:"otp_expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// RegisterRequest is the payload for new-account registration.
// Password strength beyond the min length is checked in the service.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=15"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// VerifyOTPRequest carries the email/code pair for account activation.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// LoginRequest carries login credentials. Email is the login key.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
