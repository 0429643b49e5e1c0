package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account represents a registered identity in the system
type Account struct {
	ID                uuid.UUID  `json:"id"`
	Role              string     `json:"role"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	PasswordHash      *string    `json:"-"` // Never leaves the service layer
	Gender            string     `json:"gender,omitempty"`
	OTP               *string    `json:"-"`
	OTPExpiresAt      *time.Time `json:"-"`
	IsVerified        bool       `json:"verified"`
	AvailableNow      bool       `json:"available"`
	IsProfileComplete bool       `json:"isProfileComplete"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// FullName joins first and last name
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// HasOTP reports whether both OTP fields are set
func (a *Account) HasOTP() bool {
	return a.OTP != nil && *a.OTP != "" && a.OTPExpiresAt != nil
}

// SetOTP stamps a code and its expiry together
func (a *Account) SetOTP(code string, expiresAt time.Time) {
	a.OTP = &code
	a.OTPExpiresAt = &expiresAt
}

// ClearOTP removes a consumed code together with its expiry
func (a *Account) ClearOTP() {
	a.OTP = nil
	a.OTPExpiresAt = nil
}

// AccountView is the sanitized projection returned to clients
type AccountView struct {
	ID                uuid.UUID `json:"id"`
	Role              string    `json:"role"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Gender            string    `json:"gender,omitempty"`
	IsVerified        bool      `json:"verified"`
	AvailableNow      bool      `json:"available"`
	IsProfileComplete bool      `json:"isProfileComplete"`
	CreatedAt         time.Time `json:"createdAt"`
}

// View builds the client-facing projection of an account
func (a *Account) View() AccountView {
	return AccountView{
		ID:                a.ID,
		Role:              a.Role,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Email:             a.Email,
		Phone:             a.Phone,
		Gender:            a.Gender,
		IsVerified:        a.IsVerified,
		AvailableNow:      a.AvailableNow,
		IsProfileComplete: a.IsProfileComplete,
		CreatedAt:         a.CreatedAt,
	}
}
