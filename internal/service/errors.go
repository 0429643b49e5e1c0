package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrAccountExists      = errors.New("user already exists")
	ErrNotFound           = errors.New("user not found")
	ErrNotVerified        = errors.New("account not verified, please check your email for the OTP")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNoOTPSet           = errors.New("no OTP set")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrMissingCredential  = errors.New("credential missing")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("authorization header required")
	ErrProfileIncomplete  = errors.New("please complete your profile first")
)
