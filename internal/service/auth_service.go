package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"credential_service/internal/metrics"
	"credential_service/internal/model"
	"credential_service/internal/notify"
	"credential_service/internal/repository"
	"credential_service/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier accepts account emails for best-effort delivery
type Notifier interface {
	Dispatch(msg notify.Message)
}

// RegisterInput carries the fields of a registration request
type RegisterInput struct {
	Role      string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Gender    string
}

// LoginResult is returned by a successful login
type LoginResult struct {
	User         model.AccountView
	AccessToken  string
	RefreshToken string
}

// ForgotPasswordResult is the non-sensitive confirmation of a reset request
type ForgotPasswordResult struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// AuthService drives the account credential lifecycle: registration,
// OTP verification, login, OTP resend and password reset.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.AccountView, error)
	VerifyOTP(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, phone, password string) (*LoginResult, error)
	ResendOTP(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error)
	ResetPassword(ctx context.Context, code, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*model.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*model.AccountView, error)
}

// Option configures the auth service
type Option func(*authService)

// WithClock replaces time.Now, used for OTP stamping and expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *authService) { s.now = now }
}

type authService struct {
	accountRepo repository.AccountRepository
	jwtUtil     *utils.JWTUtil
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(accountRepo repository.AccountRepository, jwtUtil *utils.JWTUtil, notifier Notifier, log *zap.Logger, opts ...Option) AuthService {
	s := &authService{
		accountRepo: accountRepo,
		jwtUtil:     jwtUtil,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and emails it a verification code
func (s *authService) Register(ctx context.Context, in RegisterInput) (view *model.AccountView, err error) {
	defer func() { metrics.RecordOperation("register", err) }()

	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	existing, err := s.accountRepo.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	code, expiresAt, err := utils.GenerateOTP(s.now())
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	account := &model.Account{
		Role:         role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        phone,
		PasswordHash: &hashedPassword,
		Gender:       strings.TrimSpace(in.Gender),
		AvailableNow: true,
	}
	account.SetOTP(code, expiresAt)

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Lost the race against a concurrent registration
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %w", ErrAccountExists, err)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info("account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("role", account.Role))

	s.notifier.Dispatch(notify.Message{
		Kind:      notify.KindRegistration,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		OTP:       code,
	})

	v := account.View()
	return &v, nil
}

// VerifyOTP consumes the pending code of an unverified account and marks it verified
func (s *authService) VerifyOTP(ctx context.Context, email, code string) (err error) {
	defer func() { metrics.RecordOperation("verify_otp", err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: otp is required", ErrMissingCredential)
	}

	account, err := s.accountRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return ErrNotFound
	}
	if !account.HasOTP() {
		return ErrNoOTPSet
	}
	// A verified account only holds a code for a pending password reset
	if account.IsVerified {
		return ErrAlreadyVerified
	}
	if !s.now().Before(*account.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*account.OTP), []byte(code)) != 1 {
		return ErrInvalidOTP
	}

	account.IsVerified = true
	account.ClearOTP()

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.log.Info("account verified", zap.String("account_id", account.ID.String()))
	return nil
}

// Login authenticates a verified account by email or phone and issues a token pair
func (s *authService) Login(ctx context.Context, email, phone, password string) (result *LoginResult, err error) {
	defer func() { metrics.RecordOperation("login", err) }()

	email = normalizeEmail(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, fmt.Errorf("%w: provide your email or phone number", ErrMissingCredential)
	}

	account, err := s.accountRepo.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("error finding account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if !account.IsVerified {
		return nil, ErrNotVerified
	}
	if account.PasswordHash == nil || !utils.CheckPasswordHash(password, *account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtUtil.GenerateAccessToken(account.ID.String(), account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtUtil.GenerateRefreshToken(account.ID.String(), account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResult{
		User:         account.View(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ResendOTP replaces the pending code of an unverified account
func (s *authService) ResendOTP(ctx context.Context, email string) (err error) {
	defer func() { metrics.RecordOperation("resend_otp", err) }()

	account, err := s.accountRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return ErrNotFound
	}
	if account.IsVerified {
		return ErrAlreadyVerified
	}

	code, expiresAt, err := utils.GenerateOTP(s.now())
	if err != nil {
		return err
	}
	account.SetOTP(code, expiresAt)

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.notifier.Dispatch(notify.Message{
		Kind:      notify.KindOTPResend,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		OTP:       code,
	})
	return nil
}

// ForgotPassword stores a reset code on the account and emails it
func (s *authService) ForgotPassword(ctx context.Context, email string) (result *ForgotPasswordResult, err error) {
	defer func() { metrics.RecordOperation("forgot_password", err) }()

	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email not provided", ErrMissingCredential)
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}

	code, expiresAt, err := utils.GenerateOTP(s.now())
	if err != nil {
		return nil, err
	}
	account.SetOTP(code, expiresAt)

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.notifier.Dispatch(notify.Message{
		Kind:      notify.KindForgotPassword,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		OTP:       code,
	})

	s.log.Info("password reset requested", zap.String("account_id", account.ID.String()))

	return &ForgotPasswordResult{
		Email:    account.Email,
		FullName: account.FullName(),
	}, nil
}

// ResetPassword consumes a reset code and replaces the account's password
func (s *authService) ResetPassword(ctx context.Context, code, newPassword string) (err error) {
	defer func() { metrics.RecordOperation("reset_password", err) }()

	code = strings.TrimSpace(code)
	if code == "" || newPassword == "" {
		return fmt.Errorf("%w: password reset credential missing", ErrMissingCredential)
	}

	account, err := s.accountRepo.FindByOTP(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil || !account.HasOTP() {
		return ErrInvalidOTP
	}
	if !s.now().Before(*account.OTPExpiresAt) {
		return ErrOTPExpired
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = &hashedPassword
	account.ClearOTP()

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.log.Info("password reset", zap.String("account_id", account.ID.String()))
	return nil
}

// Refresh exchanges a valid refresh token for a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	defer func() { metrics.RecordOperation("refresh", err) }()

	if refreshToken == "" {
		return "", fmt.Errorf("%w: refresh token missing", ErrMissingCredential)
	}

	claims, err := s.jwtUtil.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	account, err := s.findByTokenSubject(ctx, claims.AccountID)
	if err != nil {
		return "", err
	}

	accessToken, err = s.jwtUtil.GenerateAccessToken(account.ID.String(), account.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Authenticate resolves the account behind an access token
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.Account, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.jwtUtil.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return s.findByTokenSubject(ctx, claims.AccountID)
}

// GetAccount returns the sanitized view of an account
func (s *authService) GetAccount(ctx context.Context, id uuid.UUID) (*model.AccountView, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	v := account.View()
	return &v, nil
}

func (s *authService) findByTokenSubject(ctx context.Context, subject string) (*model.Account, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}
