package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agromart/internal/models"
	"agromart/internal/repositories"
)

// OTPTTL is the verification window granted at registration.
const OTPTTL = 2 * time.Minute

// AuthService handles registration, OTP verification and login.
type AuthService struct {
	userRepo      repositories.UserRepository
	notifier      *Notifier
	log           *zap.SugaredLogger
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService. Session tokens are valid for
// seven days.
func NewAuthService(userRepo repositories.UserRepository, notifier *Notifier, log *zap.SugaredLogger, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		notifier:      notifier,
		log:           log,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 7 * 24 * time.Hour,
	}
}

// generateOTP returns a random 6-digit numeric code.
func generateOTP() string {
	const digits = "0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}

// checkPasswordStrength enforces at least 8 characters with at least one
// letter and one digit.
func checkPasswordStrength(password string) error {
	if len(password) < 8 {
		return Validationf("password must be at least 8 characters long")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return Validationf("password must include at least one letter and one number")
	}
	return nil
}

// Register creates an unverified user with a pending OTP and dispatches the
// OTP email in the background. The result does not depend on email delivery.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := checkPasswordStrength(req.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s: %w", email, ErrConflict)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	otp := generateOTP()
	expiresAt := time.Now().Add(OTPTTL)
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Password:     string(hashedPassword),
		Role:         role,
		OTP:          otp,
		OTPExpiresAt: &expiresAt,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("email or username taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	subject, html := OTPEmail(otp, OTPTTL)
	s.notifier.Enqueue(user.Email, subject, html)
	s.log.Infow("user registered, OTP dispatched", "email", user.Email)

	return user, nil
}

// VerifyOTP checks the pending code for an email. On success the OTP fields
// are cleared and a session token is issued.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.OTP == "" || user.OTP != code {
		return "", nil, fmt.Errorf("otp mismatch: %w", ErrInvalidCredentials)
	}
	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return "", nil, fmt.Errorf("otp window passed: %w", ErrOTPExpired)
	}

	user.OTP = ""
	user.OTPExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", nil, fmt.Errorf("failed to clear otp: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// PurgeUnverified deletes a registration whose OTP window has elapsed.
// Verified users and still-pending registrations are refused.
func (s *AuthService) PurgeUnverified(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if user.OTPExpiresAt == nil || time.Now().Before(*user.OTPExpiresAt) {
		return fmt.Errorf("user is either verified or OTP has not expired yet: %w", ErrPrecondition)
	}

	if err := s.userRepo.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to delete unverified user: %w", err)
	}
	s.log.Infow("unverified user purged", "email", email)
	return nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are reported with the same generic message; only the error kind
// (and thus the status code) differs.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, fmt.Errorf("login: %w", ErrNotFound)
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("login: %w", ErrInvalidCredentials)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// generateToken mints a signed session token embedding user id and role.
func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     now.Add(s.tokenDuration).Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a session token, returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
}
