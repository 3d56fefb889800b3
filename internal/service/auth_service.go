package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"auth-api/internal/domain"
	"auth-api/internal/email"
	"auth-api/internal/repository"
)

// AuthService coordina registro, login, verificacion de cuenta y reseteo de
// contrasena sobre el store de usuarios.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	otp         *OTPEngine
	otpLimiter  OTPRateLimiter
}

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotRegistered      = errors.New("user not registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

func NewAuthService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, otpLimiter OTPRateLimiter) *AuthService {
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(10*time.Minute, 3)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		otp:         NewOTPEngine(users),
		otpLimiter:  otpLimiter,
	}
}

// Register crea la cuenta con la contrasena hasheada y sin verificar. El
// correo de bienvenida es best-effort: si falla se loguea y el registro
// igual queda hecho.
func (s *AuthService) Register(ctx context.Context, name, emailAddr, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if name == "" || emailAddr == "" || password == "" {
		return domain.User{}, ErrMissingFields
	}

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	if s.emailSender != nil {
		if err := s.emailSender.SendWelcome(ctx, emailAddr); err != nil && s.logger != nil {
			s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}
	return user, nil
}

// Login valida email y contrasena.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotRegistered
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SendVerifyOTP emite un codigo de verificacion de cuenta y lo envia por
// correo. Requiere que la cuenta exista y no este verificada.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(user.Email) {
		return ErrRateLimited
	}

	code, expiresAt, err := s.otp.Issue(ctx, user.ID, PurposeVerify)
	if err != nil {
		return err
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerifyOTP(ctx, user.Email, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verify otp failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// VerifyEmail consume el codigo de verificacion y marca la cuenta como
// verificada en la misma escritura.
func (s *AuthService) VerifyEmail(ctx context.Context, userID, code string) error {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return ErrMissingFields
	}
	if !isValidOTPCode(code) {
		return ErrOTPInvalid
	}

	return s.otp.Validate(ctx, userID, PurposeVerify, code, func(u *domain.User) {
		u.IsVerified = true
	})
}

// SendResetOTP emite un codigo de reseteo de contrasena para el email dado.
func (s *AuthService) SendResetOTP(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(user.Email) {
		return ErrRateLimited
	}

	code, expiresAt, err := s.otp.Issue(ctx, user.ID, PurposeReset)
	if err != nil {
		return err
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendResetOTP(ctx, user.Email, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send reset otp failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// ResetPassword consume el codigo de reseteo y pisa el hash almacenado en la
// misma escritura.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	newPassword = strings.TrimSpace(newPassword)
	if emailAddr == "" || code == "" || newPassword == "" {
		return ErrMissingFields
	}
	if !isValidOTPCode(code) {
		return ErrOTPInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.otp.Validate(ctx, user.ID, PurposeReset, code, func(u *domain.User) {
		u.PasswordHash = string(hashBytes)
	})
}

// GetUserData devuelve el registro para el principal autenticado.
func (s *AuthService) GetUserData(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
