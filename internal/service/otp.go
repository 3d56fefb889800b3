package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
)

// OTPPurpose identifica el slot de OTP sobre el que se opera.
type OTPPurpose string

const (
	PurposeVerify OTPPurpose = "verify"
	PurposeReset  OTPPurpose = "reset"
)

const (
	verifyOTPTTL = 24 * time.Hour
	resetOTPTTL  = 15 * time.Minute
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrOTPNotRequested = errors.New("otp not requested")
	ErrOTPExpired      = errors.New("otp expired")
	ErrOTPInvalid      = errors.New("otp invalid")
)

// OTPEngine genera, almacena y valida codigos de un solo uso por usuario.
// Todas las mutaciones de un mismo usuario se serializan con un mutex por id
// para que emitir y validar no se pisen entre requests concurrentes.
type OTPEngine struct {
	users repository.UserRepository
	locks keyedMutex
}

func NewOTPEngine(users repository.UserRepository) *OTPEngine {
	return &OTPEngine{users: users}
}

// TTL devuelve la vigencia del codigo segun su proposito.
func (e *OTPEngine) TTL(purpose OTPPurpose) time.Duration {
	if purpose == PurposeReset {
		return resetOTPTTL
	}
	return verifyOTPTTL
}

// Issue genera un codigo de 6 digitos, lo guarda en el slot del proposito
// (pisando cualquier codigo previo) y devuelve el codigo en claro para su
// entrega. El slot almacena solo el hash salteado.
func (e *OTPEngine) Issue(ctx context.Context, userID string, purpose OTPPurpose) (string, time.Time, error) {
	unlock := e.locks.lock(userID)
	defer unlock()

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, ErrUserNotFound
		}
		return "", time.Time{}, err
	}

	code, hash, err := generateOTP()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(e.TTL(purpose))

	slot := slotFor(&user, purpose)
	slot.Code = hash
	slot.ExpiresAt = &expiresAt

	if err := e.users.Update(ctx, user); err != nil {
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// Validate comprueba el codigo enviado contra el slot del proposito. En caso
// de exito limpia el slot, aplica onSuccess sobre el registro (si se pasa) y
// persiste todo en una sola escritura, de modo que ningun codigo sobrevive a
// una validacion exitosa.
func (e *OTPEngine) Validate(ctx context.Context, userID string, purpose OTPPurpose, submitted string, onSuccess func(*domain.User)) error {
	unlock := e.locks.lock(userID)
	defer unlock()

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	slot := slotFor(&user, purpose)
	if slot.Empty() {
		return ErrOTPNotRequested
	}
	if !verifyOTPHash(submitted, slot.Code) {
		return ErrOTPInvalid
	}
	if slot.ExpiresAt == nil || time.Now().UTC().After(*slot.ExpiresAt) {
		return ErrOTPExpired
	}

	slot.Clear()
	if onSuccess != nil {
		onSuccess(&user)
	}
	return e.users.Update(ctx, user)
}

func slotFor(u *domain.User, purpose OTPPurpose) *domain.OTPSlot {
	if purpose == PurposeReset {
		return &u.ResetOTP
	}
	return &u.VerifyOTP
}

func generateOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	return code, saltStr + ":" + hash, nil
}

func verifyOTPHash(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// keyedMutex serializa operaciones por clave (id de usuario).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
