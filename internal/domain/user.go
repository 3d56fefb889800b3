package domain

import "time"

// OTPSlot guarda el codigo activo de un proposito junto con su expiracion.
// Un slot vacio tiene Code == "".
type OTPSlot struct {
	Code      string     `json:"-"`
	ExpiresAt *time.Time `json:"-"`
}

// Empty indica si el slot no tiene codigo activo.
func (s OTPSlot) Empty() bool {
	return s.Code == ""
}

// Clear invalida el codigo almacenado.
func (s *OTPSlot) Clear() {
	s.Code = ""
	s.ExpiresAt = nil
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	VerifyOTP    OTPSlot   `json:"-"`
	ResetOTP     OTPSlot   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
