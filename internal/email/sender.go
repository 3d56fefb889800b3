package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para el envio de correos transaccionales.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail string) error
	SendVerifyOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendResetOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) fail() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendWelcome(_ context.Context, _ string) error {
	return s.fail()
}

func (s *disabledSender) SendVerifyOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.fail()
}

func (s *disabledSender) SendResetOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.fail()
}
