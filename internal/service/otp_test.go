package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auth-api/internal/domain"
)

func seedUser(repo *mockUserRepo, id, email string) domain.User {
	user := domain.User{
		ID:        id,
		Name:      "Test",
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	_ = repo.Create(context.Background(), user)
	return user
}

func TestOTPEngineIssue(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	start := time.Now().UTC()
	code, expiresAt, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("expected issue success, got %v", err)
	}
	if !isValidOTPCode(code) {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if expiresAt.Before(start.Add(23*time.Hour)) || expiresAt.After(start.Add(25*time.Hour)) {
		t.Fatalf("expected 24h expiry, got %v", expiresAt)
	}

	stored, _ := repo.GetByID(context.Background(), "u1")
	if stored.VerifyOTP.Empty() {
		t.Fatalf("expected verify slot populated")
	}
	if stored.VerifyOTP.Code == code {
		t.Fatalf("expected stored code to be hashed")
	}
	if !stored.ResetOTP.Empty() {
		t.Fatalf("expected reset slot untouched")
	}
}

func TestOTPEngineIssue_ResetTTL(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	start := time.Now().UTC()
	_, expiresAt, err := engine.Issue(context.Background(), "u1", PurposeReset)
	if err != nil {
		t.Fatalf("expected issue success, got %v", err)
	}
	if expiresAt.Before(start.Add(14*time.Minute)) || expiresAt.After(start.Add(16*time.Minute)) {
		t.Fatalf("expected 15m expiry, got %v", expiresAt)
	}
}

func TestOTPEngineIssue_UserNotFound(t *testing.T) {
	engine := NewOTPEngine(newMockUserRepo())
	if _, _, err := engine.Issue(context.Background(), "missing", PurposeVerify); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestOTPEngineValidate_RoundTrip(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	code, _, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	applied := false
	err = engine.Validate(context.Background(), "u1", PurposeVerify, code, func(u *domain.User) {
		applied = true
		u.IsVerified = true
	})
	if err != nil {
		t.Fatalf("expected validate success, got %v", err)
	}
	if !applied {
		t.Fatalf("expected onSuccess to run")
	}

	stored, _ := repo.GetByID(context.Background(), "u1")
	if !stored.IsVerified {
		t.Fatalf("expected onSuccess mutation persisted")
	}
	if !stored.VerifyOTP.Empty() || stored.VerifyOTP.ExpiresAt != nil {
		t.Fatalf("expected slot cleared after success")
	}

	// Ningun codigo vale para dos validaciones exitosas.
	err = engine.Validate(context.Background(), "u1", PurposeVerify, code, nil)
	if !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("expected ErrOTPNotRequested on replay, got %v", err)
	}
}

func TestOTPEngineValidate_Failures(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	if err := engine.Validate(context.Background(), "missing", PurposeVerify, "123456", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := engine.Validate(context.Background(), "u1", PurposeVerify, "123456", nil); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("expected ErrOTPNotRequested on empty slot, got %v", err)
	}

	code, _, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := engine.Validate(context.Background(), "u1", PurposeVerify, wrong, nil); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on mismatch, got %v", err)
	}

	// El mismatch no consume el codigo correcto.
	if err := engine.Validate(context.Background(), "u1", PurposeVerify, code, nil); err != nil {
		t.Fatalf("expected correct code still valid, got %v", err)
	}
}

func TestOTPEngineValidate_Expired(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	user := seedUser(repo, "u1", "user@example.com")

	code, _, err := engine.Issue(context.Background(), "u1", PurposeReset)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	stored := repo.usersByID[user.ID]
	expired := time.Now().UTC().Add(-1 * time.Second)
	stored.ResetOTP.ExpiresAt = &expired
	repo.usersByID[user.ID] = stored

	if err := engine.Validate(context.Background(), "u1", PurposeReset, code, nil); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestOTPEngineIssue_OverwritesPriorCode(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	first, _, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	second, _, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("second issue failed: %v", err)
	}

	if first != second {
		if err := engine.Validate(context.Background(), "u1", PurposeVerify, first, nil); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("expected first code invalidated, got %v", err)
		}
	}
	if err := engine.Validate(context.Background(), "u1", PurposeVerify, second, nil); err != nil {
		t.Fatalf("expected second code valid, got %v", err)
	}
}

func TestOTPEnginePurposesAreIndependent(t *testing.T) {
	repo := newMockUserRepo()
	engine := NewOTPEngine(repo)
	seedUser(repo, "u1", "user@example.com")

	verifyCode, _, err := engine.Issue(context.Background(), "u1", PurposeVerify)
	if err != nil {
		t.Fatalf("issue verify failed: %v", err)
	}
	resetCode, _, err := engine.Issue(context.Background(), "u1", PurposeReset)
	if err != nil {
		t.Fatalf("issue reset failed: %v", err)
	}

	// Consumir el slot de reset no toca el de verify.
	if err := engine.Validate(context.Background(), "u1", PurposeReset, resetCode, nil); err != nil {
		t.Fatalf("expected reset validate success, got %v", err)
	}
	if err := engine.Validate(context.Background(), "u1", PurposeVerify, verifyCode, nil); err != nil {
		t.Fatalf("expected verify code still valid, got %v", err)
	}
}

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, stored, err := generateOTP()
		if err != nil {
			t.Fatalf("generate otp failed: %v", err)
		}
		if !isValidOTPCode(code) {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		if !verifyOTPHash(code, stored) {
			t.Fatalf("expected stored hash to verify its own code")
		}
		if verifyOTPHash("999999", stored) && code != "999999" {
			t.Fatalf("expected wrong code to fail verification")
		}
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var km keyedMutex
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock("u1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 serialized increments, got %d", counter)
	}
}
