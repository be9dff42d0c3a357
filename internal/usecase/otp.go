package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/config"
	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/shared/security"
)

// OTPUsecase issues and verifies short-lived one-time codes.
type OTPUsecase interface {
	// Issue invalidates any existing codes for the email and purpose, stores
	// the hash of a fresh code, and returns the plaintext for out-of-band
	// delivery.
	Issue(ctx context.Context, email string, purpose model.OTPPurpose) (string, error)

	// Verify checks a candidate code. Expired codes are purged as a side
	// effect; a successful verification consumes the code.
	Verify(ctx context.Context, email string, purpose model.OTPPurpose, candidate string) error

	// Discard drops any outstanding codes for the email and purpose.
	Discard(ctx context.Context, email string, purpose model.OTPPurpose) error
}

var (
	ErrCodeNotFound = errors.New("one-time code not found")
	ErrCodeExpired  = errors.New("one-time code has expired")
	ErrCodeMismatch = errors.New("invalid one-time code")
)

type otpUsecase struct {
	otpRepo repository.OTPRepository
	cfg     *config.Config
}

// NewOTPUsecase creates a new instance of OTPUsecase.
func NewOTPUsecase(otpRepo repository.OTPRepository, cfg *config.Config) OTPUsecase {
	return &otpUsecase{
		otpRepo: otpRepo,
		cfg:     cfg,
	}
}

func (u *otpUsecase) Issue(ctx context.Context, email string, purpose model.OTPPurpose) (string, error) {
	// At most one valid code per (email, purpose).
	if err := u.otpRepo.DeleteCodes(ctx, email, purpose); err != nil {
		return "", err
	}

	code, err := security.GenerateCode(u.cfg.OTP.Length)
	if err != nil {
		return "", err
	}

	codeHash, err := security.HashPassword(code)
	if err != nil {
		return "", err
	}

	if _, err := u.otpRepo.CreateCode(ctx, &model.OneTimeCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(u.cfg.OTP.ExpiresIn),
	}); err != nil {
		return "", err
	}

	return code, nil
}

func (u *otpUsecase) Verify(ctx context.Context, email string, purpose model.OTPPurpose, candidate string) error {
	record, err := u.otpRepo.GetCode(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrCodeNotFound
		}
		return err
	}

	// The TTL reaper runs periodically, so an expired record may still be
	// present; purge it before signalling expiry.
	if time.Now().After(record.ExpiresAt) {
		if err := u.otpRepo.DeleteCodes(ctx, email, purpose); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	ok, err := security.VerifyPassword(candidate, record.CodeHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeMismatch
	}

	// Single use.
	return u.otpRepo.DeleteCodes(ctx, email, purpose)
}

func (u *otpUsecase) Discard(ctx context.Context, email string, purpose model.OTPPurpose) error {
	return u.otpRepo.DeleteCodes(ctx, email, purpose)
}
