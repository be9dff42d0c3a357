package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/config"
	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/shared/auth"
	"github.com/proxypurple/commerce-api/shared/security"
)

// PasswordResetUsecase defines the business logic for password resets. Reset
// codes live in their own namespace, so a signup code is never accepted here.
type PasswordResetUsecase interface {
	// RequestPasswordReset initiates the password reset process for a given
	// email. It reports success regardless of whether the email is
	// registered, to prevent enumeration.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword replaces the user's password after verifying the reset
	// code, revokes outstanding sessions and signs the user in.
	ResetPassword(ctx context.Context, email, code, newPassword string) (*AuthResult, error)
}

type passwordResetUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	otpUsecase  OTPUsecase
	issuer      *auth.TokenIssuer
	mailer      Mailer
	logger      *zerolog.Logger
	cfg         *config.Config
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	otpUsecase OTPUsecase,
	issuer *auth.TokenIssuer,
	mailer Mailer,
	logger *zerolog.Logger,
	cfg *config.Config,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		otpUsecase:  otpUsecase,
		issuer:      issuer,
		mailer:      mailer,
		logger:      logger,
		cfg:         cfg,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Do not reveal that the email does not exist.
			return nil
		}
		return err
	}

	code, err := u.otpUsecase.Issue(ctx, email, model.OTPPurposePasswordReset)
	if err != nil {
		return err
	}

	if err := sendOTPEmail(ctx, u.mailer, u.cfg, email, code, model.OTPPurposePasswordReset); err != nil {
		// Best effort: the caller still sees success, for the same
		// enumeration reason.
		u.logger.Error().Err(err).Msg("failed to send password reset code")
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) (*AuthResult, error) {
	email = normalizeEmail(email)

	if err := u.otpUsecase.Verify(ctx, email, model.OTPPurposePasswordReset, code); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	})
	if err != nil {
		return nil, err
	}

	// createAuthSession displaces any session minted with the old password.
	tokens, err := createAuthSession(ctx, u.issuer, u.sessionRepo, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}
