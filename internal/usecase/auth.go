package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/config"
	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/shared/auth"
	"github.com/proxypurple/commerce-api/shared/provider"
	"github.com/proxypurple/commerce-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	SignUp(ctx context.Context, params SignUpParams) (*model.User, error)
	VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error)
	SignIn(ctx context.Context, params SignInParams) (*AuthResult, error)
	GoogleSignIn(ctx context.Context, idToken string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// SignUpParams defines the parameters for user signup.
type SignUpParams struct {
	Email    string
	Password string
}

// SignInParams defines the parameters for user signin.
type SignInParams struct {
	Email    string
	Password string
}

// AuthResult is the outcome of a successful authentication: the user record
// and a fresh token pair backed by a persisted refresh session.
type AuthResult struct {
	User   *model.User
	Tokens *auth.TokenPair
}

// Mailer delivers emails out of band. Satisfied by *mailer.Mailer.
type Mailer interface {
	SendHTMLContext(ctx context.Context, to []string, subject, htmlBody string) error
}

// IdentityVerifier verifies external identity tokens. Satisfied by
// *provider.GoogleVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*provider.ExternalIdentity, error)
}

var (
	ErrEmailInUse               = errors.New("email already in use")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountNotVerified       = errors.New("account is not verified")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidToken             = errors.New("invalid refresh token")
	ErrDeliveryFailed           = errors.New("failed to deliver one-time code")
	ErrInvalidExternalToken     = errors.New("invalid external identity token")
	ErrEmailMissingFromProvider = errors.New("external identity has no email")
)

type authUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	otpUsecase  OTPUsecase
	issuer      *auth.TokenIssuer
	mailer      Mailer
	verifier    IdentityVerifier
	logger      *zerolog.Logger
	cfg         *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	otpUsecase OTPUsecase,
	issuer *auth.TokenIssuer,
	mailer Mailer,
	verifier IdentityVerifier,
	logger *zerolog.Logger,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		otpUsecase:  otpUsecase,
		issuer:      issuer,
		mailer:      mailer,
		verifier:    verifier,
		logger:      logger,
		cfg:         cfg,
	}
}

func (u *authUsecase) SignUp(ctx context.Context, params SignUpParams) (*model.User, error) {
	email := normalizeEmail(params.Email)

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	code, err := u.otpUsecase.Issue(ctx, email, model.OTPPurposeSignup)
	if err != nil {
		return nil, err
	}

	// Send before commit: the user record is created only after the code has
	// been delivered, so nobody ends up pending verification with no way to
	// receive a code.
	if err := sendOTPEmail(ctx, u.mailer, u.cfg, email, code, model.OTPPurposeSignup); err != nil {
		if discardErr := u.otpUsecase.Discard(ctx, email, model.OTPPurposeSignup); discardErr != nil {
			u.logger.Error().Err(discardErr).Msg("failed to discard one-time code after delivery failure")
		}
		u.logger.Error().Err(err).Msg("failed to send signup code")
		return nil, ErrDeliveryFailed
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     false,
		Role:         model.RoleUser,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailInUse
		}
		// The delivered code points at an account that never came to exist;
		// drop it so it cannot be consumed by a later verification attempt.
		// Duplicate-key races keep theirs: the code there belongs to the
		// signup that won.
		if discardErr := u.otpUsecase.Discard(ctx, email, model.OTPPurposeSignup); discardErr != nil {
			u.logger.Error().Err(discardErr).Msg("failed to discard one-time code after user creation failure")
		}
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	email = normalizeEmail(email)

	if err := u.otpUsecase.Verify(ctx, email, model.OTPPurposeSignup, code); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	verified := true
	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		Verified: &verified,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := createAuthSession(ctx, u.issuer, u.sessionRepo, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (u *authUsecase) SignIn(ctx context.Context, params SignInParams) (*AuthResult, error) {
	email := normalizeEmail(params.Email)

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Same failure as a wrong password, so the response never reveals
			// whether the email is registered.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	tokens, err := createAuthSession(ctx, u.issuer, u.sessionRepo, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (u *authUsecase) GoogleSignIn(ctx context.Context, idToken string) (*AuthResult, error) {
	identity, err := u.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, provider.ErrEmailMissing) {
			return nil, ErrEmailMissingFromProvider
		}
		return nil, ErrInvalidExternalToken
	}

	email := normalizeEmail(identity.Email)

	user, err := u.userRepo.GetUserByGoogleID(ctx, identity.Subject)
	switch {
	case err == nil:
		// Known external identity.
	case errors.Is(err, mongo.ErrNoDocuments):
		user, err = u.linkOrCreateGoogleUser(ctx, email, identity.Subject)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	tokens, err := createAuthSession(ctx, u.issuer, u.sessionRepo, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := u.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Compare-and-delete: of any concurrent refreshes presenting this token,
	// exactly one consumes the session. Losers land here with no document.
	if _, err := u.sessionRepo.ConsumeSession(ctx, userID, security.HashToken(refreshToken), time.Now()); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return createAuthSession(ctx, u.issuer, u.sessionRepo, user)
}

func (u *authUsecase) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := u.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		// Invalid or expired token: nothing to revoke, signout stays
		// idempotent.
		return nil
	}

	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}

	if err := u.sessionRepo.DeleteSession(ctx, userID, security.HashToken(refreshToken)); err != nil {
		u.logger.Error().Err(err).Msg("failed to delete session on signout")
	}

	return nil
}

func (u *authUsecase) linkOrCreateGoogleUser(ctx context.Context, email, googleID string) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		// Existing email/password account: link the external identity.
		verified := true
		return u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
			GoogleID: &googleID,
			Verified: &verified,
		})
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return u.userRepo.CreateUser(ctx, &model.User{
		Email:    email,
		GoogleID: googleID,
		Verified: true,
		Role:     model.RoleUser,
	})
}

// sendOTPEmail delivers a one-time code, bounded by the configured send
// timeout.
func sendOTPEmail(ctx context.Context, mailer Mailer, cfg *config.Config, email, code string, purpose model.OTPPurpose) error {
	subject := "Your verification code"
	heading := "Verify your email"
	if purpose == model.OTPPurposePasswordReset {
		subject = "Password reset code"
		heading = "Reset your password"
	}

	htmlBody := fmt.Sprintf(`
		<div style="font-family:Arial, sans-serif;line-height:1.5">
			<h2>%s</h2>
			<p>Your one-time code is:</p>
			<h1 style="letter-spacing:4px">%s</h1>
			<p>This code expires in %s. Please do not share it with anyone.</p>
		</div>
	`, heading, code, cfg.OTP.ExpiresIn)

	sendCtx, cancel := context.WithTimeout(ctx, cfg.OTP.SendTimeout)
	defer cancel()

	return mailer.SendHTMLContext(sendCtx, []string{email}, subject, htmlBody)
}

// createAuthSession mints a token pair and replaces the user's refresh
// session with one backed by the new refresh token's hash. One active refresh
// session per user: every signin, verification and rotation displaces the
// previous session.
func createAuthSession(
	ctx context.Context,
	issuer *auth.TokenIssuer,
	sessionRepo repository.SessionRepository,
	user *model.User,
) (*auth.TokenPair, error) {
	tokens, err := issuer.Issue(user.ID.Hex(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := sessionRepo.DeleteSessionsByUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	if _, err := sessionRepo.CreateSession(ctx, &model.Session{
		UserID:    user.ID,
		TokenHash: security.HashToken(tokens.RefreshToken),
		ExpiresAt: time.Now().Add(issuer.RefreshTTL()),
	}); err != nil {
		return nil, err
	}

	return tokens, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
