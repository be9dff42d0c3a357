package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/shared/auth"
	"github.com/proxypurple/commerce-api/shared/provider"
)

type authTestEnv struct {
	userRepo    *fakeUserRepo
	otpRepo     *fakeOTPRepo
	sessionRepo *fakeSessionRepo
	mailer      *fakeMailer
	verifier    *fakeVerifier
	issuer      *auth.TokenIssuer

	authUsecase          AuthUsecase
	passwordResetUsecase PasswordResetUsecase
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	cfg := testConfig()
	logger := zerolog.Nop()

	env := &authTestEnv{
		userRepo:    newFakeUserRepo(),
		otpRepo:     newFakeOTPRepo(),
		sessionRepo: newFakeSessionRepo(),
		mailer:      &fakeMailer{},
		verifier:    &fakeVerifier{identities: make(map[string]*provider.ExternalIdentity)},
		issuer:      auth.NewTokenIssuer("commerce-api-test", "access-secret", "refresh-secret", time.Hour, 24*time.Hour),
	}

	otpUsecase := NewOTPUsecase(env.otpRepo, cfg)
	env.authUsecase = NewAuthUsecase(
		env.userRepo, env.sessionRepo, otpUsecase, env.issuer, env.mailer, env.verifier, &logger, cfg,
	)
	env.passwordResetUsecase = NewPasswordResetUsecase(
		env.userRepo, env.sessionRepo, otpUsecase, env.issuer, env.mailer, &logger, cfg,
	)

	return env
}

// signUpVerified walks a user through signup and email verification.
func (env *authTestEnv) signUpVerified(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	ctx := context.Background()

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: email, Password: password})
	require.NoError(t, err)

	sent, ok := env.mailer.lastSent()
	require.True(t, ok)
	code := extractCode(sent.body)
	require.NotEmpty(t, code)

	result, err := env.authUsecase.VerifyOTP(ctx, email, code)
	require.NoError(t, err)

	return result
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	user, err := env.authUsecase.SignUp(ctx, SignUpParams{
		Email:    " Alice@Example.com ",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.Verified)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-password", user.PasswordHash)

	sent, ok := env.mailer.lastSent()
	require.True(t, ok)
	assert.Equal(t, []string{"alice@example.com"}, sent.to)
	assert.NotEmpty(t, extractCode(sent.body))
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.NoError(t, err)

	_, err = env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "other-password"})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignUpDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.mailer.fail = true

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	// No user record and no dangling code: the signup never happened.
	_, err = env.userRepo.GetUserByEmail(ctx, "alice@example.com")
	assert.Error(t, err)
	_, err = env.otpRepo.GetCode(ctx, "alice@example.com", model.OTPPurposeSignup)
	assert.Error(t, err)
}

func TestSignUpUserCreationFailureDiscardsCode(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.userRepo.createErr = errors.New("write failed")

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailInUse)

	// The delivered code must not survive the failed signup.
	_, err = env.otpRepo.GetCode(ctx, "alice@example.com", model.OTPPurposeSignup)
	assert.Error(t, err)
}

func TestVerifyOTP(t *testing.T) {
	env := newAuthTestEnv(t)

	result := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	assert.True(t, result.User.Verified)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	claims, err := env.issuer.VerifyAccess(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.Hex(), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.NoError(t, err)

	_, err = env.authUsecase.VerifyOTP(ctx, "alice@example.com", "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	user, err := env.userRepo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, user.Verified)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.signUpVerified(t, "alice@example.com", "s3cret-password")

	result, err := env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email reported as invalid credentials", func(t *testing.T) {
		_, err := env.authUsecase.SignIn(ctx, SignInParams{Email: "nobody@example.com", Password: "s3cret-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestSignInUnverified(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	_, err := env.authUsecase.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.NoError(t, err)

	_, err = env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrAccountNotVerified)
}

func TestSignInDisplacesPriorSession(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	result := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	_, err := env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	require.NoError(t, err)

	// One active refresh session per user.
	assert.Equal(t, 1, env.sessionRepo.count(result.User.ID))

	// The displaced refresh token is dead.
	_, err = env.authUsecase.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	result := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	rotated, err := env.authUsecase.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, result.Tokens.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token fails.
	_, err = env.authUsecase.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The rotated token works.
	_, err = env.authUsecase.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshInvalidToken(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	_, err := env.authUsecase.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	result := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.authUsecase.Refresh(ctx, result.Tokens.RefreshToken)
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrInvalidToken)
		}
	}
	assert.Equal(t, 1, won)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	result := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	require.NoError(t, env.authUsecase.SignOut(ctx, result.Tokens.RefreshToken))

	_, err := env.authUsecase.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signing out again, or with garbage, still succeeds.
	assert.NoError(t, env.authUsecase.SignOut(ctx, result.Tokens.RefreshToken))
	assert.NoError(t, env.authUsecase.SignOut(ctx, "garbage"))
}

func TestGoogleSignInCreatesUser(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.verifier.identities["valid-token"] = &provider.ExternalIdentity{
		Subject: "google-sub-1",
		Email:   "Alice@Example.com",
	}

	result, err := env.authUsecase.GoogleSignIn(ctx, "valid-token")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "google-sub-1", result.User.GoogleID)
	assert.True(t, result.User.Verified)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	// A second signin resolves to the same account.
	again, err := env.authUsecase.GoogleSignIn(ctx, "valid-token")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
}

func TestGoogleSignInLinksExistingAccount(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.signUpVerified(t, "alice@example.com", "s3cret-password")
	env.verifier.identities["valid-token"] = &provider.ExternalIdentity{
		Subject: "google-sub-1",
		Email:   "alice@example.com",
	}

	result, err := env.authUsecase.GoogleSignIn(ctx, "valid-token")
	require.NoError(t, err)

	assert.Equal(t, "google-sub-1", result.User.GoogleID)

	// Password signin still works after linking.
	_, err = env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	assert.NoError(t, err)
}

func TestGoogleSignInInvalidToken(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	_, err := env.authUsecase.GoogleSignIn(ctx, "bad-token")
	assert.ErrorIs(t, err, ErrInvalidExternalToken)
}

func TestGoogleSignInEmailMissing(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.verifier.identities["no-email"] = &provider.ExternalIdentity{Subject: "google-sub-2"}

	_, err := env.authUsecase.GoogleSignIn(ctx, "no-email")
	assert.ErrorIs(t, err, ErrEmailMissingFromProvider)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	original := env.signUpVerified(t, "alice@example.com", "s3cret-password")

	require.NoError(t, env.passwordResetUsecase.RequestPasswordReset(ctx, "alice@example.com"))

	sent, ok := env.mailer.lastSent()
	require.True(t, ok)
	code := extractCode(sent.body)
	require.NotEmpty(t, code)

	result, err := env.passwordResetUsecase.ResetPassword(ctx, "alice@example.com", code, "new-password-123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)

	// Old password no longer works, new one does.
	_, err = env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "new-password-123"})
	assert.NoError(t, err)

	// Sessions from before the reset are revoked.
	_, err = env.authUsecase.Refresh(ctx, original.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)

	// No account enumeration: the request reports success either way.
	assert.NoError(t, env.passwordResetUsecase.RequestPasswordReset(ctx, "nobody@example.com"))

	_, ok := env.mailer.lastSent()
	assert.False(t, ok)
}

func TestPasswordResetWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newAuthTestEnv(t)
	env.signUpVerified(t, "alice@example.com", "s3cret-password")

	require.NoError(t, env.passwordResetUsecase.RequestPasswordReset(ctx, "alice@example.com"))

	_, err := env.passwordResetUsecase.ResetPassword(ctx, "alice@example.com", "000000", "new-password-123")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// The old password is untouched.
	_, err = env.authUsecase.SignIn(ctx, SignInParams{Email: "alice@example.com", Password: "s3cret-password"})
	assert.NoError(t, err)
}
