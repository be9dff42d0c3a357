package provider

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	// ErrInvalidExternalToken reports an ID token that failed verification
	// against the provider, audience mismatch included.
	ErrInvalidExternalToken = errors.New("invalid external identity token")

	// ErrEmailMissing reports a verified ID token that carries no email claim.
	ErrEmailMissing = errors.New("external identity has no email claim")
)

// ExternalIdentity is the provider-agnostic result of verifying an ID token.
type ExternalIdentity struct {
	Subject string
	Email   string
}

// GoogleVerifier verifies Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a GoogleVerifier for the given OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify validates a Google ID token and returns the identity it asserts.
// The token's audience must match the configured client ID.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(&http.Client{}))
	if err != nil {
		return nil, err
	}

	tokenInfoCall := oauth2Service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Context(ctx).Do()
	if err != nil {
		return nil, ErrInvalidExternalToken
	}

	if tokenInfo.Audience != v.clientID {
		return nil, ErrInvalidExternalToken
	}

	if tokenInfo.Email == "" {
		return nil, ErrEmailMissing
	}

	return &ExternalIdentity{
		Subject: tokenInfo.UserId,
		Email:   tokenInfo.Email,
	}, nil
}
