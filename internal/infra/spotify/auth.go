package spotify

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when a callback carries a foreign state value.
var ErrStateMismatch = errors.New("oauth state mismatch")

// AuthFlow runs the authorization code flow that yields the refresh token
// the server is configured with.
type AuthFlow struct {
	auth  *spotifyauth.Authenticator
	state string

	// apiBaseURL overrides the Web API endpoint used by Verify
	apiBaseURL string
}

// NewAuthFlow creates a flow for the given app credentials. Each flow uses
// its own random state value.
func NewAuthFlow(clientID, clientSecret, redirectURL string) *AuthFlow {
	return &AuthFlow{
		auth: spotifyauth.New(
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithScopes(Scopes...),
		),
		state: uuid.NewString(),
	}
}

// AuthURL returns the consent page URL to open in a browser.
func (f *AuthFlow) AuthURL() string {
	return f.auth.AuthURL(f.state)
}

// Exchange trades the code on a callback request for a token.
func (f *AuthFlow) Exchange(r *http.Request) (*oauth2.Token, error) {
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		return nil, errors.Newf("authorization denied: %s", msg)
	}
	if q.Get("state") != f.state {
		return nil, ErrStateMismatch
	}

	token, err := f.auth.Token(r.Context(), f.state, r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	if token.RefreshToken == "" {
		return nil, errors.New("no refresh token in response")
	}
	return token, nil
}

// Verify checks token against the Web API and returns the account it belongs to.
func (f *AuthFlow) Verify(ctx context.Context, token *oauth2.Token) (*User, error) {
	c := newClient(f.auth.Client(ctx, token), f.apiBaseURL, "")
	u, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "token verification failed")
	}
	return u, nil
}
