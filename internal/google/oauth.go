package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultRedirectURL is used when the client secrets carry no redirect URI.
	DefaultRedirectURL = "http://localhost:3000/oauth2callback"

	// ApplicationName identifies the client to Google APIs.
	ApplicationName = "myDos"
)

// LoadOAuthConfig reads a client-secrets JSON file and builds the OAuth2 config.
func LoadOAuthConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, errors.New("OAuth credentials file is required")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google OAuth credentials: %w", err)
	}
	return ParseOAuthConfig(data, scopes...)
}

// ParseOAuthConfig builds the OAuth2 config from client-secrets JSON.
func ParseOAuthConfig(data []byte, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	data, err := withDefaultRedirect(data)
	if err != nil {
		return nil, fmt.Errorf("invalid Google OAuth credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid Google OAuth credentials: %w", err)
	}
	return conf, nil
}

// withDefaultRedirect sets redirect_uris to DefaultRedirectURL in client
// secrets that carry none. google.ConfigFromJSON rejects those outright.
func withDefaultRedirect(data []byte) ([]byte, error) {
	var secrets map[string]json.RawMessage
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, err
	}

	changed := false
	for _, kind := range []string{"installed", "web"} {
		raw, ok := secrets[kind]
		if !ok {
			continue
		}
		var client map[string]json.RawMessage
		if err := json.Unmarshal(raw, &client); err != nil || client == nil {
			continue
		}
		var uris []string
		if r, ok := client["redirect_uris"]; ok {
			if err := json.Unmarshal(r, &uris); err != nil {
				return nil, fmt.Errorf("invalid redirect_uris: %w", err)
			}
		}
		if len(uris) > 0 {
			continue
		}
		client["redirect_uris"] = json.RawMessage(`["` + DefaultRedirectURL + `"]`)
		updated, err := json.Marshal(client)
		if err != nil {
			return nil, err
		}
		secrets[kind] = updated
		changed = true
	}
	if !changed {
		return data, nil
	}
	return json.Marshal(secrets)
}

// Authenticator runs the authorization-code flow and hands out token sources
// backed by a TokenStore.
type Authenticator struct {
	config *oauth2.Config
	store  TokenStore

	// base is the transport client used for token and API requests.
	base *http.Client
}

// NewAuthenticator creates an authenticator. A nil base client uses http.DefaultClient.
func NewAuthenticator(config *oauth2.Config, store TokenStore, base *http.Client) (*Authenticator, error) {
	if config == nil {
		return nil, errors.New("OAuth config is required")
	}
	if store == nil {
		return nil, errors.New("token store is required")
	}
	return &Authenticator{config: config, store: store, base: base}, nil
}

// AuthCodeURL returns the consent URL the user has to open.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAndSave trades an authorization code for a token and stores it.
func (a *Authenticator) ExchangeAndSave(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}
	token, err := a.config.Exchange(a.withBase(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := a.store.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// HasToken reports whether the store holds a token.
func (a *Authenticator) HasToken() bool {
	return HasToken(a.store)
}

// TokenSource returns a source that refreshes the stored token and writes
// refreshed tokens back to the store.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		src:   a.config.TokenSource(a.withBase(ctx), token),
		store: a.store,
		last:  token.AccessToken,
	}, nil
}

// HTTPClient returns an authorized client for Google APIs.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(a.withBase(ctx), ts), nil
}

func (a *Authenticator) withBase(ctx context.Context) context.Context {
	if a.base == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.base)
}

type persistingTokenSource struct {
	src   oauth2.TokenSource
	store TokenStore

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh Google OAuth token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			return nil, err
		}
		s.last = token.AccessToken
	}
	return token, nil
}

// AuthenticationErrorMessage explains how to obtain a token.
func AuthenticationErrorMessage(tokenFile string) string {
	return fmt.Sprintf("No Google OAuth token found at %s.\n\n"+
		"Run 'mydos calendar auth' to authorize access to Google Calendar. "+
		"The command prints a consent URL; open it, approve access and paste the "+
		"authorization code back into the terminal.", tokenFile)
}
