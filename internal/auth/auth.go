// Package auth defines the authentication collaborator consulted by the shell
// when a screen asks for an authorized scope.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoCredentials is returned by SignIn when no token source is configured.
var ErrNoCredentials = errors.New("auth: no credentials configured")

// Authenticator is the provider the shell talks to. Implementations must be
// safe for concurrent use: SignIn runs off the update loop.
type Authenticator interface {
	SignedIn() bool
	IsAuthorized() bool
	NeedAdditionalAuth() bool
	AccessToken() string
	SetScope(scope string)
	SignIn(ctx context.Context, interactive bool) error
}

// Session is a read-only snapshot of the authenticator.
type Session struct {
	SignedIn   bool
	Authorized bool
	Scope      string
	Token      string
}

// Snapshot captures the current session of a for scope. Token is only set
// when the scope is authorized.
func Snapshot(a Authenticator, scope string) Session {
	s := Session{SignedIn: a.SignedIn(), Scope: scope}
	s.Authorized = s.SignedIn && a.IsAuthorized()
	if s.Authorized {
		s.Token = a.AccessToken()
	}
	return s
}

// TokenAuthenticator authorizes every scope covered by a configured token.
// Granted scopes are tracked so that requesting a new scope needs a SignIn.
type TokenAuthenticator struct {
	mu      sync.Mutex
	token   string
	source  func(ctx context.Context, interactive bool) (string, error)
	granted map[string]bool
	scope   string
	signed  bool
}

// NewTokenAuthenticator creates an authenticator from a static token. An empty
// token means signed out.
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	a := &TokenAuthenticator{token: token, granted: map[string]bool{}}
	a.signed = token != ""
	if a.signed {
		a.granted[""] = true
	}
	a.source = func(ctx context.Context, interactive bool) (string, error) {
		if a.token == "" {
			return "", ErrNoCredentials
		}
		return a.token, nil
	}
	return a
}

// WithSource replaces the token source used by SignIn.
func (a *TokenAuthenticator) WithSource(fn func(ctx context.Context, interactive bool) (string, error)) *TokenAuthenticator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = fn
	return a
}

func (a *TokenAuthenticator) SignedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signed
}

func (a *TokenAuthenticator) IsAuthorized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signed && a.covered()
}

func (a *TokenAuthenticator) NeedAdditionalAuth() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signed && !a.covered()
}

func (a *TokenAuthenticator) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.signed {
		return ""
	}
	return a.token
}

// SetScope sets the space separated scope list of the next request.
func (a *TokenAuthenticator) SetScope(scope string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scope = scope
}

// SignIn obtains a token for the current scope.
func (a *TokenAuthenticator) SignIn(ctx context.Context, interactive bool) error {
	a.mu.Lock()
	source := a.source
	a.mu.Unlock()

	token, err := source(ctx, interactive)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
	a.signed = true
	for _, s := range strings.Fields(a.scope) {
		a.granted[s] = true
	}
	return nil
}

// covered reports whether every requested scope has been granted. Callers
// hold mu.
func (a *TokenAuthenticator) covered() bool {
	for _, s := range strings.Fields(a.scope) {
		if !a.granted[s] {
			return false
		}
	}
	return true
}
