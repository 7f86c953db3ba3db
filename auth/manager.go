// Package auth owns the OAuth2 Authorization-Code-with-PKCE credential
// lifecycle: obtaining, persisting, validating and refreshing a token across
// independent, short-lived process invocations.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

// DefaultCallbackTimeout bounds how long an authorization attempt waits for
// the browser redirect before giving up with ErrCallbackTimeout.
const DefaultCallbackTimeout = 3 * time.Minute

// Config carries the provider endpoints and client identity. It is injected
// rather than read from package state so tests can substitute a mock token
// endpoint and redirect URI.
type Config struct {
	ClientID string
	AuthURL  string
	TokenURL string
	// RedirectURI must exactly match the value registered with the provider
	// and the address/path the callback listener binds.
	RedirectURI  string
	ListenAddr   string
	CallbackPath string
	Scopes       []string
	// CallbackTimeout overrides DefaultCallbackTimeout when non-zero.
	CallbackTimeout time.Duration
}

// Notifier receives progress events from the token lifecycle. tui.Displayer
// satisfies it.
type Notifier interface {
	TokensFound()
	TokenValid()
	TokenExpired()
	TokensNotFound()
	Refreshing()
	RefreshOK()
	AuthorizeURLReady(url string)
	BrowserOpenFailed(err error)
	WaitingForCallback(deadline time.Time)
	Exchanging()
	AuthSuccess()
	TokenSaved(path string)
}

// Manager orchestrates the credential lifecycle and exposes the single
// operation the rest of the application needs: a currently valid bearer
// access token, whatever network or browser interaction that takes.
type Manager struct {
	cfg   Config
	store *Store
	ex    *Exchanger

	// Injection points for tests.
	openBrowser func(url string) error
	now         func() time.Time
}

// NewManager wires a Manager from a provider Config and a token Store.
func NewManager(cfg Config, store *Store) *Manager {
	if cfg.CallbackTimeout == 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}
	return &Manager{
		cfg:         cfg,
		store:       store,
		ex:          NewExchanger(cfg),
		openBrowser: browser.OpenURL,
		now:         time.Now,
	}
}

// Token returns a valid access token, refreshing or re-authorizing as
// needed. A refresh failure is terminal for the invocation: it never falls
// back to a fresh browser flow, so a broken refresh token surfaces as an
// error instead of silently re-prompting. The on-disk credential is only
// ever replaced by a fully exchanged or refreshed one.
func (m *Manager) Token(ctx context.Context, n Notifier) (string, error) {
	cred, err := m.store.Load()
	if err != nil {
		log.Debug().Msg("no stored credential, starting authorization flow")
		n.TokensNotFound()
		return m.authorize(ctx, n)
	}

	n.TokensFound()
	if !cred.StaleAt(m.now()) {
		n.TokenValid()
		return cred.AccessToken, nil
	}

	n.TokenExpired()
	n.Refreshing()
	fresh, err := m.ex.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if err := m.store.Save(fresh); err != nil {
		return "", err
	}
	n.RefreshOK()
	n.TokenSaved(m.store.Path())
	return fresh.AccessToken, nil
}

// authorize runs the full Authorization-Code-with-PKCE flow: browser
// consent, local callback capture, code exchange, persistence.
func (m *Manager) authorize(ctx context.Context, n Notifier) (string, error) {
	pkce, err := GeneratePKCE()
	if err != nil {
		return "", err
	}
	state := uuid.NewString()

	// Bind before the browser opens so the redirect cannot race the listener.
	l, err := newListener(m.cfg.ListenAddr, m.cfg.CallbackPath, state)
	if err != nil {
		return "", err
	}
	defer l.Close()

	authURL := m.authorizeURL(pkce.Challenge, state)
	n.AuthorizeURLReady(authURL)
	if err := m.openBrowser(authURL); err != nil {
		// Not fatal: the URL is on screen for a manual visit.
		n.BrowserOpenFailed(err)
	}

	deadline := m.now().Add(m.cfg.CallbackTimeout)
	n.WaitingForCallback(deadline)
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.CallbackTimeout)
	defer cancel()
	code, err := l.Wait(waitCtx)
	if err != nil {
		return "", err
	}

	n.Exchanging()
	cred, err := m.ex.ExchangeCode(ctx, code, pkce.Verifier)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}
	if err := m.store.Save(cred); err != nil {
		return "", err
	}
	n.AuthSuccess()
	n.TokenSaved(m.store.Path())
	return cred.AccessToken, nil
}

// authorizeURL builds the provider consent URL for one attempt, binding the
// PKCE challenge and the anti-CSRF state to it.
func (m *Manager) authorizeURL(challenge, state string) string {
	q := url.Values{}
	q.Set("client_id", m.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", m.cfg.RedirectURI)
	q.Set("code_challenge_method", "S256")
	q.Set("code_challenge", challenge)
	q.Set("scope", strings.Join(m.cfg.Scopes, " "))
	q.Set("state", state)
	return m.cfg.AuthURL + "?" + q.Encode()
}
