package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const tokenRequestTimeout = 10 * time.Second

// tokenResponse is the provider's token endpoint payload. refresh_token is
// required on the initial exchange but optional on refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Exchanger converts an authorization code, or a refresh token, into a
// fresh Credential via the provider's token endpoint. It deliberately uses
// a plain HTTP client with no retry layer: token requests consume single-use
// grants, and replaying one after an ambiguous failure could burn the code.
type Exchanger struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewExchanger creates an Exchanger for the given provider configuration.
func NewExchanger(cfg Config) *Exchanger {
	return &Exchanger{
		cfg:    cfg,
		client: &http.Client{Timeout: tokenRequestTimeout},
		now:    time.Now,
	}
}

// ExchangeCode trades a single-use authorization code, proven by the PKCE
// verifier generated at the start of the attempt, for a Credential.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, verifier string) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", e.cfg.RedirectURI)
	form.Set("client_id", e.cfg.ClientID)
	form.Set("code_verifier", verifier)

	return e.post(ctx, form, "")
}

// Refresh obtains a new Credential from a refresh token. Providers are not
// guaranteed to rotate refresh tokens; when the response omits one, the
// token used for the request is carried forward into the new Credential.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", e.cfg.ClientID)

	return e.post(ctx, form, refreshToken)
}

func (e *Exchanger) post(ctx context.Context, form url.Values, priorRefreshToken string) (Credential, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Status and body are carried verbatim for the caller.
		return Credential{}, &oauth2.RetrieveError{Response: resp, Body: body}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Credential{}, fmt.Errorf("token response is missing access_token")
	}
	if tr.ExpiresIn <= 0 {
		return Credential{}, fmt.Errorf("token response expires_in must be positive, got %d", tr.ExpiresIn)
	}

	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = priorRefreshToken
	}
	if refresh == "" {
		return Credential{}, fmt.Errorf("token response is missing refresh_token")
	}

	return Credential{
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    e.now().Add(time.Duration(tr.ExpiresIn) * time.Second).Unix(),
	}, nil
}
