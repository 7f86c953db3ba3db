package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func testExchanger(tokenURL string) *Exchanger {
	ex := NewExchanger(Config{
		ClientID:    "test-client",
		TokenURL:    tokenURL,
		RedirectURI: "http://localhost:8888/callback",
	})
	ex.now = func() time.Time { return time.Unix(1_000_000, 0) }
	return ex
}

func TestExchangeCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %s, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}

		if r.FormValue("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %s, want authorization_code", r.FormValue("grant_type"))
		}
		if r.FormValue("code") != "ABC123" {
			t.Errorf("code = %s, want ABC123", r.FormValue("code"))
		}
		if r.FormValue("redirect_uri") != "http://localhost:8888/callback" {
			t.Errorf("redirect_uri = %s", r.FormValue("redirect_uri"))
		}
		if r.FormValue("client_id") != "test-client" {
			t.Errorf("client_id = %s, want test-client", r.FormValue("client_id"))
		}
		if r.FormValue("code_verifier") != "the-verifier" {
			t.Errorf("code_verifier = %s, want the-verifier", r.FormValue("code_verifier"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access-token",
			"refresh_token": "new-refresh-token",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	cred, err := testExchanger(server.URL).ExchangeCode(context.Background(), "ABC123", "the-verifier")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if cred.AccessToken != "new-access-token" {
		t.Errorf("AccessToken = %s, want new-access-token", cred.AccessToken)
	}
	if cred.RefreshToken != "new-refresh-token" {
		t.Errorf("RefreshToken = %s, want new-refresh-token", cred.RefreshToken)
	}
	if want := int64(1_000_000 + 3600); cred.ExpiresAt != want {
		t.Errorf("ExpiresAt = %d, want %d (issue time + expires_in)", cred.ExpiresAt, want)
	}
}

func TestExchangeCode_MissingRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "new-access-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	// The initial exchange has no prior refresh token to fall back on.
	_, err := testExchanger(server.URL).ExchangeCode(context.Background(), "ABC123", "v")
	if err == nil {
		t.Fatal("ExchangeCode() succeeded without refresh_token, want error")
	}
}

func TestRefresh_TokenRetention(t *testing.T) {
	tests := []struct {
		name                 string
		responseRefreshToken string // empty means the provider omits it
		expectedRefreshToken string
	}{
		{"provider rotates the refresh token", "rotated-refresh-token", "rotated-refresh-token"},
		{"provider omits the refresh token", "", "old-refresh-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Fatalf("Failed to parse form: %v", err)
				}
				if r.FormValue("grant_type") != "refresh_token" {
					t.Errorf("grant_type = %s, want refresh_token", r.FormValue("grant_type"))
				}
				if r.FormValue("refresh_token") != "old-refresh-token" {
					t.Errorf("refresh_token = %s, want old-refresh-token", r.FormValue("refresh_token"))
				}

				response := map[string]interface{}{
					"access_token": "new-access-token",
					"expires_in":   3600,
				}
				if tt.responseRefreshToken != "" {
					response["refresh_token"] = tt.responseRefreshToken
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(response)
			}))
			defer server.Close()

			cred, err := testExchanger(server.URL).Refresh(context.Background(), "old-refresh-token")
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if cred.RefreshToken != tt.expectedRefreshToken {
				t.Errorf("RefreshToken = %s, want %s", cred.RefreshToken, tt.expectedRefreshToken)
			}
		})
	}
}

func TestExchanger_APIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
	}))
	defer server.Close()

	_, err := testExchanger(server.URL).ExchangeCode(context.Background(), "stale-code", "v")

	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		t.Fatalf("ExchangeCode() error = %v, want *oauth2.RetrieveError", err)
	}
	if retrieveErr.Response.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", retrieveErr.Response.StatusCode)
	}
	if !strings.Contains(string(retrieveErr.Body), "invalid_grant") {
		t.Errorf("Body = %s, want the provider body verbatim", retrieveErr.Body)
	}
}

func TestExchanger_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", "definitely not json"},
		{"missing access token", `{"refresh_token":"r","expires_in":3600}`},
		{"zero expires_in", `{"access_token":"a","refresh_token":"r","expires_in":0}`},
		{"negative expires_in", `{"access_token":"a","refresh_token":"r","expires_in":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			if _, err := testExchanger(server.URL).Refresh(context.Background(), "r"); err == nil {
				t.Errorf("Refresh() succeeded on %s, want error", tt.name)
			}
		})
	}
}

func TestExchanger_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	_, err := testExchanger(server.URL).Refresh(context.Background(), "r")
	if err == nil {
		t.Fatal("Refresh() against a closed server succeeded, want transport error")
	}
}
