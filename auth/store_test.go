package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))

	want := Credential{
		AccessToken:  "access-token-123456",
		RefreshToken: "refresh-token-123456",
		ExpiresAt:    1_900_000_000,
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "tokens.json")
	store := NewStore(path)

	cred := Credential{AccessToken: "a-token", RefreshToken: "r-token", ExpiresAt: 1}
	if err := store.Save(cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("token file was not created: %v", err)
	}
}

func TestStore_SaveLeavesNoDebris(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewStore(path)

	cred := Credential{AccessToken: "a-token", RefreshToken: "r-token", ExpiresAt: 1}
	if err := store.Save(cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after save")
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file still exists after save")
	}
}

func TestStore_SaveOverwritesInPlace(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))

	first := Credential{AccessToken: "old-access", RefreshToken: "old-refresh", ExpiresAt: 100}
	if err := store.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := Credential{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: 200}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != second {
		t.Errorf("Load() = %+v, want %+v", got, second)
	}
}

func TestStore_LoadFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string // empty means no file at all
	}{
		{"missing file", ""},
		{"not JSON", "this is not json"},
		{"wrong shape", `[1, 2, 3]`},
		{"missing access token", `{"refresh_token":"r","expires_at":100}`},
		{"missing refresh token", `{"access_token":"a","expires_at":100}`},
		{"zero expiry", `{"access_token":"a","refresh_token":"r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tokens.json")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
					t.Fatalf("failed to write fixture: %v", err)
				}
			}

			if _, err := NewStore(path).Load(); err == nil {
				t.Errorf("Load() succeeded, want error")
			}
		})
	}
}
