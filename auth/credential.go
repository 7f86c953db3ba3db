package auth

import "time"

// expirySlackSeconds is subtracted from expires_at when deciding whether a
// stored access token is still usable. It absorbs clock skew and the latency
// of the API calls that will use the token.
const expirySlackSeconds = 60

// Credential is the persisted token state. The JSON field names are a
// compatibility surface: changing them invalidates existing token files.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// StaleAt reports whether the credential needs a refresh at the given time.
// A credential is stale exactly when now >= expires_at - 60s; the boundary
// instant itself counts as stale.
func (c Credential) StaleAt(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt-expirySlackSeconds
}
