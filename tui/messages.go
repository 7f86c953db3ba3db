package tui

import (
	"time"
)

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{}

// MsgTokensFound signals that a saved session was found on disk.
type MsgTokensFound struct{}

// MsgTokenValid signals that the saved access token is still valid.
type MsgTokenValid struct{}

// MsgTokenExpired signals that the access token has expired.
type MsgTokenExpired struct{}

// MsgTokensNotFound signals that no saved session was found (starting fresh).
type MsgTokensNotFound struct{}

// MsgRefreshing signals that a token refresh is in progress.
type MsgRefreshing struct{}

// MsgRefreshOK signals that the token was refreshed successfully.
type MsgRefreshOK struct{}

// MsgAuthorizeURLReady signals that the authorization URL has been built.
type MsgAuthorizeURLReady struct{ URL string }

// MsgBrowserOpenFailed signals that the browser could not be opened.
// The user can still visit the URL manually.
type MsgBrowserOpenFailed struct{ Err error }

// MsgWaitingForCallback signals that the local listener is waiting for
// the authorization redirect.
type MsgWaitingForCallback struct{ Deadline time.Time }

// MsgExchanging signals that the authorization code is being exchanged
// for tokens.
type MsgExchanging struct{}

// MsgAuthSuccess signals that the user authorized successfully.
type MsgAuthSuccess struct{}

// MsgTokenSaved signals that the session was saved to disk.
type MsgTokenSaved struct{ Path string }

// MsgFetchingStats signals that listening stats are being fetched.
type MsgFetchingStats struct{}

// MsgNoListeningData signals that the account has no listening history
// for the selected time range.
type MsgNoListeningData struct{ RangeDesc string }

// MsgStats carries the final rendered stats view.
type MsgStats struct {
	Header string
	Body   string
}

// MsgFatal signals a fatal error that should terminate the program.
type MsgFatal struct{ Err error }
