package tui

import (
	"fmt"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"
)

// Displayer abstracts all output from the auth flow and stats fetch.
type Displayer interface {
	Banner()
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
	FetchingStats()
	NoListeningData(rangeDesc string)
	Stats(header, body string)
	Fatal(err error)
}

// PlainDisplayer writes plain text output to w.
// Used when stdout is not a TTY (pipes, CI, SSH without pty); progress
// lines go to prog so the stats themselves stay pipeable on w.
type PlainDisplayer struct {
	w    io.Writer
	prog io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes stats to w and
// progress output to prog.
func NewPlainDisplayer(w, prog io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w, prog: prog}
}

func (p *PlainDisplayer) Banner() {
	fmt.Fprintln(p.prog, "=== spotifyfetch ===")
}

func (p *PlainDisplayer) TokensFound() {
	fmt.Fprintln(p.prog, "Found saved session")
}

func (p *PlainDisplayer) TokenValid() {
	fmt.Fprintln(p.prog, "Access token is still valid, using it...")
}

func (p *PlainDisplayer) TokenExpired() {
	fmt.Fprintln(p.prog, "Access token expired, refreshing...")
}

func (p *PlainDisplayer) TokensNotFound() {
	fmt.Fprintln(p.prog, "No saved session found, starting authorization...")
}

func (p *PlainDisplayer) Refreshing() {
	fmt.Fprintln(p.prog, "Refreshing access token...")
}

func (p *PlainDisplayer) RefreshOK() {
	fmt.Fprintln(p.prog, "Token refreshed successfully")
}

func (p *PlainDisplayer) AuthorizeURLReady(url string) {
	fmt.Fprintf(p.prog, "Opening this link in your browser:\n%s\n", url)
}

func (p *PlainDisplayer) BrowserOpenFailed(err error) {
	fmt.Fprintf(p.prog, "Could not open browser (%v), please visit the link above manually\n", err)
}

func (p *PlainDisplayer) WaitingForCallback(deadline time.Time) {
	fmt.Fprintf(
		p.prog,
		"Waiting for authorization (times out at %s)...\n",
		deadline.Format(time.Kitchen),
	)
}

func (p *PlainDisplayer) Exchanging() {
	fmt.Fprintln(p.prog, "Exchanging authorization code for tokens...")
}

func (p *PlainDisplayer) AuthSuccess() {
	fmt.Fprintln(p.prog, "Authorization successful!")
}

func (p *PlainDisplayer) TokenSaved(path string) {
	fmt.Fprintf(p.prog, "Session saved to %s\n", path)
}

func (p *PlainDisplayer) FetchingStats() {
	fmt.Fprintln(p.prog, "Fetching your listening stats...")
}

func (p *PlainDisplayer) NoListeningData(rangeDesc string) {
	fmt.Fprintf(p.w, "No listening data for the most recent %s.\n", rangeDesc)
}

func (p *PlainDisplayer) Stats(header, body string) {
	fmt.Fprintln(p.w, header)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, body)
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.prog, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner()                          {}
func (NoopDisplayer) TokensFound()                     {}
func (NoopDisplayer) TokenValid()                      {}
func (NoopDisplayer) TokenExpired()                    {}
func (NoopDisplayer) TokensNotFound()                  {}
func (NoopDisplayer) Refreshing()                      {}
func (NoopDisplayer) RefreshOK()                       {}
func (NoopDisplayer) AuthorizeURLReady(_ string)       {}
func (NoopDisplayer) BrowserOpenFailed(_ error)        {}
func (NoopDisplayer) WaitingForCallback(_ time.Time)   {}
func (NoopDisplayer) Exchanging()                      {}
func (NoopDisplayer) AuthSuccess()                     {}
func (NoopDisplayer) TokenSaved(_ string)              {}
func (NoopDisplayer) FetchingStats()                   {}
func (NoopDisplayer) NoListeningData(_ string)         {}
func (NoopDisplayer) Stats(_, _ string)                {}
func (NoopDisplayer) Fatal(_ error)                    {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner() {
	t.p.Send(MsgBanner{})
}

func (t *ProgramDisplayer) TokensFound() {
	t.p.Send(MsgTokensFound{})
}

func (t *ProgramDisplayer) TokenValid() {
	t.p.Send(MsgTokenValid{})
}

func (t *ProgramDisplayer) TokenExpired() {
	t.p.Send(MsgTokenExpired{})
}

func (t *ProgramDisplayer) TokensNotFound() {
	t.p.Send(MsgTokensNotFound{})
}

func (t *ProgramDisplayer) Refreshing() {
	t.p.Send(MsgRefreshing{})
}

func (t *ProgramDisplayer) RefreshOK() {
	t.p.Send(MsgRefreshOK{})
}

func (t *ProgramDisplayer) AuthorizeURLReady(url string) {
	t.p.Send(MsgAuthorizeURLReady{URL: url})
}

func (t *ProgramDisplayer) BrowserOpenFailed(err error) {
	t.p.Send(MsgBrowserOpenFailed{Err: err})
}

func (t *ProgramDisplayer) WaitingForCallback(deadline time.Time) {
	t.p.Send(MsgWaitingForCallback{Deadline: deadline})
}

func (t *ProgramDisplayer) Exchanging() {
	t.p.Send(MsgExchanging{})
}

func (t *ProgramDisplayer) AuthSuccess() {
	t.p.Send(MsgAuthSuccess{})
}

func (t *ProgramDisplayer) TokenSaved(path string) {
	t.p.Send(MsgTokenSaved{Path: path})
}

func (t *ProgramDisplayer) FetchingStats() {
	t.p.Send(MsgFetchingStats{})
}

func (t *ProgramDisplayer) NoListeningData(rangeDesc string) {
	t.p.Send(MsgNoListeningData{RangeDesc: rangeDesc})
}

func (t *ProgramDisplayer) Stats(header, body string) {
	t.p.Send(MsgStats{Header: header, Body: body})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
