package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// successPage is served to the user's browser on every callback, whatever
// the outcome, so the tab can be closed cleanly.
const successPage = "Authorization successful! You can close this window."

// callbackResult is whatever one inbound redirect delivered.
type callbackResult struct {
	code string
	err  error
}

// listener is a short-lived local HTTP server that captures exactly one
// authorization redirect. It is the only component in this package that
// opens a network-facing socket; the socket exists only between newListener
// and Close.
type listener struct {
	ln      net.Listener
	srv     *http.Server
	once    sync.Once
	results chan callbackResult
}

// newListener binds addr immediately so a port conflict is reported before
// the browser opens. path and state must match the values sent in the
// authorization request; a callback whose state does not match is rejected.
func newListener(addr, path, state string) (*listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", addr, err)
	}

	l := &listener{
		ln:      ln,
		results: make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		// The browser always gets a closing page, even on rejection.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, successPage)

		q := r.URL.Query()
		l.once.Do(func() {
			switch {
			case q.Get("error") != "":
				l.results <- callbackResult{err: &CallbackError{Reason: q.Get("error")}}
			case q.Get("code") == "":
				l.results <- callbackResult{err: &CallbackError{Reason: "no code in callback"}}
			case state != "" && q.Get("state") != state:
				l.results <- callbackResult{err: &CallbackError{Reason: "state mismatch"}}
			default:
				l.results <- callbackResult{code: q.Get("code")}
			}
		})
	})

	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.once.Do(func() {
				l.results <- callbackResult{err: fmt.Errorf("callback listener failed: %w", err)}
			})
		}
	}()

	return l, nil
}

// Wait blocks until one redirect has been captured or ctx expires. Only the
// first redirect counts; the listener is single-use.
func (l *listener) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-l.results:
		return res.code, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrCallbackTimeout
		}
		return "", ctx.Err()
	}
}

// Close tears the socket down so the port is released immediately after the
// single accept.
func (l *listener) Close() error {
	return l.srv.Close()
}

// Addr is the address the listener actually bound, useful when addr
// requested an ephemeral port.
func (l *listener) Addr() string {
	return l.ln.Addr().String()
}
