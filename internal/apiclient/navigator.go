package apiclient

import (
	"context"
	"sync/atomic"
)

// Navigator sends the user to the login flow after the session ended.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context) { f(ctx) }

// LoginPrompt invokes Notify on the first redirect only. Further redirects are ignored
// until Reset, which callers invoke once the user has logged in again.
type LoginPrompt struct {
	Notify func(ctx context.Context)

	atLogin atomic.Bool
}

// Compile-time check that LoginPrompt implements Navigator.
var _ Navigator = (*LoginPrompt)(nil)

func (p *LoginPrompt) RedirectToLogin(ctx context.Context) {
	if !p.atLogin.CompareAndSwap(false, true) {
		return
	}
	if p.Notify != nil {
		p.Notify(ctx)
	}
}

// AtLogin reports whether a redirect happened since the last Reset.
func (p *LoginPrompt) AtLogin() bool {
	return p.atLogin.Load()
}

// Reset re-arms the prompt.
func (p *LoginPrompt) Reset() {
	p.atLogin.Store(false)
}
