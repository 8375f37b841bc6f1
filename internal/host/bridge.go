// Package host describes what the ledger needs from the surface it runs in:
// the Telegram chat, or the mini-app via the HTTP API.
package host

import "context"

type Haptic string

const (
	HapticSuccess Haptic = "success"
	HapticWarning Haptic = "warning"
	HapticError   Haptic = "error"
)

// Bridge is the host capability set. Alert and Haptic are fire-and-forget;
// Confirm blocks until the user answers or ctx is done.
type Bridge interface {
	Ready(ctx context.Context)
	Expand(ctx context.Context)
	Haptic(ctx context.Context, kind Haptic)
	Alert(ctx context.Context, text string)
	Confirm(ctx context.Context, text string) (bool, error)
	SendData(ctx context.Context, data string) error
}

// Nop ignores feedback and answers every confirmation with Answer.
type Nop struct{ Answer bool }

func (Nop) Ready(context.Context)                           {}
func (Nop) Expand(context.Context)                          {}
func (Nop) Haptic(context.Context, Haptic)                  {}
func (Nop) Alert(context.Context, string)                   {}
func (n Nop) Confirm(context.Context, string) (bool, error) { return n.Answer, nil }
func (Nop) SendData(context.Context, string) error          { return nil }
