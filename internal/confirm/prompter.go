// Package confirm turns yes/no questions asked in a chat into blocking calls.
//
// Ask sends the question and waits; the answer arrives later as a callback
// and is delivered with Resolve. Every chat has a stack of open questions:
// a question asked while another is open is answered first.
package confirm

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotTop = errors.New("confirm: answer to a question that is not the latest one")

// Sender shows the question with yes/no buttons carrying the token.
type Sender func(ctx context.Context, chatID int64, token, text string) error

type pending struct {
	token  string
	text   string
	answer chan bool
}

type Prompter struct {
	send   Sender
	mu     sync.Mutex
	stacks map[int64][]*pending
}

func New(send Sender) *Prompter {
	return &Prompter{send: send, stacks: map[int64][]*pending{}}
}

// Ask blocks until the question is answered or ctx ends; a cancelled
// question counts as "no".
func (p *Prompter) Ask(ctx context.Context, chatID int64, text string) (bool, error) {
	q := &pending{token: uuid.NewString()[:8], text: text, answer: make(chan bool, 1)}

	p.mu.Lock()
	p.stacks[chatID] = append(p.stacks[chatID], q)
	p.mu.Unlock()
	defer p.drop(chatID, q)

	if err := p.send(ctx, chatID, q.token, text); err != nil {
		return false, err
	}
	select {
	case ok := <-q.answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *Prompter) drop(chatID int64, q *pending) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stack := p.stacks[chatID]
	for i := range stack {
		if stack[i] == q {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(p.stacks, chatID)
		return
	}
	p.stacks[chatID] = stack
}

// Resolve delivers an answer. Only the newest open question of the chat can
// be answered; a stale token reports false.
func (p *Prompter) Resolve(chatID int64, token string, ok bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stack := p.stacks[chatID]
	if len(stack) == 0 {
		return false, nil
	}
	top := stack[len(stack)-1]
	if top.token != token {
		for _, q := range stack {
			if q.token == token {
				return false, ErrNotTop
			}
		}
		return false, nil
	}
	select {
	case top.answer <- ok:
	default:
	}
	return true, nil
}

// Open returns the texts of the open questions, oldest first.
func (p *Prompter) Open(chatID int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.stacks[chatID]))
	for _, q := range p.stacks[chatID] {
		out = append(out, q.text)
	}
	return out
}

// CancelAll answers every open question of the chat with "no".
func (p *Prompter) CancelAll(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, q := range p.stacks[chatID] {
		select {
		case q.answer <- false:
		default:
		}
	}
}
