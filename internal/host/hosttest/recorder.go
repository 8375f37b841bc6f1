// Package hosttest provides a recording host.Bridge for tests.
package hosttest

import (
	"context"
	"sync"

	"github.com/Spok95/smeta-bot/internal/host"
)

type Recorder struct {
	mu         sync.Mutex
	Answers    []bool // consumed in order by Confirm; false when exhausted
	Prompts    []string
	Alerts     []string
	Haptics    []host.Haptic
	Sent       []string
	SendErr    error
	ConfirmErr error
}

func (r *Recorder) Ready(context.Context)  {}
func (r *Recorder) Expand(context.Context) {}

func (r *Recorder) Haptic(_ context.Context, kind host.Haptic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Haptics = append(r.Haptics, kind)
}

func (r *Recorder) Alert(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, text)
}

func (r *Recorder) Confirm(_ context.Context, text string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Prompts = append(r.Prompts, text)
	if r.ConfirmErr != nil {
		return false, r.ConfirmErr
	}
	if len(r.Answers) == 0 {
		return false, nil
	}
	ok := r.Answers[0]
	r.Answers = r.Answers[1:]
	return ok, nil
}

func (r *Recorder) SendData(_ context.Context, data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return r.SendErr
	}
	r.Sent = append(r.Sent, data)
	return nil
}
