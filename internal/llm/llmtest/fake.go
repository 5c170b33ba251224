// Package llmtest provides an in-memory llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"
)

// Call is one recorded Complete invocation.
type Call struct {
	SystemInstruction string
	UserContent       string
}

// Provider returns Reply (or Err) for every call and records what it was asked.
// When Block is set it waits for the context to end and returns its error.
type Provider struct {
	Reply string
	Err   error
	Block bool

	mu    sync.Mutex
	calls []Call
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) Close() error { return nil }

func (p *Provider) Complete(ctx context.Context, systemInstruction, userContent string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{SystemInstruction: systemInstruction, UserContent: userContent})
	p.mu.Unlock()

	if p.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Reply, nil
}

func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}
