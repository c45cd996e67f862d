// Package mock provides a test double for the vision.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

var _ vision.Provider = (*Provider)(nil)

// DescribeCall records a single invocation of Describe.
type DescribeCall struct {
	Image []byte
}

// Provider is a mock implementation of vision.Provider.
//
// Set the exported fields to control return values. Call records are guarded
// by an internal mutex.
type Provider struct {
	mu sync.Mutex

	// Description is returned by Describe when DescribeErr is nil.
	Description string

	// DescribeErr, if set, is returned by Describe.
	DescribeErr error

	// DescribeFunc, if set, replaces the static Description/DescribeErr.
	DescribeFunc func(ctx context.Context, image []byte) (string, error)

	calls []DescribeCall
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, image []byte) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, DescribeCall{Image: append([]byte(nil), image...)})
	fn, desc, err := p.DescribeFunc, p.Description, p.DescribeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, image)
	}
	if err != nil {
		return "", err
	}
	return desc, nil
}

// Calls returns a copy of all recorded Describe invocations.
func (p *Provider) Calls() []DescribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DescribeCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// Reset clears recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
