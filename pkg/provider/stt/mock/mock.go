// Package mock provides a test double for the stt.Provider interface.
//
// Example:
//
//	p := &mock.Provider{Transcript: stt.Transcript{Text: "hello"}}
//	tr, _ := p.Recognize(ctx, stt.Request{Clip: clip})
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lingoxa/pkg/provider/stt"
)

// RecognizeCall records a single invocation of Provider.Recognize.
type RecognizeCall struct {
	// Ctx is the context passed to Recognize.
	Ctx context.Context
	// Req is the request passed to Recognize.
	Req stt.Request
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by Recognize when RecognizeFunc is nil.
	Transcript stt.Transcript

	// RecognizeFunc, if set, computes the result instead of Transcript.
	RecognizeFunc func(ctx context.Context, req stt.Request) (stt.Transcript, error)

	// RecognizeErr, if non-nil, is returned as the error from Recognize.
	RecognizeErr error

	// RecognizeCalls records every call to Recognize.
	RecognizeCalls []RecognizeCall
}

var _ stt.Provider = (*Provider)(nil)

// Recognize records the call and returns Transcript, RecognizeErr.
func (p *Provider) Recognize(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	p.mu.Lock()
	p.RecognizeCalls = append(p.RecognizeCalls, RecognizeCall{Ctx: ctx, Req: req})
	fn, tr, err := p.RecognizeFunc, p.Transcript, p.RecognizeErr
	p.mu.Unlock()

	if err != nil {
		return stt.Transcript{}, err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	return tr, nil
}

// Calls returns a copy of the recorded Recognize calls.
func (p *Provider) Calls() []RecognizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RecognizeCall(nil), p.RecognizeCalls...)
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecognizeCalls = nil
}
