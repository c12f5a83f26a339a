package mocks

import (
	"context"
	"sync"
	"venue/infras/otel"
)

// Otel is an in-memory otel.Otel. It records the spans it opens so tests can
// check what was traced.
type Otel struct {
	mu     sync.Mutex
	scopes []*Scope
}

func NewOtel() *Otel {
	return &Otel{}
}

func (o *Otel) NewScope(ctx context.Context, _, spanName string) (context.Context, otel.Scope) {
	scope := NewScope(spanName)

	o.mu.Lock()
	o.scopes = append(o.scopes, scope)
	o.mu.Unlock()

	return ctx, scope
}

// SpanNames lists opened spans in order.
func (o *Otel) SpanNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := make([]string, 0, len(o.scopes))
	for _, scope := range o.scopes {
		names = append(names, scope.Name)
	}

	return names
}

// Errors collects every error traced on any span.
func (o *Otel) Errors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	for _, scope := range o.scopes {
		errs = append(errs, scope.Errors()...)
	}

	return errs
}
