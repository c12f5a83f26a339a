package mocks

import "sync"

type Scope struct {
	Name string

	mu     sync.Mutex
	errs   []error
	events []string
	attrs  map[string]any
	ended  bool
}

func NewScope(name string) *Scope {
	return &Scope{Name: name, attrs: map[string]any{}}
}

func (s *Scope) End() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

func (s *Scope) TraceError(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *Scope) TraceIfError(err error) {
	s.TraceError(err)
}

func (s *Scope) AddEvent(name string) {
	s.mu.Lock()
	s.events = append(s.events, name)
	s.mu.Unlock()
}

func (s *Scope) SetAttribute(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

func (s *Scope) SetAttributes(attributes map[string]any) {
	for key, value := range attributes {
		s.SetAttribute(key, value)
	}
}

func (s *Scope) TraceID() string {
	return ""
}

func (s *Scope) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]error(nil), s.errs...)
}

func (s *Scope) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ended
}
