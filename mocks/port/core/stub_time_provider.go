package core

import (
	"context"
	"time"
)

// StubTimeProvider pins the clock for tests. Advance moves it forward so a
// test can cross persisted deadlines deterministically.
type StubTimeProvider struct {
	Current time.Time
}

func NewStubTimeProvider(t time.Time) *StubTimeProvider {
	return &StubTimeProvider{Current: t}
}

func (s *StubTimeProvider) Now() time.Time {
	return s.Current
}

func (s *StubTimeProvider) Since(t time.Time) time.Duration {
	return s.Current.Sub(t)
}

func (s *StubTimeProvider) Until(t time.Time) time.Duration {
	return t.Sub(s.Current)
}

func (s *StubTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Advance moves the stub clock forward
func (s *StubTimeProvider) Advance(d time.Duration) {
	s.Current = s.Current.Add(d)
}
