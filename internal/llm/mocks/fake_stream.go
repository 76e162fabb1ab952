package mocks

import (
	"io"
	"sync"
)

// FakeStream replays scripted fragments, then ends with Err (io.EOF when nil).
type FakeStream struct {
	Fragments []string
	Err       error

	mu     sync.Mutex
	pos    int
	closed bool
}

func NewFakeStream(fragments ...string) *FakeStream {
	return &FakeStream{Fragments: fragments}
}

// FailAfter makes the stream fail with err once its fragments are exhausted.
func (s *FakeStream) FailAfter(err error) *FakeStream {
	s.Err = err
	return s
}

func (s *FakeStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < len(s.Fragments) {
		f := s.Fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
