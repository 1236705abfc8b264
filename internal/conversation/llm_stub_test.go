package conversation

import (
	"context"
	"sync"
)

// stubLLM returns canned responses and records requests.
type stubLLM struct {
	mu       sync.Mutex
	resp     LLMResponse
	err      error
	requests []LLMRequest
	// block, when set, holds Complete until closed or ctx ends
	block chan struct{}
}

func (s *stubLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return s.resp, nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
