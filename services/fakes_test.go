package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
)

// hashEmbedder maps words into a fixed number of buckets so texts that share
// words land close together.
type hashEmbedder struct {
	dims int
	err  error

	mu    sync.Mutex
	calls int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 64}
}

func (h *hashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	if h.dims == 0 {
		return v
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:"'?!()`)
		if w == "" {
			continue
		}
		f := fnv.New32a()
		f.Write([]byte(w))
		v[int(f.Sum32())%h.dims]++
	}
	return v
}

func (h *hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return h.vector(text), nil
}

// shortEmbedder returns one vector fewer than requested.
type shortEmbedder struct{ hashEmbedder }

func (s *shortEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := s.hashEmbedder.EmbedDocuments(ctx, texts)
	if err != nil || len(out) == 0 {
		return out, err
	}
	return out[:len(out)-1], nil
}

// fakeChatModel records prompts and replies with a canned answer.
type fakeChatModel struct {
	reply func(system, user string) string
	err   error

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (f *fakeChatModel) Chat(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	if f.reply == nil {
		return "ok", nil
	}
	return f.reply(system, user), nil
}

func (f *fakeChatModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errUnreachable = errors.New("connection refused")
