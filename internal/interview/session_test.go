package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/interview-conductor/internal/ai"
)

type stubProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	calls    int
	lastCall struct {
		system  string
		history []ai.Message
		message string
	}
}

func (s *stubProvider) Converse(_ context.Context, system string, history []ai.Message, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.lastCall.system = system
	s.lastCall.history = history
	s.lastCall.message = message

	if s.err != nil {
		return "", s.err
	}

	reply := "**Next Interview Question:**\nWhy Go?"
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}

	return reply, nil
}

// blockingProvider parks every call until released, so tests can hold a turn
// in flight.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingProvider) Converse(_ context.Context, _ string, _ []ai.Message, _ string) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return "reply", nil
}

func TestSessionAdvanceGrowsTranscript(t *testing.T) {
	stub := &stubProvider{}
	session := newSession("s1", "Backend Engineer", "Builds APIs", stub)

	if _, err := session.Advance(context.Background(), "", true); err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}

	if got := session.TranscriptLen(); got != 2 {
		t.Fatalf("expected 2 transcript entries after first turn, got %d", got)
	}

	if stub.lastCall.message != startDirective {
		t.Fatalf("first turn must send the start directive, got %q", stub.lastCall.message)
	}

	if !strings.Contains(stub.lastCall.system, "Backend Engineer") {
		t.Fatalf("instructions must carry the job title: %q", stub.lastCall.system)
	}

	if len(stub.lastCall.history) != 0 {
		t.Fatalf("first turn must start with an empty context, got %d entries", len(stub.lastCall.history))
	}

	if _, err := session.Advance(context.Background(), "I used a hash map", false); err != nil {
		t.Fatalf("unexpected error on second turn: %v", err)
	}

	if got := session.TranscriptLen(); got != 4 {
		t.Fatalf("expected 4 transcript entries after second turn, got %d", got)
	}

	if len(stub.lastCall.history) != 2 {
		t.Fatalf("second turn must replay the first exchange, got %d entries", len(stub.lastCall.history))
	}

	if stub.lastCall.history[1].Role != ai.RoleModel {
		t.Fatalf("expected model reply in replayed context, got role %q", stub.lastCall.history[1].Role)
	}
}

func TestSessionFailedTurnLeavesTranscriptUntouched(t *testing.T) {
	stub := &stubProvider{}
	session := newSession("s1", "Backend Engineer", "Builds APIs", stub)

	if _, err := session.Advance(context.Background(), "", true); err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}

	before := session.Transcript()

	stub.err = errors.New("provider down")
	if _, err := session.Advance(context.Background(), "my answer", false); err == nil {
		t.Fatal("expected error from failed provider call")
	}

	after := session.Transcript()
	if len(before) != len(after) {
		t.Fatalf("failed turn mutated the transcript: %d != %d entries", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("failed turn changed entry %d: %+v != %+v", i, before[i], after[i])
		}
	}

	// A retry after the failure works against the original context.
	stub.err = nil
	if _, err := session.Advance(context.Background(), "my answer", false); err != nil {
		t.Fatalf("retry after failure must succeed: %v", err)
	}
}

func TestSessionConcurrentTurnsAreNotInterleaved(t *testing.T) {
	provider := &blockingProvider{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session := newSession("s1", "Backend Engineer", "Builds APIs", provider)

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.Advance(context.Background(), "answer one", false)
		firstDone <- err
	}()

	<-provider.entered

	// Second turn arrives while the first is still in flight.
	if _, err := session.Advance(context.Background(), "answer two", false); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	close(provider.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	if got := session.TranscriptLen(); got != 2 {
		t.Fatalf("exactly one turn must have been applied, got %d entries", got)
	}
}
