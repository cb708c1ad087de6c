package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spigell/interview-conductor/internal/interview"
)

func strPtr(s string) *string {
	return &s
}

type stubSender struct {
	mu        sync.Mutex
	responses []*interview.TurnResponse
	err       error
	requests  []interview.TurnRequest
}

func (s *stubSender) Ask(_ context.Context, turn interview.TurnRequest) (*interview.TurnResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, turn)

	if s.err != nil {
		return nil, s.err
	}

	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}

	return resp, nil
}

type blockingSender struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSender) Ask(_ context.Context, _ interview.TurnRequest) (*interview.TurnResponse, error) {
	b.entered <- struct{}{}
	<-b.release
	return &interview.TurnResponse{NextQuestion: strPtr("next?")}, nil
}

func firstQuestionResponse(q string) *interview.TurnResponse {
	return &interview.TurnResponse{
		NextQuestion:    strPtr(q),
		IsFirstQuestion: true,
		RawResponse:     q,
	}
}

func TestOrchestratorStart(t *testing.T) {
	sender := &stubSender{responses: []*interview.TurnResponse{
		firstQuestionResponse("Tell me about yourself."),
	}}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if orch.Phase() != PhaseModeSelection {
		t.Fatalf("expected mode-selection phase, got %s", orch.Phase())
	}

	if err := orch.Start(context.Background(), ModeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if orch.Phase() != PhaseInProgress {
		t.Fatalf("expected in-progress phase, got %s", orch.Phase())
	}

	history := orch.History()
	if len(history) != 1 || history[0].Question != "Tell me about yourself." {
		t.Fatalf("expected opening question as entry 0, got %+v", history)
	}

	req := sender.requests[0]
	if !req.IsFirstQuestion || req.UserAnswer != "" {
		t.Fatalf("first turn must be flagged and empty, got %+v", req)
	}
	if req.SessionID != orch.SessionID() {
		t.Fatalf("turn must carry the orchestrator session id")
	}
}

func TestOrchestratorStartFailureReturnsToModeSelection(t *testing.T) {
	sender := &stubSender{err: errors.New("server down")}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if err := orch.Start(context.Background(), ModeText); err == nil {
		t.Fatal("expected error")
	}

	if orch.Phase() != PhaseModeSelection {
		t.Fatalf("failed start must return to mode selection, got %s", orch.Phase())
	}

	if len(orch.History()) != 0 {
		t.Fatal("failed start must not record history")
	}
}

func TestOrchestratorSubmitBackfillsHistory(t *testing.T) {
	sender := &stubSender{responses: []*interview.TurnResponse{
		firstQuestionResponse("Question one?"),
		{
			Feedback:       strPtr("Clear and specific."),
			ImprovedAnswer: strPtr("Add numbers."),
			NextQuestion:   strPtr("Question two?"),
		},
	}}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if err := orch.Start(context.Background(), ModeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	answer := "I used a hash map for O(1) lookups"
	if err := orch.Submit(context.Background(), answer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := orch.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	// Entry 0 is back-filled with the answer that produced the feedback.
	if history[0].Answer != answer {
		t.Fatalf("entry 0 answer not back-filled: %+v", history[0])
	}
	if history[0].Feedback != "Clear and specific." {
		t.Fatalf("entry 0 feedback not back-filled: %+v", history[0])
	}
	if history[0].ImprovedAnswer != "Add numbers." {
		t.Fatalf("entry 0 improved answer not back-filled: %+v", history[0])
	}

	// Entry 1 is the fresh question, not yet answered.
	if history[1].Question != "Question two?" || history[1].Answer != "" || history[1].Feedback != "" {
		t.Fatalf("unexpected entry 1: %+v", history[1])
	}
}

func TestOrchestratorCompletesWhenNoNextQuestion(t *testing.T) {
	sender := &stubSender{responses: []*interview.TurnResponse{
		firstQuestionResponse("Only question?"),
		{Feedback: strPtr("Good closing answer.")},
	}}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if err := orch.Start(context.Background(), ModeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := orch.Submit(context.Background(), "final answer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if orch.Phase() != PhaseCompleted {
		t.Fatalf("expected completed phase, got %s", orch.Phase())
	}

	if len(orch.History()) != 1 {
		t.Fatalf("no new entry should be appended without a next question")
	}
}

func TestOrchestratorEmptyAnswerPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    Mode
		policy  EmptyAnswerPolicy
		allowed bool
	}{
		{name: "text mode rejects empty by default", mode: ModeText, policy: EmptyAnswerVoiceOnly, allowed: false},
		{name: "mixed mode rejects empty by default", mode: ModeBoth, policy: EmptyAnswerVoiceOnly, allowed: false},
		{name: "voice mode allows empty by default", mode: ModeVoice, policy: EmptyAnswerVoiceOnly, allowed: true},
		{name: "always policy allows empty in text mode", mode: ModeText, policy: EmptyAnswerAllowed, allowed: true},
		{name: "never policy rejects empty in voice mode", mode: ModeVoice, policy: EmptyAnswerRejected, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &stubSender{responses: []*interview.TurnResponse{
				firstQuestionResponse("Q?"),
				{NextQuestion: strPtr("Next?")},
			}}
			orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", tt.policy)

			if err := orch.Start(context.Background(), tt.mode); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err := orch.Submit(context.Background(), "   ")
			if tt.allowed && err != nil {
				t.Fatalf("expected empty submit to pass, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, ErrEmptyAnswer) {
				t.Fatalf("expected ErrEmptyAnswer, got %v", err)
			}
		})
	}
}

func TestOrchestratorRejectsOverlappingSubmits(t *testing.T) {
	sender := &blockingSender{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	started := make(chan error, 1)
	go func() {
		started <- orch.Start(context.Background(), ModeText)
	}()

	<-sender.entered

	if err := orch.Submit(context.Background(), "too early"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase while loading, got %v", err)
	}

	close(sender.release)
	if err := <-started; err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Now hold a submit in flight and try another one.
	sender.entered = make(chan struct{}, 1)
	sender.release = make(chan struct{})

	submitted := make(chan error, 1)
	go func() {
		submitted <- orch.Submit(context.Background(), "first answer")
	}()

	<-sender.entered

	if err := orch.Submit(context.Background(), "second answer"); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(sender.release)
	if err := <-submitted; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
}

func TestOrchestratorCompleteAndRestart(t *testing.T) {
	sender := &stubSender{responses: []*interview.TurnResponse{
		firstQuestionResponse("Q?"),
	}}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if err := orch.Start(context.Background(), ModeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Manual completion works regardless of question count.
	orch.Complete()
	if orch.Phase() != PhaseCompleted {
		t.Fatalf("expected completed phase, got %s", orch.Phase())
	}

	previousID := orch.SessionID()
	returned := orch.Restart()

	if returned != previousID {
		t.Fatalf("restart must return the abandoned session id")
	}

	if orch.SessionID() == previousID {
		t.Fatal("restart must generate a fresh session id")
	}

	if orch.Phase() != PhaseModeSelection || len(orch.History()) != 0 {
		t.Fatalf("restart must reset phase and history, got %s with %d entries", orch.Phase(), len(orch.History()))
	}
}

func TestOrchestratorDegradesToRawOpeningReply(t *testing.T) {
	sender := &stubSender{responses: []*interview.TurnResponse{
		{RawResponse: "The model ignored the format entirely."},
	}}
	orch := NewOrchestrator(sender, "Backend Engineer", "Builds APIs", EmptyAnswerVoiceOnly)

	if err := orch.Start(context.Background(), ModeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := orch.History()
	if len(history) != 1 || history[0].Question != "The model ignored the format entirely." {
		t.Fatalf("expected raw reply as question, got %+v", history)
	}
}
