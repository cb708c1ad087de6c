package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/interview-conductor/internal/ai"
)

// ErrSessionBusy is returned when a turn arrives while another turn for the
// same session is still in flight.
var ErrSessionBusy = errors.New("session busy")

// Session is the conversational state of one ongoing interview: the system
// instructions plus the ordered log of user/model exchanges. Turns within a
// session are strictly serialized; a concurrent turn fails fast with
// ErrSessionBusy instead of interleaving the transcript.
type Session struct {
	id             string
	jobTitle       string
	jobDescription string
	instructions   string
	provider       ai.Provider
	createdAt      time.Time

	mu         sync.Mutex
	transcript []ai.Message
}

func newSession(id, jobTitle, jobDescription string, provider ai.Provider) *Session {
	return &Session{
		id:             id,
		jobTitle:       jobTitle,
		jobDescription: jobDescription,
		instructions:   buildInstructions(jobTitle, jobDescription),
		provider:       provider,
		createdAt:      time.Now(),
	}
}

// Advance submits one answer (or the opening directive when first is true)
// and returns the model's raw reply. The transcript is appended only after a
// successful provider call, so a failed turn leaves the session exactly as it
// was and the caller can retry.
func (s *Session) Advance(ctx context.Context, answer string, first bool) (string, error) {
	if !s.mu.TryLock() {
		return "", ErrSessionBusy
	}
	defer s.mu.Unlock()

	message := answer
	if first {
		message = startDirective
	}

	// The provider must never see (or mutate) the live transcript slice.
	history := append([]ai.Message(nil), s.transcript...)

	reply, err := s.provider.Converse(ctx, s.instructions, history, message)
	if err != nil {
		return "", fmt.Errorf("interview turn: %w", err)
	}

	s.transcript = append(s.transcript,
		ai.Message{Role: ai.RoleUser, Text: message},
		ai.Message{Role: ai.RoleModel, Text: reply},
	)

	return reply, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) JobTitle() string {
	return s.jobTitle
}

func (s *Session) JobDescription() string {
	return s.jobDescription
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// TranscriptLen returns the number of recorded user/model entries.
func (s *Session) TranscriptLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.transcript)
}

// Transcript returns a copy of the recorded exchanges.
func (s *Session) Transcript() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ai.Message(nil), s.transcript...)
}
