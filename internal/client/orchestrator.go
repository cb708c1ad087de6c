package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spigell/interview-conductor/internal/interview"

	"github.com/google/uuid"
)

// Phase is the client-side interview lifecycle.
type Phase int

const (
	PhaseModeSelection Phase = iota
	PhaseLoading
	PhaseInProgress
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseModeSelection:
		return "mode-selection"
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in-progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Mode is how the candidate supplies answers. It is a display and input
// policy concern only; the server behaves the same in every mode.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
	ModeBoth  Mode = "both"
)

// EmptyAnswerPolicy decides whether a submit with no answer text is allowed.
// Voice capture can legitimately produce an empty transcript, so the default
// permits empty submissions in voice-only mode and rejects them elsewhere.
type EmptyAnswerPolicy int

const (
	EmptyAnswerVoiceOnly EmptyAnswerPolicy = iota
	EmptyAnswerAllowed
	EmptyAnswerRejected
)

// HistoryEntry is one asked question with everything learned about it so far.
// Answer, Feedback and ImprovedAnswer stay empty until the next turn resolves
// and back-fills them.
type HistoryEntry struct {
	Question       string
	Answer         string
	Feedback       string
	ImprovedAnswer string
}

var (
	// ErrSubmitInFlight means a previous submission has not resolved yet.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrEmptyAnswer means the answer text is required in the current mode.
	ErrEmptyAnswer = errors.New("answer text is required")
	// ErrWrongPhase means the requested action does not fit the current phase.
	ErrWrongPhase = errors.New("action not allowed in current phase")
)

// TurnSender is the server-side collaborator the orchestrator talks to.
type TurnSender interface {
	Ask(ctx context.Context, turn interview.TurnRequest) (*interview.TurnResponse, error)
}

// Orchestrator tracks the visible conversation of one interview: question
// history, phase, mode and the submission lifecycle. It folds every structured
// reply into UI-consumable state.
type Orchestrator struct {
	sender         TurnSender
	jobTitle       string
	jobDescription string
	policy         EmptyAnswerPolicy

	mu         sync.Mutex
	sessionID  string
	mode       Mode
	phase      Phase
	history    []HistoryEntry
	submitting bool
}

func NewOrchestrator(sender TurnSender, jobTitle, jobDescription string, policy EmptyAnswerPolicy) *Orchestrator {
	return &Orchestrator{
		sender:         sender,
		jobTitle:       jobTitle,
		jobDescription: jobDescription,
		policy:         policy,
		sessionID:      uuid.NewString(),
		mode:           ModeText,
		phase:          PhaseModeSelection,
	}
}

// Start opens the interview: it issues the first turn with an empty answer
// and pushes the returned opening question as history entry 0.
func (o *Orchestrator) Start(ctx context.Context, mode Mode) error {
	o.mu.Lock()
	if o.phase != PhaseModeSelection {
		o.mu.Unlock()
		return fmt.Errorf("start: %w (phase %s)", ErrWrongPhase, o.phase)
	}
	if o.submitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}
	o.submitting = true
	o.mode = mode
	o.phase = PhaseLoading
	req := o.turnRequest("", true)
	o.mu.Unlock()

	resp, err := o.sender.Ask(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitting = false

	if err != nil {
		o.phase = PhaseModeSelection
		return fmt.Errorf("start interview: %w", err)
	}

	o.phase = PhaseInProgress
	o.history = append(o.history, HistoryEntry{Question: questionOrRaw(resp)})

	return nil
}

// Submit sends the candidate's answer for the most recent question. On
// success the just-answered history entry is back-filled with the answer,
// feedback and improved answer, and either a new entry is appended for the
// next question or the interview completes.
func (o *Orchestrator) Submit(ctx context.Context, answer string) error {
	o.mu.Lock()
	if o.phase != PhaseInProgress {
		o.mu.Unlock()
		return fmt.Errorf("submit: %w (phase %s)", ErrWrongPhase, o.phase)
	}
	if o.submitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}
	if strings.TrimSpace(answer) == "" && !o.allowEmptyLocked() {
		o.mu.Unlock()
		return ErrEmptyAnswer
	}
	o.submitting = true
	req := o.turnRequest(answer, false)
	o.mu.Unlock()

	resp, err := o.sender.Ask(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitting = false

	if err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}

	// Feedback always belongs to the entry whose answer produced it.
	last := len(o.history) - 1
	o.history[last].Answer = answer
	o.history[last].Feedback = deref(resp.Feedback)
	o.history[last].ImprovedAnswer = deref(resp.ImprovedAnswer)

	if resp.NextQuestion == nil {
		o.phase = PhaseCompleted
		return nil
	}

	o.history = append(o.history, HistoryEntry{Question: *resp.NextQuestion})

	return nil
}

// Complete force-finishes the interview regardless of question count.
func (o *Orchestrator) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.phase = PhaseCompleted
}

// Restart transitions back to mode selection with a fresh session identity
// and empty history. The old server-side session is the caller's to delete.
func (o *Orchestrator) Restart() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	previous := o.sessionID
	o.sessionID = uuid.NewString()
	o.history = nil
	o.phase = PhaseModeSelection
	o.submitting = false

	return previous
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.phase
}

func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.mode
}

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.sessionID
}

func (o *Orchestrator) JobTitle() string {
	return o.jobTitle
}

// Submitting reports whether a turn is currently in flight.
func (o *Orchestrator) Submitting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.submitting
}

// History returns a copy of the question history.
func (o *Orchestrator) History() []HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]HistoryEntry(nil), o.history...)
}

// CurrentQuestion returns the latest unanswered question, or "" outside an
// active interview.
func (o *Orchestrator) CurrentQuestion() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseInProgress || len(o.history) == 0 {
		return ""
	}

	return o.history[len(o.history)-1].Question
}

func (o *Orchestrator) turnRequest(answer string, first bool) interview.TurnRequest {
	return interview.TurnRequest{
		SessionID:       o.sessionID,
		JobTitle:        o.jobTitle,
		JobDescription:  o.jobDescription,
		UserAnswer:      answer,
		IsFirstQuestion: first,
	}
}

func (o *Orchestrator) allowEmptyLocked() bool {
	switch o.policy {
	case EmptyAnswerAllowed:
		return true
	case EmptyAnswerRejected:
		return false
	default:
		return o.mode == ModeVoice
	}
}

// questionOrRaw degrades to the unparsed reply when the opening question did
// not match any known pattern, instead of failing the interview.
func questionOrRaw(resp *interview.TurnResponse) string {
	if resp.NextQuestion != nil && strings.TrimSpace(*resp.NextQuestion) != "" {
		return *resp.NextQuestion
	}

	return strings.TrimSpace(resp.RawResponse)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
