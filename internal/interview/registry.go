package interview

import (
	"errors"
	"sync"

	"github.com/spigell/interview-conductor/internal/ai"
	"github.com/spigell/interview-conductor/internal/logger"

	"go.uber.org/zap"
)

// ErrRegistryClosed is returned when a turn arrives after shutdown started.
var ErrRegistryClosed = errors.New("session registry is closed")

// Registry owns every live interview session. Sessions are created lazily on
// the first turn for an id and live until deleted or the process exits.
type Registry struct {
	provider ai.Provider
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewRegistry(provider ai.Provider, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		provider: provider,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate resolves the session for the given id, creating it with the
// supplied job title and description on first use. Title and description
// resupplied for an existing session are ignored: the role context is fixed
// at creation.
func (r *Registry) GetOrCreate(id, jobTitle, jobDescription string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	if existing, ok := r.sessions[id]; ok {
		if existing.jobTitle != jobTitle || existing.jobDescription != jobDescription {
			r.logger.Warn("ignoring resupplied job parameters for existing session",
				logger.SessionField(id),
				zap.String("job_title", existing.jobTitle),
			)
		}
		return existing, nil
	}

	session := newSession(id, jobTitle, jobDescription, r.provider)
	r.sessions[id] = session

	r.logger.Info("interview session created",
		logger.SessionField(id),
		zap.String("job_title", jobTitle),
	)

	return session, nil
}

// Exists reports whether a session with the given id is currently live.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[id]
	return ok
}

// Delete removes the session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}

	delete(r.sessions, id)
	r.logger.Info("interview session deleted", logger.SessionField(id))

	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Close drops all sessions and refuses further creation. Turns already in
// flight finish against their own session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.sessions = make(map[string]*Session)
}
