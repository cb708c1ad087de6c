package ai

import (
	"context"
)

const (
	// RoleUser marks a message written by the interviewed candidate.
	RoleUser = "user"
	// RoleModel marks a message produced by the generative model.
	RoleModel = "model"
)

// Message is a single role-tagged entry in a conversational context.
type Message struct {
	Role string
	Text string
}

// Provider turns an ordered conversational context plus a new message into a
// free-form text reply. The reply's exact phrasing is untrusted; callers parse
// it defensively.
type Provider interface {
	Converse(ctx context.Context, system string, history []Message, message string) (string, error)
}
