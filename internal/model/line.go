package model

import (
	"time"

	"github.com/google/uuid"
)

// BusinessLine is a named set of tracked accounts.
type BusinessLine struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is one tracked account within a business line. The description is
// free-form context handed to the analyzers, never authoritative data.
type Member struct {
	Handle      string `json:"handle"`
	Description string `json:"description,omitempty"`
}

// Handles returns the member handles in declaration order.
func (l BusinessLine) Handles() []string {
	out := make([]string, 0, len(l.Members))
	for _, m := range l.Members {
		out = append(out, m.Handle)
	}
	return out
}

// Descriptions returns handle→description for members that have one.
func (l BusinessLine) Descriptions() map[string]string {
	out := map[string]string{}
	for _, m := range l.Members {
		if m.Description != "" {
			out[m.Handle] = m.Description
		}
	}
	return out
}
