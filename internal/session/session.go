// Package session keeps one customer's in-progress selection between
// requests.  A Session is addressed by an opaque id carried inside a signed
// token (see Signer); its state lives in a Store.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is the persisted state of one selection in progress.
type Session struct {
	ID        string            `json:"id"`
	ShowID    uint64            `json:"show_id"`
	Quota     selection.Quota   `json:"quota"`
	Entries   []selection.Entry `json:"entries"`
	CreatedAt time.Time         `json:"created_at"`
}

// New starts an empty session for showID with the given quota.
func New(showID uint64, quota selection.Quota, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ShowID:    showID,
		Quota:     quota,
		CreatedAt: now.UTC(),
	}
}

// Selection rebuilds the live selection from the saved entries.
func (s *Session) Selection(capacity selection.Capacity) (*selection.Selection, error) {
	return selection.Restore(capacity, s.Entries)
}

// Save copies the state of sel back into the session.
func (s *Session) Save(sel *selection.Selection) {
	s.Entries = sel.Entries()
}

func (s *Session) clone() *Session {
	out := *s
	if s.Quota != nil {
		out.Quota = make(selection.Quota, len(s.Quota))
		for k, v := range s.Quota {
			out.Quota[k] = v
		}
	}
	if s.Entries != nil {
		out.Entries = append([]selection.Entry(nil), s.Entries...)
	}
	return &out
}

// Store persists sessions.  Update applies fn atomically with respect to
// other updates of the same session; when fn returns an error nothing is
// written.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}
