package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token identifies a pending destructive request until it is confirmed,
// cancelled or expires.
type Token string

// Action is the operation a token stands for.
type Action string

const (
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
)

type pendingAction struct {
	action  Action
	id      int64
	expires time.Time
}

// Pending describes a confirmable request.
type Pending struct {
	Token   Token     `json:"token"`
	Action  Action    `json:"action"`
	ID      int64     `json:"id,omitempty"`
	Expires time.Time `json:"expiresAt"`
}

// RequestDelete registers the intent to delete id. Nothing changes until
// Confirm is called with the returned token.
func (s *Store) RequestDelete(id int64) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.transactions, id) < 0 && indexOf(s.templates, id) < 0 {
		return Pending{}, &NotFoundError{ID: id}
	}
	return s.register(ActionDelete, id), nil
}

// RequestClear registers the intent to wipe the ledger.
func (s *Store) RequestClear() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(ActionClear, 0)
}

// Confirm performs the action behind token. A token is single use.
func (s *Store) Confirm(ctx context.Context, token Token) error {
	s.mu.Lock()
	p, ok := s.take(token)
	s.mu.Unlock()
	if !ok {
		return ErrInvalidToken
	}
	switch p.action {
	case ActionDelete:
		return s.Delete(ctx, p.id)
	default:
		return s.ClearAll(ctx)
	}
}

// Cancel discards a pending request.
func (s *Store) Cancel(token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.take(token); !ok {
		return ErrInvalidToken
	}
	return nil
}

func (s *Store) register(a Action, id int64) Pending {
	now := s.clock.Now()
	for t, p := range s.pending {
		if !now.Before(p.expires) {
			delete(s.pending, t)
		}
	}
	token := Token(uuid.NewString())
	p := pendingAction{action: a, id: id, expires: now.Add(s.tokenTTL)}
	s.pending[token] = p
	return Pending{Token: token, Action: a, ID: id, Expires: p.expires}
}

// take removes and returns a live pending action.
func (s *Store) take(token Token) (pendingAction, bool) {
	p, ok := s.pending[token]
	if !ok {
		return pendingAction{}, false
	}
	delete(s.pending, token)
	if !s.clock.Now().Before(p.expires) {
		return pendingAction{}, false
	}
	return p, true
}
