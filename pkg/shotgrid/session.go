package shotgrid

import (
	"context"
	"errors"
	"sync"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// Session authenticates on first use and keeps the client once a login
// succeeds. A failed login is returned to the caller and retried on the
// next call, so an outage at startup only fails the calls made during it.
type Session struct {
	load func() Credentials

	mu     sync.Mutex
	client *Client
}

// NewSession creates a session that reads credentials through load each
// time it needs to log in.
func NewSession(load func() Credentials) *Session {
	return &Session{load: load}
}

func (s *Session) connect(ctx context.Context) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	// The token source refreshes with this context for the life of the client.
	c, err := New(context.WithoutCancel(ctx), s.load())
	if err != nil {
		kind := model.KindTransient
		if errors.Is(err, model.ErrInsufficientCredentials) {
			kind = model.KindLocalState
		}
		return nil, model.NewError(kind, "connect to shotgrid", err)
	}
	s.client = c
	return c, nil
}

func (s *Session) FindGroups(ctx context.Context, substr string) ([]model.Group, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	return c.FindGroups(ctx, substr)
}

func (s *Session) CreateGroup(ctx context.Context, code string) (model.Group, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return model.Group{}, err
	}
	return c.CreateGroup(ctx, code)
}

func (s *Session) CreateNote(ctx context.Context, n NoteRequest) (model.Note, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return model.Note{}, err
	}
	return c.CreateNote(ctx, n)
}
