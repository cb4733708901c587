// Package session keeps per-tab upload workspaces on the server: a manager, a
// single-image form or a batch form, each bound to one container.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/radif/imagehub/internal/gallery"
	"github.com/radif/imagehub/internal/manager"
)

// Kind selects which composition a session holds.
type Kind string

const (
	KindManager Kind = "manager"
	KindForm    Kind = "form"
	KindBatch   Kind = "batch"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrUnknownKind  = errors.New("kind must be manager, form or batch")
	ErrUnsupported  = errors.New("operation not supported by this session kind")
	ErrFileNotFound = errors.New("file not found")
	ErrNoFiles      = errors.New("at least one file is required")
	ErrOneFile      = errors.New("exactly one file is allowed")
)

// ParseKind validates a session kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindManager, KindForm, KindBatch:
		return k, nil
	}
	return "", ErrUnknownKind
}

// Session is one workspace. Exactly one of Manager, Form and Batch is set.
type Session struct {
	ID        string
	Kind      Kind
	Container string
	CreatedAt time.Time

	Manager *manager.Manager
	Form    *manager.SingleForm
	Batch   *manager.BatchForm

	closeOnce sync.Once
	stop      context.CancelFunc
}

// View is the JSON shape of a session.
type View struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Container string    `json:"container"`
	CreatedAt time.Time `json:"createdAt"`
	State     any       `json:"state"`
}

// Snapshot returns the session with its composition's current state.
func (s *Session) Snapshot() View {
	v := View{ID: s.ID, Kind: s.Kind, Container: s.Container, CreatedAt: s.CreatedAt}
	switch s.Kind {
	case KindManager:
		v.State = s.Manager.Snapshot()
	case KindForm:
		v.State = s.Form.Snapshot()
	case KindBatch:
		v.State = s.Batch.Snapshot()
	}
	return v
}

// Gallery returns the session's browser, or nil for batch sessions.
func (s *Session) Gallery() *gallery.Browser {
	switch s.Kind {
	case KindManager:
		return s.Manager.Gallery
	case KindForm:
		return s.Form.Gallery
	}
	return nil
}

// close stops the gallery poller. Safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
