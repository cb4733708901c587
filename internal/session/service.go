package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gallery"
	"github.com/radif/imagehub/internal/manager"
	"github.com/radif/imagehub/internal/upload"
)

// Defaults are applied to every session the Service creates.
type Defaults struct {
	Container        string
	Policy           upload.Policy
	MaxFiles         int
	MaxImages        int
	RefreshInterval  time.Duration
	ProgressInterval time.Duration
}

// Service creates sessions and routes operations to their compositions.
type Service struct {
	reg      *Registry
	backend  manager.Backend
	defaults Defaults
	log      *slog.Logger
}

// NewService creates a Service.
func NewService(reg *Registry, backend manager.Backend, defaults Defaults, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{reg: reg, backend: backend, defaults: defaults, log: log}
}

// Create opens a session of kind over container, or over the default
// container when it is empty. Sessions with a gallery load it immediately and
// poll it when a refresh interval is configured.
func (s *Service) Create(ctx context.Context, kind Kind, container string) (*Session, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if container == "" {
		container = s.defaults.Container
	}
	opts := manager.Options{
		Container:        container,
		Policy:           s.defaults.Policy,
		MaxFiles:         s.defaults.MaxFiles,
		MaxImages:        s.defaults.MaxImages,
		Selectable:       true,
		ProgressInterval: s.defaults.ProgressInterval,
		Logger:           s.log,
	}

	sess := &Session{Kind: kind, Container: container, CreatedAt: time.Now().UTC()}
	log := s.log.With("kind", kind, "container", container)
	switch kind {
	case KindManager:
		sess.Manager = manager.NewManager(s.backend, opts, func(ctx context.Context, url string) {
			log.InfoContext(ctx, "image selected", "url", url)
		})
	case KindForm:
		sess.Form = manager.NewSingleForm(s.backend, opts, func(ctx context.Context, url string) {
			log.InfoContext(ctx, "form submitted", "url", url)
		})
	case KindBatch:
		sess.Batch = manager.NewBatchForm(s.backend, opts, func(ctx context.Context, urls []string) {
			log.InfoContext(ctx, "batch submitted", "count", len(urls))
		})
	}
	if g := sess.Gallery(); g != nil {
		if s.defaults.RefreshInterval > 0 {
			pollCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
			sess.stop = stop
			go g.Run(pollCtx, s.defaults.RefreshInterval)
		} else if err := g.Refresh(ctx); err != nil {
			log.WarnContext(ctx, "initial gallery load failed", "error", err)
		}
	}

	s.reg.Add(sess)
	log.InfoContext(ctx, "session created", "session_id", sess.ID)
	return sess, nil
}

// Get returns a live session.
func (s *Service) Get(id string) (*Session, error) {
	sess, ok := s.reg.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Close ends a session and stops its poller.
func (s *Service) Close(id string) error {
	if !s.reg.Remove(id) {
		return ErrNotFound
	}
	return nil
}

// SelectFiles hands files to the session's widget. Manager and form sessions
// take exactly one file; a manager uploads it straight away.
func (s *Service) SelectFiles(ctx context.Context, id string, files []filex.File) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return sess, ErrNoFiles
	}
	switch sess.Kind {
	case KindManager:
		if len(files) != 1 {
			return sess, ErrOneFile
		}
		return sess, sess.Manager.Upload.Select(ctx, files[0])
	case KindForm:
		if len(files) != 1 {
			return sess, ErrOneFile
		}
		return sess, sess.Form.Widget.Select(ctx, files[0])
	default:
		_, err := sess.Batch.Widget.Select(ctx, files)
		return sess, err
	}
}

// RemoveFile drops a pending file from a batch session.
func (s *Service) RemoveFile(ctx context.Context, id, fileID string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Kind != KindBatch {
		return sess, ErrUnsupported
	}
	if !sess.Batch.Widget.Remove(ctx, fileID) {
		return sess, ErrFileNotFound
	}
	return sess, nil
}

// Submit submits a form, or retries the pending upload of a manager.
func (s *Service) Submit(ctx context.Context, id string) (*Session, []string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	switch sess.Kind {
	case KindManager:
		urls, err := sess.Manager.Upload.Controls().Trigger(ctx)
		return sess, urls, err
	case KindForm:
		url, err := sess.Form.Submit(ctx)
		if err != nil {
			return sess, nil, err
		}
		return sess, []string{url}, nil
	default:
		urls, err := sess.Batch.Submit(ctx)
		return sess, urls, err
	}
}

// Reset clears the session's widget and form state.
func (s *Service) Reset(id string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	switch sess.Kind {
	case KindManager:
		sess.Manager.Upload.Reset()
	case KindForm:
		sess.Form.Reset()
	default:
		sess.Batch.Reset()
	}
	return sess, nil
}

// SetView switches a manager session's tab.
func (s *Service) SetView(id string, view manager.View) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Kind != KindManager {
		return sess, ErrUnsupported
	}
	return sess, sess.Manager.SetView(view)
}

// Gallery refreshes and returns the session's gallery.
func (s *Service) Gallery(ctx context.Context, id string) (gallery.Snapshot, error) {
	g, err := s.gallery(id)
	if err != nil {
		return gallery.Snapshot{}, err
	}
	err = g.Refresh(ctx)
	return g.Snapshot(), err
}

// SelectImage marks an existing image as chosen.
func (s *Service) SelectImage(ctx context.Context, id, url string) (*Session, error) {
	g, err := s.gallery(id)
	if err != nil {
		return nil, err
	}
	if err := g.Select(ctx, url); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// DeleteImage deletes url when confirmed is true.
func (s *Service) DeleteImage(ctx context.Context, id, url string, confirmed bool) (gallery.Snapshot, error) {
	g, err := s.gallery(id)
	if err != nil {
		return gallery.Snapshot{}, err
	}
	err = g.Delete(ctx, url, func(string) bool { return confirmed })
	return g.Snapshot(), err
}

func (s *Service) gallery(id string) (*gallery.Browser, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	g := sess.Gallery()
	if g == nil {
		return nil, ErrUnsupported
	}
	return g, nil
}
