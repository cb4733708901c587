package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
)

var (
	// ErrBusy is returned when an operation needs the widget idle but an upload is running.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrReset is returned to a caller whose upload resolved after the widget was reset.
	ErrReset = errors.New("upload discarded after reset")
)

// Uploader is the gateway operation the widgets depend on.
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName, contentType, container string) gateway.Result
}

// Controls is what a widget hands to its owner so the owner can drive the
// upload without reaching into widget state.
type Controls struct {
	Trigger    func(ctx context.Context) ([]string, error)
	Reset      func()
	HasPending func() bool
}

// State is a Single widget state.
type State int

const (
	Idle State = iota
	Previewing
	Uploading
	Uploaded
	Failed
)

var stateNames = [...]string{"idle", "previewing", "uploading", "uploaded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SingleOptions configures a Single widget.
type SingleOptions struct {
	Container string
	Policy    Policy
	// Auto starts the upload as soon as a valid file is selected. Otherwise
	// the owner calls TriggerUpload, typically on form submit.
	Auto             bool
	ProgressInterval time.Duration

	OnSuccess func(ctx context.Context, url string)
	OnError   func(ctx context.Context, message string)
}

// SingleSnapshot is a point-in-time copy of a Single widget.
type SingleSnapshot struct {
	State    State        `json:"state"`
	Pending  *PendingFile `json:"pending,omitempty"`
	URL      string       `json:"url,omitempty"`
	Progress int          `json:"progress"`
	Error    string       `json:"error,omitempty"`
}

// Single is the one-file upload widget:
// Idle -> Previewing -> Uploading -> Uploaded | Failed, with Reset back to Idle.
type Single struct {
	up   Uploader
	opts SingleOptions
	ids  idGenerator

	mu       sync.Mutex
	state    State
	pending  *PendingFile
	url      string
	progress int
	errMsg   string
	gen      uint64
}

// NewSingle creates an idle widget that uploads through up.
func NewSingle(up Uploader, opts SingleOptions) *Single {
	opts.Policy = opts.Policy.withDefaults()
	return &Single{up: up, opts: opts, ids: idGenerator{now: time.Now}}
}

// Select validates f and, when it passes, makes it the pending file. In auto
// mode the upload runs before Select returns.
func (s *Single) Select(ctx context.Context, f filex.File) error {
	s.mu.Lock()
	if s.state == Uploading {
		s.mu.Unlock()
		return ErrBusy
	}
	// A rejected file leaves the current file or chosen URL in place.
	if err := s.opts.Policy.Validate(f); err != nil {
		s.errMsg = err.Error()
		s.mu.Unlock()
		return err
	}
	s.url = ""
	s.errMsg = ""
	s.progress = 0

	p := newPendingFile(s.ids.next(), f, nil, false)
	s.pending = &p
	s.state = Previewing
	auto := s.opts.Auto
	s.mu.Unlock()

	if auto {
		_, err := s.TriggerUpload(ctx)
		return err
	}
	return nil
}

// SelectExisting picks an already stored image instead of a new file.
func (s *Single) SelectExisting(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Uploading {
		return ErrBusy
	}
	s.pending = nil
	s.url = url
	s.errMsg = ""
	s.progress = 0
	s.state = Idle
	return nil
}

// TriggerUpload uploads the pending file. With nothing pending it returns the
// currently chosen URL, which may be empty. A failed upload keeps the file
// pending so a later call retries it.
func (s *Single) TriggerUpload(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state == Uploading {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if s.pending == nil {
		url := s.url
		s.mu.Unlock()
		return url, nil
	}
	s.state = Uploading
	s.progress = 0
	s.errMsg = ""
	gen := s.gen
	p := *s.pending
	s.mu.Unlock()

	stop := runRamp(ctx, singleRamp, s.opts.ProgressInterval, func(v int) { s.setProgress(gen, v) })
	res := s.up.Upload(ctx, p.data, p.Name, p.ContentType, s.opts.Container)
	stop()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return "", ErrReset
	}
	s.progress = 100
	if res.Success {
		s.state = Uploaded
		s.url = res.URL
		s.pending = nil
		s.mu.Unlock()
		if s.opts.OnSuccess != nil {
			s.opts.OnSuccess(ctx, res.URL)
		}
		return res.URL, nil
	}

	msg := res.Error
	if msg == "" {
		msg = "Upload failed"
	}
	s.state = Failed
	s.errMsg = msg
	s.mu.Unlock()
	if s.opts.OnError != nil {
		s.opts.OnError(ctx, msg)
	}
	return "", &gateway.Error{Kind: res.Kind, Message: msg}
}

// Reset returns to Idle. An upload already in flight is not cancelled; its
// result is discarded when it arrives.
func (s *Single) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Idle
	s.pending = nil
	s.url = ""
	s.errMsg = ""
	s.progress = 0
}

// HasPending reports whether a validated file is waiting to be uploaded.
func (s *Single) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Snapshot returns a copy of the widget state.
func (s *Single) Snapshot() SingleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SingleSnapshot{State: s.state, URL: s.url, Progress: s.progress, Error: s.errMsg}
	if s.pending != nil {
		p := *s.pending
		snap.Pending = &p
	}
	return snap
}

// Controls exposes the widget to its owner.
func (s *Single) Controls() Controls {
	return Controls{
		Trigger: func(ctx context.Context) ([]string, error) {
			url, err := s.TriggerUpload(ctx)
			if err != nil || url == "" {
				return nil, err
			}
			return []string{url}, nil
		},
		Reset:      s.Reset,
		HasPending: s.HasPending,
	}
}

func (s *Single) setProgress(gen uint64, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.state == Uploading {
		s.progress = v
	}
}
