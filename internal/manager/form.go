package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/radif/imagehub/internal/gallery"
	"github.com/radif/imagehub/internal/upload"
)

var (
	ErrNoImage    = errors.New("no image selected")
	ErrNoImages   = errors.New("no images selected")
	ErrSubmitting = errors.New("form is already submitting")
)

const (
	msgNoImage       = "Please select an image first"
	msgNoImages      = "Please select at least one image first"
	msgUploadFailed  = "Failed to upload image. Please try again."
	msgUploadsFailed = "Failed to upload images. Please try again."
)

// Message returns the text shown to the user for a form guard error, or
// err.Error() for anything else.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoImage):
		return msgNoImage
	case errors.Is(err, ErrNoImages):
		return msgNoImages
	default:
		return err.Error()
	}
}

// FormSnapshot is the form-level state shown around a widget.
type FormSnapshot struct {
	Submitting bool     `json:"submitting"`
	Success    bool     `json:"success"`
	URLs       []string `json:"urls,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type formState struct {
	mu         sync.Mutex
	submitting bool
	success    bool
	urls       []string
	errMsg     string
}

func (s *formState) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitting
	}
	s.submitting = true
	s.errMsg = ""
	return nil
}

func (s *formState) finish(urls []string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.errMsg = errMsg
	if errMsg == "" {
		s.success = true
		s.urls = urls
	}
}

func (s *formState) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

func (s *formState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.success = false
	s.urls = nil
	s.errMsg = ""
}

func (s *formState) snapshot() FormSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormSnapshot{Submitting: s.submitting, Success: s.success, URLs: append([]string(nil), s.urls...), Error: s.errMsg}
}

// SingleFormSnapshot is a point-in-time copy of a SingleForm.
type SingleFormSnapshot struct {
	Form     FormSnapshot          `json:"form"`
	Selected string                `json:"selected,omitempty"`
	Upload   upload.SingleSnapshot `json:"upload"`
	Gallery  gallery.Snapshot      `json:"gallery"`
}

// SingleForm defers the upload of one image until Submit. The image is either
// a new file in Widget or an existing one picked from Gallery.
type SingleForm struct {
	Widget  *upload.Single
	Gallery *gallery.Browser

	controls  upload.Controls
	onSuccess func(ctx context.Context, url string)
	state     formState

	mu       sync.Mutex
	selected string
}

// NewSingleForm builds a SingleForm; onSuccess may be nil.
func NewSingleForm(be Backend, opts Options, onSuccess func(ctx context.Context, url string)) *SingleForm {
	f := &SingleForm{onSuccess: onSuccess}
	f.Widget = upload.NewSingle(be, upload.SingleOptions{
		Container:        opts.Container,
		Policy:           opts.Policy,
		ProgressInterval: opts.ProgressInterval,
		OnSuccess:        func(_ context.Context, url string) { f.setSelected(url) },
	})
	f.Gallery = gallery.New(be, gallery.Options{
		Container:  opts.Container,
		MaxImages:  opts.MaxImages,
		Selectable: true,
		ReadOnly:   true,
		Logger:     opts.Logger,
		OnSelect: func(_ context.Context, url string) {
			_ = f.Widget.SelectExisting(url)
			f.setSelected(url)
		},
	})
	f.controls = f.Widget.Controls()
	return f
}

// Submit uploads the pending file, or confirms the chosen existing image, and
// returns its URL.
func (f *SingleForm) Submit(ctx context.Context) (string, error) {
	if !f.controls.HasPending() && f.Selected() == "" {
		f.state.fail(msgNoImage)
		return "", ErrNoImage
	}
	if err := f.state.begin(); err != nil {
		return "", err
	}

	urls, err := f.controls.Trigger(ctx)
	if err != nil || len(urls) == 0 {
		f.state.finish(nil, msgUploadFailed)
		if err == nil {
			err = errors.New(msgUploadFailed)
		}
		return "", err
	}

	url := urls[0]
	f.setSelected(url)
	f.state.finish(urls, "")
	if f.onSuccess != nil {
		f.onSuccess(ctx, url)
	}
	return url, nil
}

// Reset clears the widget and the form.
func (f *SingleForm) Reset() {
	f.controls.Reset()
	f.setSelected("")
	f.state.reset()
}

// Selected returns the image URL the form would submit without uploading.
func (f *SingleForm) Selected() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Snapshot returns a copy of the form and its children.
func (f *SingleForm) Snapshot() SingleFormSnapshot {
	return SingleFormSnapshot{
		Form:     f.state.snapshot(),
		Selected: f.Selected(),
		Upload:   f.Widget.Snapshot(),
		Gallery:  f.Gallery.Snapshot(),
	}
}

func (f *SingleForm) setSelected(url string) {
	f.mu.Lock()
	f.selected = url
	f.mu.Unlock()
	if url != "" {
		f.state.fail("")
	}
}

// BatchFormSnapshot is a point-in-time copy of a BatchForm.
type BatchFormSnapshot struct {
	Form   FormSnapshot         `json:"form"`
	Upload upload.BatchSnapshot `json:"upload"`
}

// BatchForm defers a batch upload until Submit.
type BatchForm struct {
	Widget *upload.Batch

	controls  upload.Controls
	onSuccess func(ctx context.Context, urls []string)
	state     formState
}

// NewBatchForm builds a BatchForm; onSuccess may be nil.
func NewBatchForm(up upload.Uploader, opts Options, onSuccess func(ctx context.Context, urls []string)) *BatchForm {
	w := upload.NewBatch(up, upload.BatchOptions{
		Container:        opts.Container,
		Policy:           opts.Policy,
		MaxFiles:         opts.MaxFiles,
		ProgressInterval: opts.ProgressInterval,
	})
	return &BatchForm{Widget: w, controls: w.Controls(), onSuccess: onSuccess}
}

// Submit uploads every pending file in order and returns their URLs. On
// failure the URLs uploaded before it are returned with the error.
func (f *BatchForm) Submit(ctx context.Context) ([]string, error) {
	if !f.controls.HasPending() {
		f.state.fail(msgNoImages)
		return nil, ErrNoImages
	}
	if err := f.state.begin(); err != nil {
		return nil, err
	}

	urls, err := f.controls.Trigger(ctx)
	if err != nil {
		f.state.finish(nil, err.Error())
		return urls, err
	}
	if len(urls) == 0 {
		f.state.finish(nil, msgUploadsFailed)
		return nil, errors.New(msgUploadsFailed)
	}

	f.state.finish(urls, "")
	if f.onSuccess != nil {
		f.onSuccess(ctx, urls)
	}
	return urls, nil
}

// Reset clears the widget and the form.
func (f *BatchForm) Reset() {
	f.controls.Reset()
	f.state.reset()
}

// Snapshot returns a copy of the form and its widget.
func (f *BatchForm) Snapshot() BatchFormSnapshot {
	return BatchFormSnapshot{Form: f.state.snapshot(), Upload: f.Widget.Snapshot()}
}
