package upload

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
)

// BatchOptions configures a Batch widget.
type BatchOptions struct {
	Container        string
	Policy           Policy
	MaxFiles         int
	ProgressInterval time.Duration

	OnSelected func(ctx context.Context, pending []PendingFile)
	OnComplete func(ctx context.Context, urls []string)
}

// Progress reports a batch upload: file Current of Total, overall Percent.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// BatchSnapshot is a point-in-time copy of a Batch widget.
type BatchSnapshot struct {
	Pending   []PendingFile `json:"pending"`
	Rejected  []PendingFile `json:"rejected"`
	Uploading bool          `json:"uploading"`
	Progress  Progress      `json:"progress"`
	Error     string        `json:"error,omitempty"`
}

// Batch is the multi-file upload widget. Files upload one at a time in
// selection order and the first failure stops the queue.
type Batch struct {
	up   Uploader
	opts BatchOptions
	ids  idGenerator

	mu        sync.Mutex
	pending   []PendingFile
	rejected  []PendingFile
	uploading bool
	progress  Progress
	errMsg    string
	gen       uint64
}

// NewBatch creates an empty widget that uploads through up.
func NewBatch(up Uploader, opts BatchOptions) *Batch {
	opts.Policy = opts.Policy.withDefaults()
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	return &Batch{up: up, opts: opts, ids: idGenerator{now: time.Now}}
}

// Select appends files to the pending list. If that would exceed MaxFiles
// nothing is added and a *LimitError is returned. Files failing validation are
// listed as rejected and never uploaded. It returns the newly accepted files.
func (b *Batch) Select(ctx context.Context, files []filex.File) ([]PendingFile, error) {
	b.mu.Lock()
	if b.uploading {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	b.errMsg = ""
	if len(b.pending)+len(files) > b.opts.MaxFiles {
		err := &LimitError{Max: b.opts.MaxFiles}
		b.errMsg = err.Error()
		b.mu.Unlock()
		return nil, err
	}

	var accepted []PendingFile
	for _, f := range files {
		if err := b.opts.Policy.Validate(f); err != nil {
			verr := err.(*ValidationError)
			b.rejected = append(b.rejected, newPendingFile(b.ids.next(), f, verr, true))
			continue
		}
		p := newPendingFile(b.ids.next(), f, nil, true)
		b.pending = append(b.pending, p)
		accepted = append(accepted, p)
	}
	all := slices.Clone(b.pending)
	b.mu.Unlock()

	if b.opts.OnSelected != nil {
		b.opts.OnSelected(ctx, all)
	}
	return accepted, nil
}

// Remove drops a pending or rejected file by its local id.
func (b *Batch) Remove(ctx context.Context, localID string) bool {
	b.mu.Lock()
	if b.uploading {
		b.mu.Unlock()
		return false
	}
	match := func(p PendingFile) bool { return p.LocalID == localID }
	before := len(b.pending) + len(b.rejected)
	b.pending = slices.DeleteFunc(b.pending, match)
	b.rejected = slices.DeleteFunc(b.rejected, match)
	removed := len(b.pending)+len(b.rejected) < before
	all := slices.Clone(b.pending)
	b.mu.Unlock()

	if removed && b.opts.OnSelected != nil {
		b.opts.OnSelected(ctx, all)
	}
	return removed
}

// Files returns the pending files in upload order.
func (b *Batch) Files() []PendingFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.pending)
}

// Upload sends the pending files one after another, waiting for each gateway
// call before starting the next. Uploaded files leave the pending list. On the
// first failure the remaining files stay pending and the URLs uploaded so far
// are returned with the error.
func (b *Batch) Upload(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	if b.uploading {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil, nil
	}
	queue := slices.Clone(b.pending)
	total := len(queue)
	gen := b.gen
	b.uploading = true
	b.errMsg = ""
	b.progress = Progress{Total: total}
	b.mu.Unlock()

	urls := make([]string, 0, total)
	for i, p := range queue {
		ramp := batchRamp(i, total)
		b.setProgress(gen, Progress{Current: i + 1, Total: total, Percent: ramp.Base})

		stop := runRamp(ctx, ramp, b.opts.ProgressInterval, func(v int) {
			b.setProgress(gen, Progress{Current: i + 1, Total: total, Percent: v})
		})
		res := b.up.Upload(ctx, p.data, p.Name, p.ContentType, b.opts.Container)
		stop()

		b.mu.Lock()
		if b.gen != gen {
			b.mu.Unlock()
			return urls, ErrReset
		}
		if !res.Success {
			msg := res.Error
			if msg == "" {
				msg = fmt.Sprintf("Failed to upload image %d", i+1)
			}
			b.uploading = false
			b.errMsg = msg
			b.mu.Unlock()
			return urls, &gateway.Error{Kind: res.Kind, Message: msg}
		}
		b.pending = slices.DeleteFunc(b.pending, func(q PendingFile) bool { return q.LocalID == p.LocalID })
		b.mu.Unlock()
		urls = append(urls, res.URL)
	}

	b.mu.Lock()
	b.uploading = false
	b.progress = Progress{Current: total, Total: total, Percent: 100}
	b.mu.Unlock()

	if b.opts.OnComplete != nil {
		b.opts.OnComplete(ctx, urls)
	}
	return urls, nil
}

// Reset clears every pending and rejected file. An upload in flight finishes
// its current call and then stops.
func (b *Batch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.pending = nil
	b.rejected = nil
	b.uploading = false
	b.progress = Progress{}
	b.errMsg = ""
}

// HasPending reports whether any file is waiting to be uploaded.
func (b *Batch) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) > 0
}

// Snapshot returns a copy of the widget state.
func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BatchSnapshot{
		Pending:   append([]PendingFile{}, b.pending...),
		Rejected:  append([]PendingFile{}, b.rejected...),
		Uploading: b.uploading,
		Progress:  b.progress,
		Error:     b.errMsg,
	}
}

// Controls exposes the widget to its owner.
func (b *Batch) Controls() Controls {
	return Controls{
		Trigger:    b.Upload,
		Reset:      b.Reset,
		HasPending: b.HasPending,
	}
}

func (b *Batch) setProgress(gen uint64, p Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen == gen && b.uploading {
		b.progress = p
	}
}
