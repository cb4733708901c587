package upload

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/radif/imagehub/internal/filex"
)

// PendingFile is a selected file that has not been confirmed uploaded.
type PendingFile struct {
	LocalID         string `json:"id"`
	Name            string `json:"name"`
	ContentType     string `json:"contentType"`
	Size            int64  `json:"size"`
	SizeLabel       string `json:"sizeLabel"`
	PreviewDataURI  string `json:"preview,omitempty"`
	ValidationError string `json:"error,omitempty"`

	data []byte
}

func newPendingFile(id string, f filex.File, verr *ValidationError, itemMessages bool) PendingFile {
	p := PendingFile{
		LocalID:     id,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size(),
		SizeLabel:   filex.FormatSize(f.Size()),
	}
	switch {
	case verr == nil:
		p.PreviewDataURI = f.DataURI()
		p.data = f.Data
	case itemMessages:
		p.ValidationError = verr.ItemMessage()
	default:
		p.ValidationError = verr.Error()
	}
	return p
}

// idGenerator hands out "file-<millis>-<counter>" identifiers, unique for the
// lifetime of one widget.
type idGenerator struct {
	counter atomic.Uint64
	now     func() time.Time
}

func (g *idGenerator) next() string {
	n := g.counter.Add(1) - 1
	return fmt.Sprintf("file-%d-%d", g.now().UnixMilli(), n)
}
