package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
)

type uploadCall struct {
	name      string
	container string
	size      int
}

// fakeUploader records calls in order. fail makes the call with that 1-based
// index fail; block, when set, holds every call until it is closed.
type fakeUploader struct {
	mu    sync.Mutex
	calls []uploadCall
	fail  int
	block chan struct{}
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, fileName, _ string, container string) gateway.Result {
	f.mu.Lock()
	f.calls = append(f.calls, uploadCall{name: fileName, container: container, size: len(data)})
	n := len(f.calls)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if n == f.fail {
		return gateway.Result{Success: false, Error: "quota exceeded", Kind: gateway.KindStore}
	}
	return gateway.Result{Success: true, URL: fmt.Sprintf("https://account.example/%s/%d-%s", container, n, fileName)}
}

func (f *fakeUploader) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func png(name string, size int) filex.File {
	return filex.File{Name: name, ContentType: "image/png", Data: make([]byte, size)}
}
