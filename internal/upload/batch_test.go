package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehub/internal/filex"
)

func TestBatch_UploadsSequentiallyInSelectionOrder(t *testing.T) {
	up := &fakeUploader{}
	var completed []string
	b := NewBatch(up, BatchOptions{
		Container:  "test",
		OnComplete: func(_ context.Context, urls []string) { completed = urls },
	})
	_, err := b.Select(context.Background(), []filex.File{png("1.png", 1), png("2.png", 1), png("3.png", 1), png("4.png", 1)})
	require.NoError(t, err)

	urls, err := b.Upload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1.png", "2.png", "3.png", "4.png"}, up.names())
	assert.Len(t, urls, 4)
	assert.Equal(t, urls, completed)
	assert.False(t, b.HasPending())
	assert.Equal(t, Progress{Current: 4, Total: 4, Percent: 100}, b.Snapshot().Progress)
}

func TestBatch_FailureHaltsQueue(t *testing.T) {
	up := &fakeUploader{fail: 3}
	completeCalled := false
	b := NewBatch(up, BatchOptions{
		Container:  "test",
		OnComplete: func(context.Context, []string) { completeCalled = true },
	})
	_, err := b.Select(context.Background(), []filex.File{png("1.png", 1), png("2.png", 1), png("3.png", 1), png("4.png", 1), png("5.png", 1)})
	require.NoError(t, err)

	urls, err := b.Upload(context.Background())

	require.EqualError(t, err, "quota exceeded")
	assert.Equal(t, []string{"1.png", "2.png", "3.png"}, up.names(), "calls 4 and 5 never happen")
	assert.Len(t, urls, 2)
	assert.False(t, completeCalled)

	snap := b.Snapshot()
	assert.False(t, snap.Uploading)
	assert.Equal(t, "quota exceeded", snap.Error)
	require.Len(t, snap.Pending, 3)
	assert.Equal(t, "3.png", snap.Pending[0].Name)
	assert.Equal(t, "5.png", snap.Pending[2].Name)
}

func TestBatch_InvalidFilesAreRejectedNotUploaded(t *testing.T) {
	up := &fakeUploader{}
	b := NewBatch(up, BatchOptions{Container: "test", Policy: Policy{MaxSizeMB: 1}})

	accepted, err := b.Select(context.Background(), []filex.File{
		png("ok.png", 1024*1024),
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")},
		png("huge.png", 1024*1024+1),
	})
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	snap := b.Snapshot()
	require.Len(t, snap.Rejected, 2)
	assert.Equal(t, "File type not allowed: notes.txt", snap.Rejected[0].ValidationError)
	assert.Equal(t, "File size exceeds 1MB limit: huge.png", snap.Rejected[1].ValidationError)
	assert.Empty(t, snap.Rejected[0].PreviewDataURI)

	_, err = b.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.png"}, up.names())
}

func TestBatch_SelectionOverMaxRejectsWholeBatch(t *testing.T) {
	up := &fakeUploader{}
	var selected []PendingFile
	b := NewBatch(up, BatchOptions{
		Container:  "test",
		MaxFiles:   3,
		OnSelected: func(_ context.Context, p []PendingFile) { selected = p },
	})
	_, err := b.Select(context.Background(), []filex.File{png("1.png", 1), png("2.png", 1)})
	require.NoError(t, err)
	assert.Len(t, selected, 2)

	accepted, err := b.Select(context.Background(), []filex.File{png("3.png", 1), png("4.png", 1)})

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Nil(t, accepted)
	assert.Len(t, b.Files(), 2)
	assert.Equal(t, "You can only upload a maximum of 3 files at once.", b.Snapshot().Error)

	_, err = b.Select(context.Background(), []filex.File{png("3.png", 1)})
	require.NoError(t, err)
	assert.Len(t, b.Files(), 3)
}

func TestBatch_RemoveAndUniqueIDs(t *testing.T) {
	b := NewBatch(&fakeUploader{}, BatchOptions{Container: "test"})
	_, err := b.Select(context.Background(), []filex.File{png("1.png", 1), png("2.png", 1), png("3.png", 1)})
	require.NoError(t, err)

	files := b.Files()
	ids := map[string]bool{}
	for _, f := range files {
		ids[f.LocalID] = true
	}
	assert.Len(t, ids, 3)

	assert.True(t, b.Remove(context.Background(), files[1].LocalID))
	assert.False(t, b.Remove(context.Background(), "missing"))
	names := []string{}
	for _, f := range b.Files() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"1.png", "3.png"}, names)
}

func TestBatch_EmptyUploadIsNoop(t *testing.T) {
	up := &fakeUploader{}
	urls, err := NewBatch(up, BatchOptions{Container: "test"}).Controls().Trigger(context.Background())
	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.Zero(t, up.count())
}

func TestBatch_ResetStopsQueueAfterCurrentCall(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{})}
	b := NewBatch(up, BatchOptions{Container: "test"})
	_, err := b.Select(context.Background(), []filex.File{png("1.png", 1), png("2.png", 1)})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Upload(context.Background())
		errCh <- err
	}()
	require.Eventually(t, func() bool { return up.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, b.Snapshot().Progress.Current)

	b.Reset()
	close(up.block)

	assert.ErrorIs(t, <-errCh, ErrReset)
	assert.Equal(t, 1, up.count())
	assert.False(t, b.HasPending())
}
