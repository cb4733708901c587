package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/blobs/")
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutStatKeysRemove(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, s.EnsureContainer(ctx, "test"))
	require.NoError(t, s.EnsureContainer(ctx, "test"), "ensure is idempotent")

	require.NoError(t, s.Put(ctx, "test", "b.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png"))
	require.NoError(t, s.Put(ctx, "test", "a.txt", bytes.NewReader([]byte("hello")), 5, "text/plain"))

	keys, err := s.Keys(ctx, "test", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.png"}, keys)

	keys, err = s.Keys(ctx, "test", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, keys)

	info, err := s.Stat(ctx, "test", "b.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(len(pngHeader)), info.Size)

	require.NoError(t, s.Remove(ctx, "test", "b.png"))
	err = s.Remove(ctx, "test", "b.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Stat(ctx, "test", "b.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_StatReportsDeclaredType(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	require.NoError(t, s.EnsureContainer(ctx, "test"))

	require.NoError(t, s.Put(ctx, "test", "1-2.photo", bytes.NewReader([]byte("hello")), 5, "image/png"))
	info, err := s.Stat(ctx, "test", "1-2.photo")
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	keys, err := s.Keys(ctx, "test", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"1-2.photo"}, keys, "metadata is not listed")

	// Overwriting without a type falls back to sniffing.
	require.NoError(t, s.Put(ctx, "test", "1-2.photo", bytes.NewReader(pngHeader), int64(len(pngHeader)), ""))
	info, err = s.Stat(ctx, "test", "1-2.photo")
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, s.Put(ctx, "test", "3-4.photo", bytes.NewReader([]byte("hello")), 5, "image/webp"))
	require.NoError(t, s.Remove(ctx, "test", "3-4.photo"))
	require.NoError(t, s.Put(ctx, "test", "3-4.photo", bytes.NewReader([]byte("hello")), 5, ""))
	info, err = s.Stat(ctx, "test", "3-4.photo")
	require.NoError(t, err)
	assert.Contains(t, info.ContentType, "text/plain", "remove drops the recorded type")
}

func TestLocalStorage_MissingContainer(t *testing.T) {
	s := newLocal(t)
	_, err := s.Keys(context.Background(), "nope", 5)
	assert.Error(t, err)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	require.NoError(t, s.EnsureContainer(ctx, "test"))

	err := s.Put(ctx, "test", "../escape.png", bytes.NewReader(nil), 0, "image/png")
	assert.Error(t, err)
	assert.Error(t, s.EnsureContainer(ctx, "a/b"))
}

func TestLocalStorage_ObjectURL(t *testing.T) {
	s := newLocal(t)
	assert.Equal(t, "http://localhost:8080/blobs/test/1-2.png", s.ObjectURL("test", "1-2.png"))
}

func TestNewLocalStorage_RequiresDir(t *testing.T) {
	_, err := NewLocalStorage("", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPublicReadPolicy(t *testing.T) {
	var doc struct {
		Statement []struct {
			Effect   string
			Action   string
			Resource string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("photos")), &doc))
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, "Allow", doc.Statement[0].Effect)
	assert.Equal(t, "s3:GetObject", doc.Statement[0].Action)
	assert.Equal(t, "arn:aws:s3:::photos/*", doc.Statement[0].Resource)
}
