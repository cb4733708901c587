// Package filex holds the in-memory file representation shared by the HTTP
// handlers and the upload widgets.
package filex

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is a user-selected file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the byte length of the content.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// DataURI encodes the content as a self-contained data: URI.
func (f File) DataURI() string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// FromHeader reads a multipart file part. The browser-declared content type
// wins; when it is missing or generic, the type is sniffed from the content.
func FromHeader(fh *multipart.FileHeader) (File, error) {
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open part %q: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return File{}, fmt.Errorf("read part %q: %w", fh.Filename, err)
	}

	return File{
		Name:        filepath.Base(fh.Filename),
		ContentType: resolveContentType(fh.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// ReadFile loads a file from disk, typing it by extension and then by content.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: resolveContentType(mime.TypeByExtension(filepath.Ext(path)), data),
		Data:        data,
	}, nil
}

func resolveContentType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// FormatSize renders a byte count as "512 B", "1.5 KB" or "2.0 MB".
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
