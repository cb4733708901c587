package gateway

import "encoding/json"

// Kind classifies a failed Result so transports can pick a status code.
type Kind int

const (
	KindNone Kind = iota
	// KindConfig means the store connection is not configured.
	KindConfig
	// KindMalformed means the input was rejected before reaching the store.
	KindMalformed
	// KindNotFound means the store reported the object missing.
	KindNotFound
	// KindStore covers every other transport, auth or quota failure.
	KindStore
)

// StoredImage is one image object in a container.
type StoredImage struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"size"`
}

// Result is the tagged outcome of every gateway operation:
// {success: true, ...payload} or {success: false, error}.
type Result struct {
	Success bool
	URL     string
	Images  []StoredImage
	Error   string
	Kind    Kind
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Error}
}

// MarshalJSON emits {success, url?, images?, error?}. images is present
// whenever the operation produced a list, even an empty one.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Success bool           `json:"success"`
		URL     string         `json:"url,omitempty"`
		Images  *[]StoredImage `json:"images,omitempty"`
		Error   string         `json:"error,omitempty"`
	}
	w := wire{Success: r.Success, URL: r.URL, Error: r.Error}
	if r.Images != nil {
		w.Images = &r.Images
	}
	return json.Marshal(w)
}

// Error is a failed Result seen through the error interface.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func failure(kind Kind, msg string) Result {
	return Result{Success: false, Error: msg, Kind: kind}
}
