// Package upload implements the single-file and batch upload widgets: local
// validation, previews, simulated progress and the hand-off to the gateway.
package upload

import (
	"fmt"
	"slices"
	"strings"

	"github.com/radif/imagehub/internal/filex"
)

// DefaultAllowedTypes is the allow-list used when a Policy names none.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

const (
	DefaultMaxSizeMB = 5
	DefaultMaxFiles  = 10
)

// Policy holds the client-side validation inputs.
type Policy struct {
	AllowedTypes []string
	MaxSizeMB    int
}

func (p Policy) withDefaults() Policy {
	if len(p.AllowedTypes) == 0 {
		p.AllowedTypes = DefaultAllowedTypes
	}
	if p.MaxSizeMB <= 0 {
		p.MaxSizeMB = DefaultMaxSizeMB
	}
	return p
}

// MaxBytes is the inclusive size ceiling.
func (p Policy) MaxBytes() int64 {
	return int64(p.MaxSizeMB) * 1024 * 1024
}

// Validate checks the declared content type against the allow-list and the
// size against the ceiling. It returns a *ValidationError on rejection.
func (p Policy) Validate(f filex.File) error {
	if !slices.Contains(p.AllowedTypes, f.ContentType) {
		return &ValidationError{Reason: ReasonType, Name: f.Name, policy: p}
	}
	if f.Size() > p.MaxBytes() {
		return &ValidationError{Reason: ReasonSize, Name: f.Name, policy: p}
	}
	return nil
}

// Reason says which check rejected a file.
type Reason int

const (
	ReasonType Reason = iota + 1
	ReasonSize
)

// ValidationError is a file rejected before any network call.
type ValidationError struct {
	Reason Reason
	Name   string
	policy Policy
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonType {
		return "File type not allowed. Please use: " + strings.Join(e.policy.AllowedTypes, ", ")
	}
	return fmt.Sprintf("File size exceeds %dMB limit", e.policy.MaxSizeMB)
}

// ItemMessage names the file, for lists where several files are shown together.
func (e *ValidationError) ItemMessage() string {
	if e.Reason == ReasonType {
		return "File type not allowed: " + e.Name
	}
	return fmt.Sprintf("File size exceeds %dMB limit: %s", e.policy.MaxSizeMB, e.Name)
}

// LimitError rejects a whole selection that would push a batch past its maximum.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You can only upload a maximum of %d files at once.", e.Max)
}
