package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehub/internal/filex"
)

func TestPolicy_SizeCeilingIsInclusive(t *testing.T) {
	p := Policy{MaxSizeMB: 1}.withDefaults()

	assert.NoError(t, p.Validate(png("exact.png", 1024*1024)))
	assert.NoError(t, p.Validate(png("small.png", 1)))

	err := p.Validate(png("over.png", 1024*1024+1))
	require.Error(t, err)
	assert.Equal(t, "File size exceeds 1MB limit", err.Error())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonSize, verr.Reason)
	assert.Equal(t, "File size exceeds 1MB limit: over.png", verr.ItemMessage())
}

func TestPolicy_TypeAllowList(t *testing.T) {
	p := Policy{}.withDefaults()

	err := p.Validate(filex.File{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, "File type not allowed. Please use: image/jpeg, image/png, image/gif, image/webp", err.Error())
	assert.Equal(t, "File type not allowed: doc.pdf", err.(*ValidationError).ItemMessage())

	assert.NoError(t, p.Validate(filex.File{Name: "a.webp", ContentType: "image/webp"}))
}

func TestPolicy_TypeCheckedBeforeSize(t *testing.T) {
	p := Policy{AllowedTypes: []string{"image/png"}, MaxSizeMB: 1}

	err := p.Validate(filex.File{Name: "big.gif", ContentType: "image/gif", Data: make([]byte, 2*1024*1024)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonType, verr.Reason)
}

func TestLimitError(t *testing.T) {
	assert.Equal(t, "You can only upload a maximum of 3 files at once.", (&LimitError{Max: 3}).Error())
}
