package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehub/internal/middleware"
)

func TestIssueToken_AcceptedByRequireAuth(t *testing.T) {
	tok, err := IssueToken("s3cret", "ops", time.Hour)
	require.NoError(t, err)

	var subject string
	h := middleware.RequireAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = middleware.Subject(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", subject)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken("", "ops", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}
