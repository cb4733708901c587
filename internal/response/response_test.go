package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		body   string
	}{
		{"ok", func(w http.ResponseWriter) { OK(w, map[string]int{"n": 1}) }, 200, `{"success":true,"data":{"n":1}}`},
		{"created", func(w http.ResponseWriter) { Created(w, "x") }, 201, `{"success":true,"data":"x"}`},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "nope") }, 400, `{"success":false,"error":"nope"}`},
		{"too large", func(w http.ResponseWriter) { TooLarge(w, "big") }, 413, `{"success":false,"error":"big"}`},
		{"internal", InternalError, 500, `{"success":false,"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
