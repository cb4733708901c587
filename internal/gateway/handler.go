package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/response"
)

const defaultFormMemory = 32 << 20

// Handler exposes the gateway operations over HTTP.
type Handler struct {
	gw        *Gateway
	bodyLimit int64
}

// NewHandler creates a Handler. Upload bodies larger than bodyLimit bytes are
// rejected with 413; a non-positive limit disables the check.
func NewHandler(gw *Gateway, bodyLimit int64) *Handler {
	return &Handler{gw: gw, bodyLimit: bodyLimit}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Stores the multipart "file" part under a generated name and returns its public URL. The container is created with public-read access on first use.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			container	path		string	true	"Container name"
//	@Param			file		formData	file	true	"Image file"
//	@Success		201			{object}	Result
//	@Failure		400			{object}	Result
//	@Failure		413			{object}	response.Envelope
//	@Failure		502			{object}	Result
//	@Failure		503			{object}	Result
//	@Router			/containers/{container}/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	memory := int64(defaultFormMemory)
	if h.bodyLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit)
		memory = h.bodyLimit
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(w, "request body too large")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	_, fh, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	f, err := filex.FromHeader(fh)
	if err != nil {
		response.BadRequest(w, "could not read file")
		return
	}

	res := h.gw.Upload(r.Context(), f.Data, f.Name, f.ContentType, chi.URLParam(r, "container"))
	WriteResult(w, http.StatusCreated, res)
}

// List godoc
//
//	@Summary		List images
//	@Description	Returns up to max image objects from the container in the store's listing order.
//	@Tags			images
//	@Produce		json
//	@Param			container	path		string	true	"Container name"
//	@Param			max			query		int		false	"Maximum objects to enumerate"
//	@Success		200			{object}	Result
//	@Failure		400			{object}	Result
//	@Failure		502			{object}	Result
//	@Failure		503			{object}	Result
//	@Router			/containers/{container}/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	max := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteResult(w, http.StatusOK, failure(KindMalformed, "max must be a non-negative integer"))
			return
		}
		max = n
	}
	res := h.gw.List(r.Context(), chi.URLParam(r, "container"), max)
	WriteResult(w, http.StatusOK, res)
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Removes the object named by the last path segment of url.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Param			container	path		string	true	"Container name"
//	@Param			url			query		string	true	"Public URL of the image"
//	@Success		200			{object}	Result
//	@Failure		400			{object}	Result
//	@Failure		404			{object}	Result
//	@Failure		502			{object}	Result
//	@Failure		503			{object}	Result
//	@Router			/containers/{container}/images [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	res := h.gw.Delete(r.Context(), r.URL.Query().Get("url"), chi.URLParam(r, "container"))
	WriteResult(w, http.StatusOK, res)
}

// WriteResult writes res as JSON, using okStatus on success and the status
// mapped from res.Kind otherwise.
func WriteResult(w http.ResponseWriter, okStatus int, res Result) {
	status := okStatus
	if !res.Success {
		status = StatusFor(res.Kind)
	}
	response.JSON(w, status, res)
}

// StatusFor maps a failure kind to an HTTP status code.
func StatusFor(k Kind) int {
	switch k {
	case KindMalformed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConfig:
		return http.StatusServiceUnavailable
	case KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
