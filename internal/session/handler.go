package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gallery"
	"github.com/radif/imagehub/internal/gateway"
	"github.com/radif/imagehub/internal/manager"
	"github.com/radif/imagehub/internal/response"
	"github.com/radif/imagehub/internal/upload"
)

// Handler holds HTTP handlers for upload sessions.
type Handler struct {
	svc       *Service
	bodyLimit int64
}

// NewHandler creates a new session Handler. bodyLimit caps file selection
// requests; a non-positive value disables the cap.
func NewHandler(svc *Service, bodyLimit int64) *Handler {
	return &Handler{svc: svc, bodyLimit: bodyLimit}
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Close)
		r.Post("/files", h.SelectFiles)
		r.Delete("/files/{fileID}", h.RemoveFile)
		r.Post("/submit", h.Submit)
		r.Post("/reset", h.Reset)
		r.Put("/view", h.SetView)
		r.Get("/gallery", h.Gallery)
		r.Post("/gallery/selection", h.SelectImage)
		r.Delete("/gallery/images", h.DeleteImage)
	})
}

// CreateRequest is the body for Create.
type CreateRequest struct {
	Kind      string `json:"kind" example:"manager"`
	Container string `json:"container,omitempty" example:"product-dashboard"`
}

// ViewRequest is the body for SetView.
type ViewRequest struct {
	View string `json:"view" example:"upload"`
}

// SelectionRequest is the body for SelectImage.
type SelectionRequest struct {
	URL string `json:"url"`
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	URLs    []string `json:"urls"`
	Session View     `json:"session"`
}

// Create godoc
//
//	@Summary		Open an upload session
//	@Description	Creates a manager, single-image form or batch form session bound to a container.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRequest	true	"Session kind and container"
//	@Success		201		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	kind, err := ParseKind(req.Kind)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	sess, err := h.svc.Create(r.Context(), kind, req.Container)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, sess.Snapshot())
}

// Get godoc
//
//	@Summary	Get a session
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Close godoc
//
//	@Summary	Close a session
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id} [delete]
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, nil)
}

// SelectFiles godoc
//
//	@Summary		Select files
//	@Description	Validates the multipart "files" parts and adds them to the session's widget. A manager session uploads its file immediately.
//	@Tags			sessions
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			files	formData	file	true	"Image files"
//	@Success		200		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		422		{object}	response.Envelope
//	@Security		BearerAuth
//	@Router			/sessions/{id}/files [post]
func (h *Handler) SelectFiles(w http.ResponseWriter, r *http.Request) {
	memory := int64(32 << 20)
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

	headers := r.MultipartForm.File["files"]
	files := make([]filex.File, 0, len(headers))
	for _, fh := range headers {
		f, err := filex.FromHeader(fh)
		if err != nil {
			response.BadRequest(w, "could not read file")
			return
		}
		files = append(files, f)
	}

	sess, err := h.svc.SelectFiles(r.Context(), chi.URLParam(r, "id"), files)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// RemoveFile godoc
//
//	@Summary	Remove a selected file
//	@Tags		sessions
//	@Produce	json
//	@Param		id		path		string	true	"Session ID"
//	@Param		fileID	path		string	true	"Local file ID"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	404		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id}/files/{fileID} [delete]
func (h *Handler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.RemoveFile(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Submit godoc
//
//	@Summary		Submit
//	@Description	Uploads the session's pending files and returns their URLs.
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	response.Envelope{data=SubmitResult}
//	@Failure		404	{object}	response.Envelope
//	@Failure		422	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Security		BearerAuth
//	@Router			/sessions/{id}/submit [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, urls, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if urls == nil {
		urls = []string{}
	}
	response.OK(w, SubmitResult{URLs: urls, Session: sess.Snapshot()})
}

// Reset godoc
//
//	@Summary	Reset a session
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id}/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Reset(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetView godoc
//
//	@Summary	Switch the manager tab
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"Session ID"
//	@Param		body	body		ViewRequest	true	"gallery or upload"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id}/view [put]
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	view, err := manager.ParseView(req.View)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	sess, err := h.svc.SetView(chi.URLParam(r, "id"), view)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Gallery godoc
//
//	@Summary	Refresh the gallery
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	response.Envelope{data=gallery.Snapshot}
//	@Failure	404	{object}	response.Envelope
//	@Failure	409	{object}	response.Envelope
//	@Failure	502	{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id}/gallery [get]
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Gallery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, snap)
}

// SelectImage godoc
//
//	@Summary	Select a gallery image
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Session ID"
//	@Param		body	body		SelectionRequest	true	"Image URL"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Security	BearerAuth
//	@Router		/sessions/{id}/gallery/selection [post]
func (h *Handler) SelectImage(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		response.BadRequest(w, "url is required")
		return
	}
	sess, err := h.svc.SelectImage(r.Context(), chi.URLParam(r, "id"), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// DeleteImage godoc
//
//	@Summary		Delete a gallery image
//	@Description	Deletes the image only when confirm=true; the gallery drops it without refetching.
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			url		query		string	true	"Image URL"
//	@Param			confirm	query		bool	true	"Must be true"
//	@Success		200		{object}	response.Envelope{data=gallery.Snapshot}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Security		BearerAuth
//	@Router			/sessions/{id}/gallery/images [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	confirmed, _ := strconv.ParseBool(q.Get("confirm"))
	snap, err := h.svc.DeleteImage(r.Context(), chi.URLParam(r, "id"), q.Get("url"), confirmed)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, snap)
}

func writeError(w http.ResponseWriter, err error) {
	var (
		verr  *upload.ValidationError
		limit *upload.LimitError
		gwErr *gateway.Error
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrFileNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrUnsupported), errors.Is(err, upload.ErrBusy), errors.Is(err, upload.ErrReset),
		errors.Is(err, manager.ErrSubmitting), errors.Is(err, gallery.ErrNotSelectable), errors.Is(err, gallery.ErrNotDeletable):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrOneFile), errors.Is(err, gallery.ErrDeclined), errors.Is(err, manager.ErrUnknownView):
		response.BadRequest(w, err.Error())
	case errors.As(err, &verr), errors.As(err, &limit):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, manager.ErrNoImage), errors.Is(err, manager.ErrNoImages):
		response.UnprocessableEntity(w, manager.Message(err))
	case errors.As(err, &gwErr):
		response.Error(w, gateway.StatusFor(gwErr.Kind), gwErr.Message)
	default:
		response.InternalError(w)
	}
}
