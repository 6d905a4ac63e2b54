package uploader

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/handlers"
	"github.com/JaimeStill/docriver/pkg/submission"
)

const (
	multipartMemory = 32 << 20
	viewTimeout     = 10 * time.Second
)

var (
	ErrFileTooLarge  = errors.New("upload exceeds the maximum size")
	ErrInvalidUpload = errors.New("invalid upload form")
)

// Response is the JSON body of a submit request that accepts JSON.
type Response struct {
	Kind    string              `json:"kind"`
	Status  int                 `json:"status,omitempty"`
	Receipt *submission.Receipt `json:"receipt,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Form renders the empty uploader.
func (u *Uploader) Form(w http.ResponseWriter, r *http.Request) {
	u.render(w, http.StatusOK, u.page(u.metadata(r.URL.Query())))
}

// Submit runs one submission of the posted files and renders its outcome.
func (u *Uploader) Submit(w http.ResponseWriter, r *http.Request) {
	if u.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		u.fail(w, r, u.page(u.cfg.Metadata), parseError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	cfg := u.cfg
	cfg.Metadata = u.metadata(r.MultipartForm.Value)
	page := u.page(cfg.Metadata)

	up, err := submission.NewUploader(&cfg, u.opts...)
	if err != nil {
		u.fail(w, r, page, err)
		return
	}
	for _, fh := range r.MultipartForm.File[submission.FieldFiles] {
		up.Form().Attach(attachment(fh))
	}

	outcome, err := up.Submit(r.Context())
	if err != nil {
		u.fail(w, r, page, err)
		return
	}

	if wantsJSON(r) {
		resp := Response{Kind: outcome.Kind.String(), Status: outcome.Status, Receipt: outcome.Receipt}
		if !outcome.Success() {
			resp.Error = outcome.Reason()
		}
		handlers.RespondJSON(w, http.StatusOK, resp)
		return
	}

	page.Results = u.results(up.Results().Entries(), outcome.Receipt)
	page.Alerts = up.Results().Alerts()
	u.render(w, http.StatusOK, page)
}

// Reset clears the result area by returning to the empty form.
func (u *Uploader) Reset(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, u.pages.BasePath()+"/", http.StatusSeeOther)
}

// View redirects to the document server URL for the named document.
func (u *Uploader) View(w http.ResponseWriter, r *http.Request) {
	doc := r.PathValue("document")
	if doc == "" {
		handlers.RespondError(w, u.logger, http.StatusBadRequest, docriver.ErrMissingName)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	target, err := docriver.NewViewer(u.client, doc, u.viewHook).Resolve(ctx)
	if err != nil {
		handlers.RespondError(w, u.logger, http.StatusGatewayTimeout, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (u *Uploader) fail(w http.ResponseWriter, r *http.Request, page Page, err error) {
	status := statusOf(err)
	if wantsJSON(r) {
		handlers.RespondError(w, u.logger, status, err)
		return
	}

	u.logger.WarnContext(r.Context(), "submission not sent", "status", status, "error", err)
	page.Alerts = []string{err.Error()}
	u.render(w, status, page)
}

func (u *Uploader) render(w http.ResponseWriter, status int, page Page) {
	if err := u.pages.Render(w, status, "form", page); err != nil {
		u.logger.Error("render uploader", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// metadata overlays request values onto metadata fields the configuration
// leaves unset. Configured values and the authorization field are never
// taken from the request.
func (u *Uploader) metadata(values map[string][]string) submission.Metadata {
	m := u.cfg.Metadata

	get := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			return submission.Value(v[0])
		}
		return nil
	}

	fields := []struct {
		name string
		dst  **string
	}{
		{submission.FieldTx, &m.Tx},
		{submission.FieldDocumentType, &m.DocumentType},
		{submission.FieldRefResourceType, &m.RefResourceType},
		{submission.FieldRefResourceID, &m.RefResourceID},
		{submission.FieldRefResourceDescription, &m.RefResourceDescription},
	}
	for _, f := range fields {
		if *f.dst == nil {
			*f.dst = get(f.name)
		}
	}
	return m
}

func attachment(fh *multipart.FileHeader) submission.Attachment {
	a := submission.BytesAttachment(fh.Filename, fh.Header.Get("Content-Type"), nil)
	a.Size = fh.Size
	a.Open = func() (io.ReadCloser, error) {
		return fh.Open()
	}
	return a
}

func parseError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrFileTooLarge
	}
	return errors.Join(ErrInvalidUpload, err)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	default:
		return submission.MapHTTPStatus(err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
