package uploader_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/docriver/internal/uploader"
	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/submission"
)

const receipt = `{"tx":"T1","documents":[{"document":"a.pdf-1"},{"document":"b.pdf-1"}]}`

type docServer struct {
	*httptest.Server
	fields atomic.Value
}

func newDocServer(t *testing.T, status int, body string) *docServer {
	t.Helper()
	ds := &docServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse upstream form: %v", err)
		}
		ds.fields.Store(r.MultipartForm.Value)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ds.Close)
	return ds
}

func newModule(t *testing.T, ds *docServer, o uploader.Options) http.Handler {
	t.Helper()
	cfg := &submission.Config{
		DocServer: ds.URL,
		Realm:     "p123456",
		Label:     "Files for {{refResourceId}}",
		Metadata: submission.Metadata{
			Authorization: submission.Value("Bearer secret"),
			DocumentType:  submission.Value("claim"),
		},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	o.Submission = cfg
	o.HTTPClient = ds.Client()
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	u, err := uploader.New("/uploader", o)
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	m, err := u.Module("/uploader")
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	return m
}

func multipartBody(t *testing.T, fields map[string]string, files ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("content of " + name))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestForm(t *testing.T) {
	h := newModule(t, newDocServer(t, http.StatusOK, receipt), uploader.Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/uploader/?refResourceId=C7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Files for C7",
		`name="documentType" value="claim"`,
		`name="refResourceId" value="C7"`,
		`action="/uploader/submit"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
	if strings.Contains(body, "secret") {
		t.Error("authorization rendered into the page")
	}
}

func TestSubmit(t *testing.T) {
	ds := newDocServer(t, http.StatusOK, receipt)

	parent := submission.NewDispatcher(nil)
	var seen atomic.Int32
	parent.On(submission.EventResult, func(context.Context, *submission.Event) { seen.Add(1) })

	h := newModule(t, ds, uploader.Options{Parent: parent})

	body, ct := multipartBody(t, map[string]string{"tx": "T1", "authorization": "forged"}, "a.pdf", "b.pdf")
	req := httptest.NewRequest("POST", "/uploader/submit", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	page := rec.Body.String()
	for _, want := range []string{
		"2 document(s) submitted. Transaction Reference: T1",
		`href="/uploader/view/a.pdf-1"`,
		"Document 2: b.pdf-1",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if seen.Load() != 1 {
		t.Errorf("parent listener calls: got %d", seen.Load())
	}

	fields := ds.fields.Load().(map[string][]string)
	if got := fields["authorization"]; len(got) != 1 || got[0] != "Bearer secret" {
		t.Errorf("authorization sent: got %v", got)
	}
	if got := fields["tx"]; len(got) != 1 || got[0] != "T1" {
		t.Errorf("tx sent: got %v", got)
	}
}

func TestSubmitJSON(t *testing.T) {
	h := newModule(t, newDocServer(t, http.StatusUnauthorized, "token expired"), uploader.Options{})

	body, ct := multipartBody(t, nil, "a.pdf")
	req := httptest.NewRequest("POST", "/uploader/submit", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp uploader.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "rejected" || resp.Status != http.StatusUnauthorized || resp.Error != "token expired" {
		t.Errorf("response: got %+v", resp)
	}
}

func TestSubmitLocalFailures(t *testing.T) {
	ds := newDocServer(t, http.StatusOK, receipt)

	tests := []struct {
		name  string
		opts  uploader.Options
		files []string
		want  int
	}{
		{"no files", uploader.Options{}, nil, http.StatusBadRequest},
		{"too large", uploader.Options{MaxUploadSize: 64}, []string{strings.Repeat("x", 200) + ".pdf"}, http.StatusRequestEntityTooLarge},
		{"enrichment failed", uploader.Options{Hook: submission.SyncHook(func(context.Context, submission.Request) (submission.Enrichment, error) {
			return nil, io.ErrUnexpectedEOF
		})}, []string{"a.pdf"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newModule(t, ds, tt.opts)

			body, ct := multipartBody(t, nil, tt.files...)
			req := httptest.NewRequest("POST", "/uploader/submit", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), "docriver-alert") {
				t.Error("alert not rendered")
			}
		})
	}
}

func TestViewAndReset(t *testing.T) {
	ds := newDocServer(t, http.StatusOK, receipt)
	hook := docriver.ViewHook(func(_ context.Context, _ string, done func(docriver.ViewParams)) {
		done(docriver.ViewParams{"authorization": "Bearer view"})
	})
	h := newModule(t, ds, uploader.Options{ViewHook: hook})

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		location string
	}{
		{"view", "GET", "/uploader/view/a.pdf-1", http.StatusFound, ds.URL + "/document/p123456/a.pdf-1?authorization=Bearer+view"},
		{"reset", "POST", "/uploader/reset", http.StatusSeeOther, "/uploader/"},
		{"unknown", "GET", "/uploader/missing", http.StatusNotFound, ""},
		{"static", "GET", "/uploader/static/uploader.css", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("location: got %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}
