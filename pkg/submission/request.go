package submission

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"slices"
)

// Field names recognized by the docriver transaction endpoint.
const (
	FieldAuthorization          = "authorization"
	FieldTx                     = "tx"
	FieldDocumentType           = "documentType"
	FieldRefResourceType        = "refResourceType"
	FieldRefResourceID          = "refResourceId"
	FieldRefResourceDescription = "refResourceDescription"
	FieldFiles                  = "files"
)

// Attachment is a file carried by a submission. Open is called once per
// transport attempt and the returned reader is closed after it is written.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Present reports whether the attachment carries an actual file.
func (a Attachment) Present() bool {
	return a.Filename != "" && a.Open != nil
}

// FileAttachment describes a file on disk. The content type is derived
// from the file extension, falling back to application/octet-stream.
func FileAttachment(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("attachment %s is a directory", path)
	}

	return Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentTypeOf(path),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// BytesAttachment wraps in-memory content as an attachment.
func BytesAttachment(filename, contentType string, data []byte) Attachment {
	if contentType == "" {
		contentType = contentTypeOf(filename)
	}
	return Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Field is a single named entry of a submission: a plain value or a file.
type Field struct {
	Name  string
	Value string
	File  *Attachment
}

// IsFile reports whether the field carries an attachment.
func (f Field) IsFile() bool {
	return f.File != nil
}

// Request is the ordered field set sent to the transaction endpoint.
// The zero value is an empty request ready for use.
type Request struct {
	fields []Field
}

// Add appends a plain field, keeping any existing fields with the same name.
func (r *Request) Add(name, value string) {
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Attach appends a file field.
func (r *Request) Attach(name string, a Attachment) {
	r.fields = append(r.fields, Field{Name: name, File: &a})
}

// Set replaces the first field named name with a plain value and drops every
// later field of that name. A missing name is appended.
func (r *Request) Set(name, value string) {
	idx := slices.IndexFunc(r.fields, func(f Field) bool { return f.Name == name })
	if idx < 0 {
		r.Add(name, value)
		return
	}

	r.fields[idx] = Field{Name: name, Value: value}
	tail := slices.DeleteFunc(r.fields[idx+1:], func(f Field) bool { return f.Name == name })
	r.fields = r.fields[:idx+1+len(tail)]
}

// Get returns the first plain value stored under name.
func (r *Request) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name && !f.IsFile() {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the ordered field set.
func (r *Request) Fields() []Field {
	return slices.Clone(r.fields)
}

// Attachments returns the files carried by the request in order.
func (r *Request) Attachments() []Attachment {
	var files []Attachment
	for _, f := range r.fields {
		if f.IsFile() && f.File.Present() {
			files = append(files, *f.File)
		}
	}
	return files
}

// Merge applies an enrichment; enrichment values replace same-named fields.
// Keys are applied in sorted order so the wire body is deterministic.
func (r *Request) Merge(e Enrichment) {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		r.Set(k, e[k])
	}
}

// Validate fails with ErrNoFilesSelected unless at least one field carries a file.
func (r *Request) Validate() error {
	if len(r.Attachments()) == 0 {
		return ErrNoFilesSelected
	}
	return nil
}

// Clone returns an independent copy of the request.
func (r *Request) Clone() Request {
	return Request{fields: slices.Clone(r.fields)}
}
