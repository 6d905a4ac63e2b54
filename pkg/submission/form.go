package submission

import (
	"regexp"
	"slices"
	"sync"
)

// Metadata holds the host-supplied hidden fields of the uploader form.
// Nil values are omitted from the request entirely; an empty string is sent as-is.
type Metadata struct {
	Authorization          *string `toml:"authorization"`
	Tx                     *string `toml:"tx"`
	DocumentType           *string `toml:"document_type"`
	RefResourceType        *string `toml:"ref_resource_type"`
	RefResourceID          *string `toml:"ref_resource_id"`
	RefResourceDescription *string `toml:"ref_resource_description"`
}

// Fields returns the non-nil metadata as plain fields in wire order.
func (m Metadata) Fields() []Field {
	pairs := []struct {
		name  string
		value *string
	}{
		{FieldAuthorization, m.Authorization},
		{FieldTx, m.Tx},
		{FieldDocumentType, m.DocumentType},
		{FieldRefResourceType, m.RefResourceType},
		{FieldRefResourceID, m.RefResourceID},
		{FieldRefResourceDescription, m.RefResourceDescription},
	}

	fields := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		if p.value != nil {
			fields = append(fields, Field{Name: p.name, Value: *p.value})
		}
	}
	return fields
}

// Values returns the non-nil metadata keyed by field name.
func (m Metadata) Values() map[string]string {
	values := make(map[string]string)
	for _, f := range m.Fields() {
		values[f.Name] = f.Value
	}
	return values
}

// Merge overwrites fields that are set in overlay.
func (m *Metadata) Merge(overlay *Metadata) {
	if overlay.Authorization != nil {
		m.Authorization = overlay.Authorization
	}
	if overlay.Tx != nil {
		m.Tx = overlay.Tx
	}
	if overlay.DocumentType != nil {
		m.DocumentType = overlay.DocumentType
	}
	if overlay.RefResourceType != nil {
		m.RefResourceType = overlay.RefResourceType
	}
	if overlay.RefResourceID != nil {
		m.RefResourceID = overlay.RefResourceID
	}
	if overlay.RefResourceDescription != nil {
		m.RefResourceDescription = overlay.RefResourceDescription
	}
}

// Value returns a pointer to v, for populating Metadata literals.
func Value(v string) *string {
	return &v
}

// Form is the user-populated input of an uploader: the configured hidden
// metadata, any extra host fields, and the selected files.
// Form is safe for concurrent use.
type Form struct {
	mu          sync.Mutex
	metadata    Metadata
	fields      []Field
	attachments []Attachment
}

// NewForm creates an empty form carrying the given hidden metadata.
func NewForm(metadata Metadata) *Form {
	return &Form{metadata: metadata}
}

// Metadata returns the hidden metadata of the form.
func (f *Form) Metadata() Metadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata
}

// AddField appends a host-supplied plain field.
func (f *Form) AddField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = append(f.fields, Field{Name: name, Value: value})
}

// Attach adds selected files to the form.
func (f *Form) Attach(files ...Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments = append(f.attachments, files...)
}

// Attachments returns the selected files.
func (f *Form) Attachments() []Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.attachments)
}

// Empty reports whether the form has no user input.
func (f *Form) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachments) == 0 && len(f.fields) == 0
}

// Reset clears user input. Hidden metadata is configuration and survives a reset.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = nil
	f.attachments = nil
}

// Request assembles the form into a submission request and validates it.
func (f *Form) Request() (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req Request
	for _, field := range f.metadata.Fields() {
		req.Add(field.Name, field.Value)
	}
	for _, field := range f.fields {
		req.Add(field.Name, field.Value)
	}
	for _, a := range f.attachments {
		if a.Present() {
			req.Attach(FieldFiles, a)
		}
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

var labelToken = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// RenderLabel substitutes {{name}} tokens in template with values.
// Unknown tokens are left untouched.
func RenderLabel(template string, values map[string]string) string {
	return labelToken.ReplaceAllStringFunc(template, func(token string) string {
		name := labelToken.FindStringSubmatch(token)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return token
	})
}
