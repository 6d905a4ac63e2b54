package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Options selects the files of a submission and describes them.
type Options struct {
	Source              string
	Filter              string
	Prefix              string
	DocumentType        string
	ResourceType        string
	ResourceID          string
	ResourceDescription string
	Replaces            string
	// Manifest names an existing manifest file; when empty one is built.
	Manifest string
	// Now stamps document names; defaults to time.Now.
	Now func() time.Time
}

// Validate applies the option rules for a submission of fileCount files.
func (o *Options) Validate(fileCount int) error {
	if fileCount == 0 {
		return ErrNoFiles
	}
	if o.Manifest != "" && (o.ResourceID != "" || o.ResourceType != "" || o.Replaces != "") {
		return ErrManifestFlags
	}
	if o.ResourceID != "" && o.ResourceType == "" {
		return ErrResourceType
	}
	if fileCount > 1 && o.Replaces != "" {
		return ErrReplaces
	}
	return nil
}

// Collect resolves o.Source to a base directory and sorted file names. A
// directory source yields its regular files whose names match o.Filter
// from the start.
func (o *Options) Collect() (string, []string, error) {
	info, err := os.Stat(o.Source)
	if err != nil {
		return "", nil, fmt.Errorf("stat source: %w", err)
	}

	if !info.IsDir() {
		return filepath.Dir(o.Source), []string{filepath.Base(o.Source)}, nil
	}

	filter := o.Filter
	if filter == "" {
		filter = ".*"
	}
	re, err := regexp.Compile("^(?:" + filter + ")")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrFilter, err)
	}

	entries, err := os.ReadDir(o.Source)
	if err != nil {
		return "", nil, fmt.Errorf("read source: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)
	return o.Source, files, nil
}

// Build generates a manifest for files in dir under a fresh tx.
// Files are inspected concurrently.
func Build(ctx context.Context, dir string, files []string, o *Options) (*Manifest, error) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	stamp := strconv.FormatInt(now().Unix(), 10)

	m := &Manifest{
		Tx:        uuid.NewString(),
		Documents: make([]Document, len(files)),
	}
	if o.ResourceID != "" {
		m.References = []Reference{{
			ResourceType:        o.ResourceType,
			ResourceID:          o.ResourceID,
			ResourceDescription: o.ResourceDescription,
		}}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(runtime.NumCPU(), len(files)), 1))

	for i, name := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			props, err := inspect(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("inspect %s: %w", name, err)
			}

			m.Documents[i] = Document{
				Document:   o.Prefix + name + "-" + stamp,
				Type:       documentType(o.DocumentType, name),
				Content:    Content{Path: name},
				Properties: props,
				Replaces:   o.Replaces,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// Prepare collects, validates and describes the files selected by o, and
// returns the manifest with the attachments to send: the manifest first,
// then each file in manifest order.
func Prepare(ctx context.Context, o *Options) (*Manifest, []submission.Attachment, error) {
	dir, files, err := o.Collect()
	if err != nil {
		return nil, nil, err
	}
	if err := o.Validate(len(files)); err != nil {
		return nil, nil, err
	}

	var m *Manifest
	if o.Manifest != "" {
		m, err = Read(o.Manifest)
	} else {
		m, err = Build(ctx, dir, files, o)
	}
	if err != nil {
		return nil, nil, err
	}

	head, err := m.Attachment()
	if err != nil {
		return nil, nil, err
	}

	attachments := []submission.Attachment{head}
	for _, name := range files {
		a, err := submission.FileAttachment(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		attachments = append(attachments, a)
	}
	return m, attachments, nil
}

func documentType(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func inspect(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Properties{}, err
	}

	props := Properties{
		Filename: filepath.Base(path),
		Size:     n,
		SHA256:   hex.EncodeToString(h.Sum(nil)),
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Properties{}, err
		}
		// Unreadable PDFs are still submitted; the server decides.
		if count, err := api.PageCount(f, nil); err == nil {
			props.PageCount = &count
		}
	}
	return props, nil
}
