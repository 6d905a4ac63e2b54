// Package manifest builds and reads the transaction manifest sent as the
// first attachment of a command-line submission.
//
// A manifest names the transaction, describes every document in it and
// optionally references the resource the documents belong to. Manifests
// are generated from a source file or directory, or read from an existing
// JSON or YAML file.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Filename is the attachment name the document server expects.
const Filename = "manifest.json"

// Manifest describes one submission transaction.
type Manifest struct {
	Tx         string      `json:"tx" yaml:"tx"`
	Documents  []Document  `json:"documents" yaml:"documents"`
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Document describes one attached file.
type Document struct {
	Document   string     `json:"document" yaml:"document"`
	Type       string     `json:"type" yaml:"type"`
	Content    Content    `json:"content" yaml:"content"`
	Properties Properties `json:"properties" yaml:"properties"`
	Replaces   string     `json:"replaces,omitempty" yaml:"replaces,omitempty"`
}

// Content locates the document bytes within the multipart body.
type Content struct {
	Path string `json:"path" yaml:"path"`
}

// Properties are informational attributes recorded with the document.
type Properties struct {
	Filename  string `json:"filename" yaml:"filename"`
	Size      int64  `json:"size,omitempty" yaml:"size,omitempty"`
	SHA256    string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	PageCount *int   `json:"pageCount,omitempty" yaml:"pageCount,omitempty"`
}

// Reference ties the transaction to an external resource.
type Reference struct {
	ResourceType        string `json:"resourceType" yaml:"resourceType"`
	ResourceID          string `json:"resourceId" yaml:"resourceId"`
	ResourceDescription string `json:"resourceDescription,omitempty" yaml:"resourceDescription,omitempty"`
}

// Validate checks the structural requirements of a manifest.
func (m *Manifest) Validate() error {
	if m.Tx == "" {
		return fmt.Errorf("%w: missing tx", ErrInvalidManifest)
	}
	if len(m.Documents) == 0 {
		return fmt.Errorf("%w: no documents", ErrInvalidManifest)
	}
	for i, d := range m.Documents {
		if d.Document == "" {
			return fmt.Errorf("%w: document %d has no name", ErrInvalidManifest, i)
		}
	}
	for i, r := range m.References {
		if r.ResourceID != "" && r.ResourceType == "" {
			return fmt.Errorf("%w: reference %d: %w", ErrInvalidManifest, i, ErrResourceType)
		}
	}
	return nil
}

// Attachment encodes m as the JSON manifest attachment.
func (m *Manifest) Attachment() (submission.Attachment, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return submission.Attachment{}, fmt.Errorf("encode manifest: %w", err)
	}
	return submission.BytesAttachment(Filename, "application/json", data), nil
}

// Read loads a manifest from a .json, .yaml or .yml file.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidManifest, filepath.Base(path), err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Write stores m as indented JSON, or YAML when path ends in .yaml or .yml.
func Write(path string, m *Manifest) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m)
	default:
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
