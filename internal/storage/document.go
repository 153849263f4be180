package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CheckpointMode is the permission of a written checkpoint document
const CheckpointMode os.FileMode = 0o644

// checkpointDocument is the on-disk checkpoint format.
// CheckedDomainsAlt accepts the camelCase spelling written by other tools.
type checkpointDocument struct {
	CheckedDomains    []string `json:"checked_domains"`
	CheckedDomainsAlt []string `json:"checkedDomains,omitempty"`
}

// Document is a Backend storing the whole checked set as one JSON document.
// Every Persist rewrites the document through a temp file and rename, so a
// crash leaves either the previous or the new version, never a partial one.
type Document struct {
	path string
}

// NewDocument returns a document backend at path
func NewDocument(path string) *Document {
	return &Document{path: path}
}

// Path returns the document location
func (d *Document) Path() string { return d.path }

// Load reads the document; a missing file yields an empty set
func (d *Document) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", d.path, err)
	}

	var doc checkpointDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", d.path, err)
	}
	return append(doc.CheckedDomains, doc.CheckedDomainsAlt...), nil
}

// Persist rewrites the full document from snapshot
func (d *Document) Persist(ctx context.Context, added string, snapshot func() []string) error {
	all := snapshot()
	sort.Strings(all)
	data, err := json.MarshalIndent(checkpointDocument{CheckedDomains: all}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	dir := filepath.Dir(d.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(CheckpointMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing checkpoint %s: %w", d.path, err)
	}
	return nil
}

// Remove deletes the document
func (d *Document) Remove(ctx context.Context) error {
	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint %s: %w", d.path, err)
	}
	return nil
}

// Close is a no-op; the document holds no open resources
func (d *Document) Close() error { return nil }
