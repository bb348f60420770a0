// Package manifest implements the descriptor file sealed into every
// container. The manifest enumerates each staged item with its object type,
// encoding, and sizes, and is the sole source of truth on import.
package manifest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/object"
	"github.com/caskhq/cask/internal/util"
)

const (
	// FormatID identifies this container family. Containers with a
	// different format_id are rejected outright.
	FormatID = "cask.archive"

	// FormatVersion is the current manifest schema version.
	FormatVersion = "1.0"

	// FileName is the manifest's name at the container root.
	FileName = "manifest.json"
)

// Manifest describes the full contents of a container.
type Manifest struct {
	FormatID      string            `json:"format_id"`
	FormatVersion string            `json:"format_version"`
	Timestamp     time.Time         `json:"timestamp"`
	Producer      map[string]string `json:"producer"`
	Count         int               `json:"count"`
	Items         []object.Item     `json:"items"`
}

// Group is one object type's completed export files, in the order the
// delegate produced them.
type Group struct {
	Type      object.Type
	Completed []object.Completed
}

// Build assembles a manifest from per-type export results. Groups are
// flattened in the given order, preserving order within each group. Sizes
// are measured from the staged files under workspaceDir.
func Build(workspaceDir string, groups []Group, producer map[string]string, now time.Time) (*Manifest, error) {
	var items []object.Item
	for _, g := range groups {
		for _, c := range g.Completed {
			item, err := measure(workspaceDir, g.Type, c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	return &Manifest{
		FormatID:      FormatID,
		FormatVersion: FormatVersion,
		Timestamp:     now.UTC(),
		Producer:      producer,
		Count:         len(items),
		Items:         items,
	}, nil
}

// measure stats a staged file and fills in its manifest entry. For gzip
// items the decompressed size is read from the gzip trailer (ISIZE, the
// last four bytes); identity items decompress to themselves.
func measure(workspaceDir string, t object.Type, c object.Completed) (object.Item, error) {
	path := filepath.Join(workspaceDir, filepath.FromSlash(c.FileName))
	info, err := os.Stat(path)
	if err != nil {
		return object.Item{}, fmt.Errorf("stat staged file %s: %w", c.FileName, err)
	}

	item := object.Item{
		Type:            t,
		FileName:        c.FileName,
		ContentEncoding: c.ContentEncoding,
		Size:            info.Size(),
		ExplodedSize:    info.Size(),
	}

	if c.ContentEncoding == object.EncodingGzip {
		exploded, err := gzipExplodedSize(path)
		if err != nil {
			return object.Item{}, fmt.Errorf("read gzip trailer of %s: %w", c.FileName, err)
		}
		item.ExplodedSize = exploded
	}

	return item, nil
}

// gzipExplodedSize reads the uncompressed length a gzip file records in its
// trailer. The value is modulo 2^32, which is fine for staged batch files.
func gzipExplodedSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(-4, io.SeekEnd); err != nil {
		return 0, err
	}
	var trailer [4]byte
	if _, err := f.Read(trailer[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint32(trailer[:])), nil
}

// Write serializes the manifest canonically and writes it atomically at the
// root of dir. A manifest is written exactly once per export and never
// rewritten after it is sealed into a container.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := util.AtomicWriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read loads and validates the manifest at the root of dir. Parse failures
// and shape violations surface as archive integrity errors, never as
// undefined values leaking into later stages.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, caskerrors.ErrInvalidManifest("manifest file missing from container").WithCause(err)
	}
	return Decode(data)
}

// Decode parses and validates raw manifest bytes.
func Decode(data []byte) (*Manifest, error) {
	// Cheap shape probe before committing to a strict unmarshal.
	if !gjson.ValidBytes(data) {
		return nil, caskerrors.ErrInvalidManifest("manifest is not valid JSON")
	}
	probe := gjson.ParseBytes(data)
	for _, field := range []string{"format_id", "format_version", "timestamp", "count", "items"} {
		if !probe.Get(field).Exists() {
			return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("missing required field %q", field))
		}
	}
	if !probe.Get("items").IsArray() {
		return nil, caskerrors.ErrInvalidManifest(`field "items" must be an array`)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, caskerrors.ErrInvalidManifest("manifest does not match schema").WithCause(err)
	}

	if m.FormatID != FormatID {
		return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("unknown format id %q", m.FormatID))
	}
	if m.Count != len(m.Items) {
		return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("count %d does not match %d items", m.Count, len(m.Items)))
	}
	for i, item := range m.Items {
		if !item.Type.Valid() {
			return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("item %d has unknown object type %q", i, item.Type))
		}
		if item.FileName == "" {
			return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("item %d has no file name", i))
		}
		switch item.ContentEncoding {
		case object.EncodingIdentity, object.EncodingGzip:
		default:
			return nil, caskerrors.ErrInvalidManifest(fmt.Sprintf("item %d has unknown encoding %q", i, item.ContentEncoding))
		}
	}

	return &m, nil
}

// ItemsFor returns the manifest items belonging to one object type, in
// manifest order.
func (m *Manifest) ItemsFor(t object.Type) []object.Item {
	var items []object.Item
	for _, item := range m.Items {
		if item.Type == t {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks that every requested type has at least one matching item.
// A requested type with nothing to import is an integrity failure, not a
// silent no-op.
func (m *Manifest) Validate(requested []object.Type) error {
	for _, t := range requested {
		if len(m.ItemsFor(t)) == 0 {
			return caskerrors.ErrNothingToImport(t.String())
		}
	}
	return nil
}
