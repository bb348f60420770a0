// Package object defines the record categories the archive pipeline moves
// around, and the item descriptors shared between delegates and the manifest.
package object

import (
	"fmt"
	"strings"
)

// Type is a category of records that the pipeline treats as an independently
// exportable and importable unit.
type Type string

const (
	// Log is event-log records.
	Log Type = "log"
	// Profile is profile records.
	Profile Type = "profile"
	// Content is content records.
	Content Type = "content"
)

// Types lists every known object type, in canonical order.
func Types() []Type {
	return []Type{Log, Profile, Content}
}

// Valid reports whether t is a known object type.
func (t Type) Valid() bool {
	switch t {
	case Log, Profile, Content:
		return true
	}
	return false
}

// String returns the wire name of the type.
func (t Type) String() string {
	return string(t)
}

// Parse converts a wire name into a Type. The match is case-insensitive.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown object type %q", s)
	}
	return t, nil
}

// ParseList converts a comma-separated list of type names, preserving order.
func ParseList(s string) ([]Type, error) {
	var types []Type
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := Parse(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// Content encodings recorded in the manifest for each item.
const (
	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
)

// Completed describes one file a delegate produced in the workspace during
// export. Paths are relative to the workspace root.
type Completed struct {
	FileName        string `json:"file"`
	ContentEncoding string `json:"content_encoding"`
}

// Item is one manifest entry: a workspace-relative file, its owning object
// type, encoding, and sizes.
type Item struct {
	Type            Type   `json:"object_type"`
	FileName        string `json:"file"`
	ContentEncoding string `json:"content_encoding"`
	Size            int64  `json:"size"`
	ExplodedSize    int64  `json:"exploded_size"`
}
